package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/adapter/source/graphql"
	"github.com/mmcdole/shelf/internal/domain"
)

const probeTimeout = 10 * time.Second

// BookSource is a catalog server backend.
type BookSource interface {
	domain.BookRepository
	Probe(ctx context.Context) error
}

// SourceConfig contains the configuration needed to create a BookSource
type SourceConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// NewClient creates a new BookSource for the configured server.
func NewClient(cfg *SourceConfig, logger *slog.Logger) (BookSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("source config is nil")
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", cfg.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
	}

	return graphql.NewClient(cfg.URL, cfg.Token, cfg.Timeout, logger), nil
}

// NewClientFromConfig creates a BookSource from the application config
func NewClientFromConfig(cfg *adapter.Config, logger *slog.Logger) (BookSource, error) {
	return NewClient(&SourceConfig{
		URL:     cfg.Server.URL,
		Token:   cfg.Server.Token,
		Timeout: cfg.Server.Timeout,
	}, logger)
}

// Detect verifies that serverURL hosts a catalog API before it is saved.
func Detect(ctx context.Context, serverURL, token string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	src, err := NewClient(&SourceConfig{URL: serverURL, Token: token, Timeout: probeTimeout}, adapter.NullLogger())
	if err != nil {
		return err
	}
	return src.Probe(ctx)
}
