package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/shelf/internal/adapter"
	"github.com/mmcdole/shelf/internal/adapter/source"
	"github.com/mmcdole/shelf/internal/collection"
	"github.com/mmcdole/shelf/internal/library"
	"github.com/mmcdole/shelf/internal/store"
	"github.com/mmcdole/shelf/internal/tui"
	"github.com/mmcdole/shelf/internal/tui/styles"
	"github.com/mmcdole/shelf/internal/undo"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

// clearSpinnerLine clears the spinner line from the terminal
const clearSpinnerLine = "\r                                    \r"

// eventBuffer holds delete events while the UI is busy rendering
const eventBuffer = 64

func main() {
	var showVersion, reset bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&reset, "reset", false, "forget the server settings and cached catalog")
	flag.Parse()

	if showVersion {
		fmt.Printf("shelf %s\n", Version)
		return
	}

	var err error
	if reset {
		err = runReset()
	} else {
		err = run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting shelf", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg)
	}

	client, err := source.NewClientFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}

	cacheDir := ""
	if cfg.Cache.Enabled {
		cacheDir = cfg.Cache.Dir
	}
	cache, err := store.NewCatalogStore(cacheDir, cfg.Server.URL)
	if err != nil {
		// Another instance may hold the db lock; run without persistence
		logger.Warn("offline cache unavailable", "error", err, "dir", cacheDir)
		cache, _ = store.NewCatalogStore("", "")
	}
	defer cache.Close()

	styles.ApplyTheme(cfg.UI.Theme)

	books := collection.NewStore()
	events := make(chan undo.Event, eventBuffer)
	coord := undo.NewCoordinator(client, books, logger,
		undo.WithWindow(cfg.Undo.Window),
		undo.WithRequestTimeout(cfg.Server.Timeout),
		undo.WithObserver(tui.NewChannelObserver(events)),
	)

	cmds := library.NewCommands(client, books, coord, cache, logger)
	queries := library.NewQueries(books)

	model := tui.NewModel(cmds, queries, coord, events, logger)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	logger.Info("starting TUI", "server", cfg.Server.URL, "undoWindow", cfg.Undo.Window)

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	// An open undo window ends with the program; let in-flight deletes finish.
	coord.Abandon()
	coord.Wait()

	logger.Info("shutting down")
	return nil
}

// runReset clears server settings and the offline cache
func runReset() error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := adapter.ClearCache(cfg); err != nil {
		return err
	}
	if err := adapter.ClearServerConfig(cfg); err != nil {
		return err
	}
	fmt.Println("✓ Server settings and cache cleared. Run shelf again to set up.")
	return nil
}

// runSetupFlow handles the initial setup when not configured
func runSetupFlow(cfg *adapter.Config) error {
	fmt.Println()
	fmt.Println("Welcome to Shelf!")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	var serverURL, token string
	for {
		fmt.Print("Enter your catalog server URL (e.g., http://localhost:8080): ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		serverURL = strings.TrimSpace(input)

		if serverURL == "" {
			fmt.Println("Server URL cannot be empty. Please try again.")
			continue
		}

		token, err = readToken(reader)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}

		fmt.Println()
		if err := probeServerWithSpinner(serverURL, token); err != nil {
			fmt.Printf("\n✗ Could not reach catalog API: %v\n", err)
			fmt.Println("Please check the URL and try again.")
			fmt.Println()
			continue
		}
		break
	}

	cfg.Server.URL = serverURL
	cfg.Server.Token = token

	if err := adapter.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	fmt.Println()
	fmt.Println("Run shelf again to start the application.")

	return nil
}

// readToken prompts for an optional API token, hiding input on a terminal
func readToken(reader *bufio.Reader) (string, error) {
	fmt.Print("API token (leave empty if none): ")

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// probeServerWithSpinner checks the endpoint with a visual spinner
func probeServerWithSpinner(serverURL, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		resultCh <- source.Detect(ctx, serverURL, token)
	}()

	frame := 0
	fmt.Printf("\r%s Contacting server...", styles.SpinnerFrames[frame])

	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-resultCh:
			fmt.Print(clearSpinnerLine)
			if err != nil {
				return err
			}
			fmt.Println("✓ Catalog API found")
			return nil

		case <-ticker.C:
			frame++
			fmt.Printf("\r%s Contacting server...", styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])

		case <-ctx.Done():
			fmt.Print(clearSpinnerLine)
			return fmt.Errorf("connection timed out")
		}
	}
}
