package tui

import "github.com/mmcdole/shelf/internal/undo"

// ChannelObserver adapts undo.Observer to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- undo.Event
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- undo.Event) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnDeleteEvent sends the event to the channel (non-blocking if full).
// The model reconciles the banner against the coordinator on every tick,
// so a dropped event only delays the redraw.
func (o *ChannelObserver) OnDeleteEvent(ev undo.Event) {
	select {
	case o.ch <- ev:
	default: // Non-blocking if channel full
	}
}
