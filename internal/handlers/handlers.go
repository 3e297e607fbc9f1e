package handlers

import (
	"context"
	"time"

	"channel-viewer/internal/loader"
	"channel-viewer/internal/startup"
	"channel-viewer/internal/viewstate"
)

// IconSource returns the PNG rendition of a channel icon.
type IconSource interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

type Handlers struct {
	state          *viewstate.State
	loader         *loader.Loader
	icons          IconSource
	maxUploadBytes int64
	startTime      time.Time
}

// New creates the HTTP handlers. icons may be nil when the icon proxy is disabled.
func New(state *viewstate.State, ldr *loader.Loader, icons IconSource, config *startup.Config) *Handlers {
	return &Handlers{
		state:          state,
		loader:         ldr,
		icons:          icons,
		maxUploadBytes: config.MaxPlaylistBytes,
		startTime:      time.Now(),
	}
}
