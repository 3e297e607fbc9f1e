package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"channel-viewer/internal/logging"
	"channel-viewer/internal/metrics"
	"channel-viewer/internal/playlist"
	"channel-viewer/internal/source"
	"channel-viewer/internal/viewstate"
)

// ErrUnknownPreset is returned when a preset id is not configured.
var ErrUnknownPreset = errors.New("unknown preset")

// Source kinds used as the metrics label.
const (
	KindRemote = "remote"
	KindUpload = "upload"
)

// Prewarmer fills the icon cache for freshly loaded channels.
type Prewarmer interface {
	Prewarm(urls []string)
}

// Result describes a completed load.
type Result struct {
	Channels int    `json:"channels"`
	Source   string `json:"source"`
}

// Loader runs the parse-and-load sequence shared by every playlist source.
type Loader struct {
	fetcher   source.Fetcher
	state     *viewstate.State
	presets   []source.Preset
	prewarmer Prewarmer

	// serializes parse and load so two loads never interleave
	mu sync.Mutex
}

// New creates a loader that writes into state.
func New(fetcher source.Fetcher, state *viewstate.State, presets []source.Preset) *Loader {
	return &Loader{
		fetcher: fetcher,
		state:   state,
		presets: presets,
	}
}

// SetPrewarmer registers the icon prewarmer. nil disables prewarming.
func (l *Loader) SetPrewarmer(p Prewarmer) {
	l.prewarmer = p
}

// Presets returns a copy of the configured presets.
func (l *Loader) Presets() []source.Preset {
	return append([]source.Preset(nil), l.presets...)
}

// LoadPreset fetches and loads the preset with the given id.
func (l *Loader) LoadPreset(ctx context.Context, id string) (Result, error) {
	preset, ok := source.FindPreset(l.presets, id)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	return l.LoadURL(ctx, preset.URL, "preset:"+preset.ID)
}

// LoadURL fetches a remote playlist and loads it. On failure the current
// list and selection are left as they were.
func (l *Loader) LoadURL(ctx context.Context, url, origin string) (Result, error) {
	logging.Info("Loading playlist %s from %s", origin, url)

	text, err := l.fetcher.FetchText(ctx, url)
	if err != nil {
		metrics.PlaylistLoadsTotal.WithLabelValues(KindRemote, "error").Inc()
		logging.Error("Failed to load playlist %s: %v", origin, err)
		return Result{}, fmt.Errorf("failed to fetch playlist %s: %w", origin, err)
	}

	return l.apply(text, origin, KindRemote), nil
}

// LoadText parses already retrieved playlist text and loads it.
func (l *Loader) LoadText(text, origin string) Result {
	return l.apply(text, origin, KindUpload)
}

func (l *Loader) apply(text, origin, kind string) Result {
	l.mu.Lock()

	start := time.Now()
	channels := playlist.Parse(text)
	metrics.PlaylistParseDuration.Observe(time.Since(start).Seconds())
	metrics.PlaylistBytes.Observe(float64(len(text)))
	metrics.PlaylistChannelsParsed.Observe(float64(len(channels)))

	l.state.Load(channels, origin)

	l.mu.Unlock()

	metrics.PlaylistLoadsTotal.WithLabelValues(kind, "success").Inc()
	logging.Info("Loaded %d channels from %s in %v", len(channels), origin, time.Since(start))

	if l.prewarmer != nil && len(channels) > 0 {
		l.prewarmer.Prewarm(iconURLs(channels))
	}

	return Result{Channels: len(channels), Source: origin}
}

// iconURLs returns the distinct icon URLs in list order.
func iconURLs(channels []playlist.Channel) []string {
	seen := make(map[string]struct{}, len(channels))
	urls := make([]string, 0, len(channels))
	for _, ch := range channels {
		if !ch.HasIcon() {
			continue
		}
		if _, ok := seen[ch.Icon]; ok {
			continue
		}
		seen[ch.Icon] = struct{}{}
		urls = append(urls, ch.Icon)
	}
	return urls
}
