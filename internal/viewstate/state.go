package viewstate

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"channel-viewer/internal/playlist"
)

// ErrIndexOutOfRange is returned when selecting a position outside the list.
var ErrIndexOutOfRange = errors.New("channel index out of range")

// State holds the channel list and the selected channel for the running
// process. It is safe for concurrent use.
type State struct {
	mu       sync.RWMutex
	channels []playlist.Channel
	selected *playlist.Channel
	revision uint64
	source   string
	loadedAt time.Time
}

// Snapshot is a consistent copy of the state at one revision.
type Snapshot struct {
	Channels []playlist.Channel `json:"channels"`
	Selected *playlist.Channel  `json:"selected"`
	Revision uint64             `json:"revision"`
	Source   string             `json:"source,omitempty"`
	LoadedAt *time.Time         `json:"loadedAt,omitempty"`
}

// Stats summarizes the state for metrics.
type Stats struct {
	Channels          int
	ChannelsWithIcons int
	HasSelection      bool
	Revision          uint64
}

// New returns an empty state with nothing selected.
func New() *State {
	return &State{channels: []playlist.Channel{}}
}

// LoadChannels replaces the channel list. A non-empty list selects its
// first channel; an empty list leaves the current selection alone.
func (s *State) LoadChannels(list []playlist.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replace(list)
	s.revision++
}

// Load replaces the channel list and records its source in one step, so no
// snapshot sees the new list next to the old source.
func (s *State) Load(list []playlist.Channel, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replace(list)
	s.source = source
	s.loadedAt = time.Now()
	s.revision++
}

// replace must be called with mu held.
func (s *State) replace(list []playlist.Channel) {
	s.channels = append(make([]playlist.Channel, 0, len(list)), list...)
	if len(list) > 0 {
		first := list[0]
		s.selected = &first
	}
}

// Select makes ch the selected channel. ch does not have to be part of
// the current list.
func (s *State) Select(ch playlist.Channel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = &ch
	s.revision++
}

// SelectIndex selects the channel at position i of the current list.
func (s *State) SelectIndex(i int) (playlist.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.channels) {
		return playlist.Channel{}, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(s.channels))
	}

	ch := s.channels[i]
	s.selected = &ch
	s.revision++
	return ch, nil
}

// SetSource records where the current list came from.
func (s *State) SetSource(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.source = source
	s.loadedAt = time.Now()
	s.revision++
}

// Channels returns a copy of the channel list.
func (s *State) Channels() []playlist.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append(make([]playlist.Channel, 0, len(s.channels)), s.channels...)
}

// Selected returns the selected channel and whether one is set.
func (s *State) Selected() (playlist.Channel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == nil {
		return playlist.Channel{}, false
	}
	return *s.selected, true
}

// HasIcon reports whether url is the icon of a loaded channel.
func (s *State) HasIcon(url string) bool {
	if url == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.channels {
		if ch.Icon == url {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the whole state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Channels: append(make([]playlist.Channel, 0, len(s.channels)), s.channels...),
		Revision: s.revision,
		Source:   s.source,
	}
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	if !s.loadedAt.IsZero() {
		loadedAt := s.loadedAt
		snap.LoadedAt = &loadedAt
	}
	return snap
}

// Stats returns the counters sampled by the metrics collector.
func (s *State) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Channels:     len(s.channels),
		HasSelection: s.selected != nil,
		Revision:     s.revision,
	}
	for _, ch := range s.channels {
		if ch.HasIcon() {
			stats.ChannelsWithIcons++
		}
	}
	return stats
}
