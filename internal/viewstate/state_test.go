package viewstate

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"channel-viewer/internal/playlist"
)

var (
	chOne   = playlist.Channel{Name: "One", URL: "http://example.com/one.m3u8", Icon: "http://x/one.png"}
	chTwo   = playlist.Channel{Name: "Two", URL: "http://example.com/two.m3u8"}
	chThree = playlist.Channel{Name: "Three", URL: "http://example.com/three.m3u8"}
)

func TestNewStateIsEmpty(t *testing.T) {
	s := New()

	if len(s.Channels()) != 0 {
		t.Errorf("Expected no channels, got %d", len(s.Channels()))
	}
	if _, ok := s.Selected(); ok {
		t.Error("Expected no selection on a new state")
	}

	snap := s.Snapshot()
	if snap.Channels == nil {
		t.Error("Expected non-nil channel slice in snapshot")
	}
	if snap.Selected != nil || snap.LoadedAt != nil || snap.Revision != 0 {
		t.Errorf("Unexpected snapshot for empty state: %+v", snap)
	}
}

func TestLoadChannelsSelectsFirst(t *testing.T) {
	s := New()
	s.LoadChannels([]playlist.Channel{chOne, chTwo})

	if got := s.Channels(); !reflect.DeepEqual(got, []playlist.Channel{chOne, chTwo}) {
		t.Errorf("Channels() = %+v", got)
	}

	sel, ok := s.Selected()
	if !ok || sel != chOne {
		t.Errorf("Expected first channel selected, got %+v (ok=%v)", sel, ok)
	}
}

func TestLoadChannelsReplacesList(t *testing.T) {
	s := New()
	s.LoadChannels([]playlist.Channel{chOne, chTwo})
	s.LoadChannels([]playlist.Channel{chThree})

	if got := s.Channels(); !reflect.DeepEqual(got, []playlist.Channel{chThree}) {
		t.Errorf("Expected list replaced wholesale, got %+v", got)
	}
	if sel, _ := s.Selected(); sel != chThree {
		t.Errorf("Expected Three selected, got %+v", sel)
	}
}

func TestLoadEmptyListKeepsSelection(t *testing.T) {
	s := New()
	s.LoadChannels([]playlist.Channel{chOne, chTwo})
	s.Select(chTwo)

	s.LoadChannels([]playlist.Channel{})

	if len(s.Channels()) != 0 {
		t.Errorf("Expected empty list, got %+v", s.Channels())
	}
	sel, ok := s.Selected()
	if !ok || sel != chTwo {
		t.Errorf("Expected selection to stay on Two, got %+v (ok=%v)", sel, ok)
	}

	s.LoadChannels(nil)
	if sel, ok := s.Selected(); !ok || sel != chTwo {
		t.Errorf("Expected nil list to keep selection, got %+v", sel)
	}
}

func TestSelectWithoutMembership(t *testing.T) {
	s := New()
	s.LoadChannels([]playlist.Channel{chOne})

	outsider := playlist.Channel{Name: "Outsider", URL: "http://elsewhere/x"}
	s.Select(outsider)

	if sel, _ := s.Selected(); sel != outsider {
		t.Errorf("Expected outsider selected, got %+v", sel)
	}
}

func TestSelectIndex(t *testing.T) {
	s := New()
	s.LoadChannels([]playlist.Channel{chOne, chTwo, chThree})

	tests := []struct {
		name    string
		index   int
		want    playlist.Channel
		wantErr bool
	}{
		{"First", 0, chOne, false},
		{"Last", 2, chThree, false},
		{"Negative", -1, playlist.Channel{}, true},
		{"Past end", 3, playlist.Channel{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.SelectIndex(tt.index)
			if tt.wantErr {
				if !errors.Is(err, ErrIndexOutOfRange) {
					t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SelectIndex(%d) failed: %v", tt.index, err)
			}
			if got != tt.want {
				t.Errorf("SelectIndex(%d) = %+v, want %+v", tt.index, got, tt.want)
			}
			if sel, _ := s.Selected(); sel != tt.want {
				t.Errorf("Selected() = %+v, want %+v", sel, tt.want)
			}
		})
	}
}

func TestLoadChannelsCopiesInput(t *testing.T) {
	s := New()
	list := []playlist.Channel{chOne, chTwo}
	s.LoadChannels(list)

	list[0].Name = "Mutated"
	if got := s.Channels()[0].Name; got != "One" {
		t.Errorf("State shares caller's slice: got %q", got)
	}

	out := s.Channels()
	out[1].Name = "Mutated"
	if got := s.Channels()[1].Name; got != "Two" {
		t.Errorf("Channels() leaks internal slice: got %q", got)
	}
}

func TestRevisionAndSource(t *testing.T) {
	s := New()

	s.LoadChannels([]playlist.Channel{chOne})
	s.SetSource("preset:tv")
	s.Select(chTwo)

	snap := s.Snapshot()
	if snap.Revision != 3 {
		t.Errorf("Expected revision 3, got %d", snap.Revision)
	}
	if snap.Source != "preset:tv" {
		t.Errorf("Expected source preset:tv, got %q", snap.Source)
	}
	if snap.LoadedAt == nil {
		t.Error("Expected LoadedAt to be set after SetSource")
	}
	if snap.Selected == nil || *snap.Selected != chTwo {
		t.Errorf("Expected snapshot selection Two, got %+v", snap.Selected)
	}
}

func TestLoadSetsListAndSourceTogether(t *testing.T) {
	s := New()
	s.Select(chThree)

	s.Load([]playlist.Channel{chOne, chTwo}, "upload:tv.m3u")

	snap := s.Snapshot()
	if snap.Revision != 2 {
		t.Errorf("Expected one revision for the load, got %d", snap.Revision)
	}
	if len(snap.Channels) != 2 || snap.Source != "upload:tv.m3u" || snap.LoadedAt == nil {
		t.Errorf("Unexpected snapshot after load: %+v", snap)
	}
	if snap.Selected == nil || *snap.Selected != chOne {
		t.Errorf("Expected first channel selected, got %+v", snap.Selected)
	}

	s.Load(nil, "preset:movies")
	snap = s.Snapshot()
	if len(snap.Channels) != 0 || snap.Selected == nil || *snap.Selected != chOne {
		t.Errorf("Empty load should keep the selection, got %+v", snap)
	}
}

func TestLoadNeverMixesSources(t *testing.T) {
	s := New()
	lists := map[string][]playlist.Channel{
		"preset:tv":     {chOne},
		"preset:movies": {chTwo, chThree},
	}

	var wg sync.WaitGroup
	done := make(chan struct{})
	for origin, list := range lists {
		origin, list := origin, list
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Load(list, origin)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	for {
		snap := s.Snapshot()
		if snap.Source != "" && len(snap.Channels) != len(lists[snap.Source]) {
			t.Fatalf("Snapshot mixes source %q with %d channels", snap.Source, len(snap.Channels))
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

func TestHasIcon(t *testing.T) {
	s := New()
	s.LoadChannels([]playlist.Channel{chOne, chTwo})

	if !s.HasIcon("http://x/one.png") {
		t.Error("Expected loaded icon to be known")
	}
	if s.HasIcon("http://x/other.png") {
		t.Error("Expected unknown icon to be rejected")
	}
	if s.HasIcon("") {
		t.Error("Expected empty icon url to be rejected")
	}
}

func TestStats(t *testing.T) {
	s := New()
	s.LoadChannels([]playlist.Channel{chOne, chTwo, chThree})

	stats := s.Stats()
	if stats.Channels != 3 || stats.ChannelsWithIcons != 1 || !stats.HasSelection {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			s.LoadChannels([]playlist.Channel{chOne, chTwo})
		}()
		go func() {
			defer wg.Done()
			s.Select(chThree)
		}()
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if _, ok := s.Selected(); !ok {
		t.Error("Expected a selection after concurrent updates")
	}
	if got := s.Stats().Revision; got != 40 {
		t.Errorf("Expected revision 40, got %d", got)
	}
}
