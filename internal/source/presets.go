package source

// Preset is a quick-load shortcut to a fixed remote playlist.
type Preset struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

// NewPresets returns the two quick-load shortcuts offered by the UI.
func NewPresets(tvURL, moviesURL string) []Preset {
	return []Preset{
		{ID: "tv", Label: "TV", URL: tvURL},
		{ID: "movies", Label: "Movies", URL: moviesURL},
	}
}

// FindPreset looks a preset up by id.
func FindPreset(presets []Preset, id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}
