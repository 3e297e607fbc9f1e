package playlist

import (
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ExtInfMarker starts the metadata line that describes the next entry.
const ExtInfMarker = "#EXTINF:"

var tvgLogoPattern = regexp.MustCompile(`tvg-logo="([^"]+)"`)

// Channel is one playable playlist entry.
type Channel struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Icon string `json:"icon,omitempty"`
}

// HasIcon reports whether the channel carries a logo URL.
func (c Channel) HasIcon() bool {
	return c.Icon != ""
}

// pendingEntry accumulates metadata until a URL line completes it.
type pendingEntry struct {
	name string
	icon string
	url  string
}

func (p *pendingEntry) complete() bool {
	return p.name != "" && p.url != ""
}

func (p *pendingEntry) reset() {
	*p = pendingEntry{}
}

// Parse extracts the channels of an extended M3U document.
//
// It never fails: entries missing either a name or a URL are dropped.
// An entry is committed only when a URL line arrives while a name is
// already pending. A URL line seen without a pending name is stored on
// the pending entry and stays there until a later URL line replaces it.
func Parse(text string) []Channel {
	channels := make([]Channel, 0)
	var pending pendingEntry

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, ExtInfMarker):
			applyExtInf(&pending, line)
		case strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#"):
			continue
		default:
			pending.url = strings.TrimSpace(line)
			if pending.complete() {
				channels = append(channels, Channel{
					Name: pending.name,
					URL:  pending.url,
					Icon: pending.icon,
				})
				pending.reset()
			}
		}
	}

	return channels
}

// ParseReader reads the whole document from r and parses it.
// Only read errors are reported.
func ParseReader(r io.Reader) ([]Channel, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	return Parse(string(data)), nil
}

// applyExtInf overwrites only the fields the line actually carries.
func applyExtInf(p *pendingEntry, line string) {
	if name, ok := displayName(line); ok {
		p.name = name
	}
	if icon, ok := logoURL(line); ok {
		p.icon = icon
	}
}

// displayName returns the trimmed text after the last comma. A blank name
// still counts, so it clears whatever name was pending.
func displayName(line string) (string, bool) {
	idx := strings.LastIndex(line, ",")
	if idx == -1 {
		return "", false
	}
	return strings.TrimSpace(line[idx+1:]), true
}

// logoURL returns the first tvg-logo attribute value on the line.
func logoURL(line string) (string, bool) {
	m := tvgLogoPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
