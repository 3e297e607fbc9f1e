// Package source provides the collaborators that supply playlist text:
// a rate-limited, retrying HTTP fetcher for remote playlists, a reader for
// uploaded .m3u files, and the fixed quick-load presets.
//
// Both collaborators return UTF-8 text. Bodies in other encodings are
// converted using the declared charset or content sniffing.
package source
