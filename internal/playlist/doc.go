// Package playlist parses extended M3U playlist documents into channels.
//
// Only a small, well-known subset of the format is interpreted:
//   - #EXTINF:<duration> [attributes],<display name> lines supply the name
//     (text after the last comma) and an optional tvg-logo="<url>" icon
//   - any other line starting with '#' is ignored, as are blank lines
//   - every remaining line is a resource locator that completes the
//     entry described by the preceding #EXTINF line
//
// Other attributes (group-title, tvg-id, tvg-language, ...) are not
// interpreted. Parsing never fails; incomplete entries are omitted.
package playlist
