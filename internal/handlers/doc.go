// Package handlers provides HTTP request handlers for the channel viewer API.
//
// It includes handlers for:
//   - The view state: channel list, selection and revision
//   - Loading playlists from presets and uploaded .m3u files
//   - The channel icon proxy
//   - Health checks and build information
//
// API errors are returned as JSON objects of the form {"error": "..."}.
package handlers
