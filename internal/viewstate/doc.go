// Package viewstate holds the session view state: the loaded channel list
// and the currently selected channel.
//
// The state lives for the lifetime of the process and is never persisted.
// Loading a non-empty list auto-selects its first channel; loading an
// empty list keeps whatever was selected before. Every mutation bumps a
// revision counter so clients can tell when to re-render.
package viewstate
