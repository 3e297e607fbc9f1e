// Package loader turns playlist text into view state.
//
// Remote presets and uploaded files go through the same sequence: parse the
// text, replace the channel list (which selects the first channel), record
// where the list came from, then prewarm the channel icons in the
// background. A failed fetch never touches the current list or selection.
package loader
