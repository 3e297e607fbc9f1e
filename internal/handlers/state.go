package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"channel-viewer/internal/logging"
	"channel-viewer/internal/metrics"
	"channel-viewer/internal/playlist"
	"channel-viewer/internal/viewstate"
)

// SelectionRequest selects either a list position or an explicit channel.
type SelectionRequest struct {
	Index   *int              `json:"index,omitempty"`
	Channel *playlist.Channel `json:"channel,omitempty"`
}

// GetState returns the channel list, the selection and the revision
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	snap := h.state.Snapshot()
	setStateHeaders(w, snap)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, snap)
}

// GetChannels returns the channel list only
func (h *Handlers) GetChannels(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, h.state.Channels())
}

// SetSelection changes the selected channel
func (h *Handlers) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	switch {
	case req.Index != nil:
		ch, err := h.state.SelectIndex(*req.Index)
		if err != nil {
			if errors.Is(err, viewstate.ErrIndexOutOfRange) {
				writeJSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			logging.Error("Selection failed: %v", err)
			writeJSONError(w, "Selection failed", http.StatusInternalServerError)
			return
		}
		metrics.SelectionChangesTotal.WithLabelValues("index").Inc()
		logging.Debug("Selected channel %d: %s", *req.Index, ch.Name)

	case req.Channel != nil:
		ch := playlist.Channel{
			Name: strings.TrimSpace(req.Channel.Name),
			URL:  strings.TrimSpace(req.Channel.URL),
			Icon: strings.TrimSpace(req.Channel.Icon),
		}
		if ch.Name == "" || ch.URL == "" {
			writeJSONError(w, "Channel name and url are required", http.StatusBadRequest)
			return
		}
		h.state.Select(ch)
		metrics.SelectionChangesTotal.WithLabelValues("channel").Inc()
		logging.Debug("Selected channel: %s", ch.Name)

	default:
		writeJSONError(w, "Either index or channel is required", http.StatusBadRequest)
		return
	}

	snap := h.state.Snapshot()
	setStateHeaders(w, snap)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, snap)
}
