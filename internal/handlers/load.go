package handlers

import (
	"errors"
	"net/http"

	"channel-viewer/internal/loader"
	"channel-viewer/internal/logging"
	"channel-viewer/internal/metrics"
	"channel-viewer/internal/source"
	"channel-viewer/internal/viewstate"

	"github.com/gorilla/mux"
)

// multipart framing allowance on top of the playlist size cap
const uploadOverhead = 1 << 20

// LoadResponse reports a completed load together with the new state.
type LoadResponse struct {
	Loaded loader.Result      `json:"loaded"`
	State  viewstate.Snapshot `json:"state"`
}

// ListPresets returns the quick-load presets
func (h *Handlers) ListPresets(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, h.loader.Presets())
}

// LoadPreset fetches a preset playlist and replaces the channel list
func (h *Handlers) LoadPreset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	result, err := h.loader.LoadPreset(r.Context(), id)
	if err != nil {
		if errors.Is(err, loader.ErrUnknownPreset) {
			writeJSONError(w, "Preset not found", http.StatusNotFound)
			return
		}
		// The loader has already logged and counted the failure
		writeJSONError(w, "Failed to fetch playlist: "+err.Error(), http.StatusBadGateway)
		return
	}

	snap := h.state.Snapshot()
	setStateHeaders(w, snap)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, LoadResponse{Loaded: result, State: snap})
}

// UploadPlaylist loads a local .m3u file sent as the multipart field "file"
func (h *Handlers) UploadPlaylist(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+uploadOverhead)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			h.uploadFailed(w, "Playlist too large", http.StatusRequestEntityTooLarge, err)
		case errors.Is(err, http.ErrMissingFile):
			h.uploadFailed(w, "A playlist file is required", http.StatusBadRequest, err)
		default:
			h.uploadFailed(w, "Invalid upload", http.StatusBadRequest, err)
		}
		return
	}
	_ = file.Close()
	if r.MultipartForm != nil {
		defer func() {
			if err := r.MultipartForm.RemoveAll(); err != nil {
				logging.Warn("Failed to remove upload temp files: %v", err)
			}
		}()
	}

	text, err := source.ReadUpload(header, h.maxUploadBytes)
	if err != nil {
		switch {
		case errors.Is(err, source.ErrUnsupportedExtension):
			h.uploadFailed(w, "Only .m3u files are accepted", http.StatusBadRequest, err)
		case errors.Is(err, source.ErrTooLarge):
			h.uploadFailed(w, "Playlist too large", http.StatusRequestEntityTooLarge, err)
		default:
			h.uploadFailed(w, "Failed to read playlist", http.StatusInternalServerError, err)
		}
		return
	}

	result := h.loader.LoadText(text, header.Filename)

	snap := h.state.Snapshot()
	setStateHeaders(w, snap)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, LoadResponse{Loaded: result, State: snap})
}

func (h *Handlers) uploadFailed(w http.ResponseWriter, message string, status int, err error) {
	metrics.PlaylistLoadsTotal.WithLabelValues(loader.KindUpload, "error").Inc()
	logging.Warn("Upload rejected: %v", err)
	writeJSONError(w, message, status)
}
