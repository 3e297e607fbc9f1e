package handlers

import (
	"context"
	"errors"
	"net/http"

	"channel-viewer/internal/icons"
	"channel-viewer/internal/logging"
)

// GetIcon serves the resized icon of a loaded channel
func (h *Handlers) GetIcon(w http.ResponseWriter, r *http.Request) {
	iconURL := r.URL.Query().Get("url")
	if iconURL == "" {
		writeJSONError(w, "url is required", http.StatusBadRequest)
		return
	}

	if h.icons == nil {
		writeJSONError(w, "Icon proxy disabled", http.StatusServiceUnavailable)
		return
	}

	data, err := h.icons.Get(r.Context(), iconURL)
	if err != nil {
		switch {
		case errors.Is(err, icons.ErrIconNotAllowed):
			writeJSONError(w, "Icon not found", http.StatusNotFound)
		case errors.Is(err, context.Canceled):
			// Client went away
		case errors.Is(err, context.DeadlineExceeded):
			writeJSONError(w, "Icon fetch timed out", http.StatusGatewayTimeout)
		default:
			logging.Debug("Icon %s failed: %v", iconURL, err)
			writeJSONError(w, "Icon unavailable", http.StatusBadGateway)
		}
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Failed to write icon response: %v", err)
	}
}
