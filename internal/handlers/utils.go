package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"channel-viewer/internal/logging"
	"channel-viewer/internal/middleware"
	"channel-viewer/internal/viewstate"
)

// setStateHeaders tags a response with the revision and playlist it reflects.
func setStateHeaders(w http.ResponseWriter, snap viewstate.Snapshot) {
	w.Header().Set(middleware.RevisionHeader, strconv.FormatUint(snap.Revision, 10))
	if snap.Source != "" {
		w.Header().Set(middleware.SourceHeader, snap.Source)
	}
}

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, map[string]string{"error": message})
}
