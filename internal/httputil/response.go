// Package httputil writes the admin API's JSON wire format. Every response
// body is JSON with camelCase field names; failures are {"error": message}
// objects regardless of which handler produced them.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// errorResponse is the wire shape of every non-2xx body.
type errorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes data as a JSON response body with the given status.
// An encoding failure is logged rather than returned: the status line has
// already been sent, so there is nothing useful left to tell the client.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", slog.Any("error", err))
	}
}

// WriteError writes an {"error": message} body with the given status.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, errorResponse{Error: message})
}
