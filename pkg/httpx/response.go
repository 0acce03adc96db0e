package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// Everything behind a session is per-user, so it must never be cached.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ErrorResponse is the body of every error this server renders.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError renders {"error": msg} with the given status. The message is
// shown to browsers, so it must never carry internal detail.
func WriteError(w http.ResponseWriter, code int, msg string) {
	WriteJSON(w, code, ErrorResponse{Error: msg})
}

// WriteInternalError renders the generic 500 body.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
