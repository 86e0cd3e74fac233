package httputil

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

type ErrorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("httputil: failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorBody{Error: message})
}

// WriteErrorKind also reports which class of failure produced message.
func WriteErrorKind(w http.ResponseWriter, status int, message, kind string) {
	WriteJSON(w, status, ErrorBody{Error: message, Kind: kind})
}

// WantsJSON reports whether the client asked for a JSON answer rather than a
// page. Form posts from the browser get a redirect instead.
func WantsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}

// SeeOther sends the browser back to target after a form post.
func SeeOther(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
