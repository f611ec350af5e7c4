package response

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// Accepted acknowledges a webhook delivery that was deliberately not
// stored. The body is success-shaped so the sender cannot distinguish a
// drop from a slow store.
func Accepted(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}
