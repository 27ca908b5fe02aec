// pkg/webutil/respond.go
package webutil

import (
	"encoding/json"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError emits the {"error": ...} shape every route uses for failures.
func WriteError(w http.ResponseWriter, msg string, status int) {
	WriteJSON(w, map[string]string{"error": msg}, status)
}
