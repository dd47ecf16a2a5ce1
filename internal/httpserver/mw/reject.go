package mw

import (
	"net/http"
)

// reject answers with a bare JSON error so middleware refusals look like
// handler errors to clients.
func reject(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + http.StatusText(status) + `"}` + "\n"))
}
