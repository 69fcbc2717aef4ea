package main

import "net/http"

// pingHandler is the liveness probe.
func (app *application) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
