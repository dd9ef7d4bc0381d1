package handlers

import (
	"net/http"
	"strings"
)

// NotFoundHandler answers every unmatched route. The service is API-only, so
// misses get a JSON body; "/" gets a small service banner.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		writeJSON(w, http.StatusOK, map[string]string{
			"service": "insurez",
			"health":  "/api/health",
		})
		return
	}
	msg := "not found"
	if strings.HasPrefix(r.URL.Path, "/api/") {
		msg = "endpoint not found"
	}
	writeError(w, http.StatusNotFound, msg)
}
