package handlers

import (
	"net/http"
	"strings"

	"insurez/internal/guides"
)

// GuidesHandler lists guide summaries, newest first. ?type= narrows the list
// to one policy type.
func GuidesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var list []guides.Guide
	if t := r.URL.Query().Get("type"); t != "" {
		list = guides.GetByPolicyType(t)
	} else {
		list = guides.GetAll()
	}

	out := make([]guides.Guide, 0, len(list))
	for _, g := range list {
		out = append(out, g.Summary())
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, out)
}

// GuideHandler returns one guide with its rendered body.
func GuideHandler(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/guides/"), "/")
	if slug == "" {
		GuidesHandler(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	g, ok := guides.GetBySlug(slug)
	if !ok {
		writeError(w, http.StatusNotFound, "guide not found")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, g)
}
