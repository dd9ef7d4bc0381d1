package handlers

import (
	"net/http"
	"strings"

	"insurez/internal/backend"
)

// PoliciesHandler lists the catalog, optionally filtered with ?type=.
func PoliciesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	policies := getCatalog().ByType(r.URL.Query().Get("type"))
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(policies),
		"types":    getCatalog().Types(),
		"policies": policies,
	})
}

// PolicyHandler returns one catalog entry: GET /api/policies/{id}.
func PolicyHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/policies/"), "/")
	if id == "" {
		PoliciesHandler(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if p, ok := getCatalog().Get(id); ok {
		writeJSON(w, http.StatusOK, p)
		return
	}

	// Not in the catalog yet: ask the backend directly.
	if c := getBackend(); c != nil {
		p, err := c.GetPolicy(r.Context(), id)
		if err == nil {
			writeJSON(w, http.StatusOK, p)
			return
		}
		if backend.KindOf(err) != backend.KindNotFound {
			writeBackendError(w, r, err)
			return
		}
	}
	writeError(w, http.StatusNotFound, "policy not found")
}
