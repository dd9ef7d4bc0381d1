package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"insurez/internal/backend"
	"insurez/internal/config"
	"insurez/internal/logger"
	"insurez/internal/models"
)

// bearerToken reads "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// backendFor returns the configured client, or answers 503 when the backend
// is not configured.
func backendFor(w http.ResponseWriter) (*backend.Client, bool) {
	c := getBackend()
	if c == nil {
		writeError(w, http.StatusServiceUnavailable, "backend not configured")
		return nil, false
	}
	return c, true
}

// writeBackendError maps a backend failure onto the API response.
func writeBackendError(w http.ResponseWriter, r *http.Request, err error) {
	kind := backend.KindOf(err)
	status := backend.HTTPStatus(kind)
	msg := err.Error()
	var be *backend.Error
	if errors.As(err, &be) && be.Message != "" {
		msg = be.Message
	}
	if status >= 500 {
		logger.Error("backend call failed", logger.Fields{"path": r.URL.Path, "kind": string(kind), "error": err.Error()})
		msg = "backend unavailable"
	}
	writeError(w, status, msg)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler exchanges credentials for a backend session.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := backendFor(w)
	if !ok {
		return
	}

	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	s, err := c.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, s)
}

// ClaimsHandler files a claim (POST) or lists the caller's claims (GET).
func ClaimsHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := backendFor(w)
	if !ok {
		return
	}
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	s := backend.Session{Token: token}
	noStore(w)

	switch r.Method {
	case http.MethodGet:
		claims, err := c.ListClaims(r.Context(), s)
		if err != nil {
			writeBackendError(w, r, err)
			return
		}
		if claims == nil {
			claims = []backend.Claim{}
		}
		writeJSON(w, http.StatusOK, claims)

	case http.MethodPost:
		var req backend.ClaimRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		defer r.Body.Close()
		if req.PolicyID == "" || req.Amount <= 0 {
			writeError(w, http.StatusBadRequest, "policy_id and a positive amount are required")
			return
		}
		claim, err := c.SubmitClaim(r.Context(), s, req)
		if err != nil {
			writeBackendError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, claim)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// ClaimHandler returns the status of one claim: GET /api/claims/{id}.
func ClaimHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/claims/"), "/")
	if id == "" {
		ClaimsHandler(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := backendFor(w)
	if !ok {
		return
	}
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	claim, err := c.ClaimStatus(r.Context(), backend.Session{Token: token}, id)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, claim)
}

// RequireAdmin guards the admin routes with the X-Admin-Key header. With no
// key configured every admin route answers 404.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		want := config.Cfg.AdminAPIKey
		if want == "" {
			NotFoundHandler(w, r)
			return
		}
		got := r.Header.Get("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			logger.Warn("admin: rejected key", logger.Fields{"ip": clientIP(r), "path": r.URL.Path})
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	}
}

// adminSession forwards the caller's bearer token as an admin session.
func adminSession(w http.ResponseWriter, r *http.Request) (backend.Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return backend.Session{}, false
	}
	return backend.ServiceSession(token), true
}

// AdminClaimsHandler lists every claim, fraud scores included.
func AdminClaimsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	c, ok := backendFor(w)
	if !ok {
		return
	}
	s, ok := adminSession(w, r)
	if !ok {
		return
	}
	claims, err := c.ListClaims(r.Context(), s)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	if claims == nil {
		claims = []backend.Claim{}
	}
	noStore(w)
	writeJSON(w, http.StatusOK, claims)
}

// AdminClaimDecisionHandler records an approve/reject verdict:
// PUT /api/admin/claims/{id}/decision.
func AdminClaimDecisionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/claims/")
	id = strings.Trim(strings.TrimSuffix(id, "/decision"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "claim not found")
		return
	}
	c, ok := backendFor(w)
	if !ok {
		return
	}
	s, ok := adminSession(w, r)
	if !ok {
		return
	}

	var d backend.Decision
	if err := json.NewDecoder(io.LimitReader(r.Body, 16<<10)).Decode(&d); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()
	d.Status = strings.ToLower(strings.TrimSpace(d.Status))

	claim, err := c.DecideClaim(r.Context(), s, id, d)
	if err != nil {
		writeBackendError(w, r, err)
		return
	}
	logger.Info("admin: claim decided", logger.Fields{"claim": id, "status": claim.Status})
	writeJSON(w, http.StatusOK, claim)
}

// AdminPoliciesHandler writes policies on the backend: POST creates, PUT
// /{id} replaces, DELETE /{id} removes. The catalog sees the change on its
// next refresh.
func AdminPoliciesHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/admin/policies"), "/")

	c, ok := backendFor(w)
	if !ok {
		return
	}
	s, ok := adminSession(w, r)
	if !ok {
		return
	}

	switch {
	case r.Method == http.MethodPost && id == "", r.Method == http.MethodPut && id != "":
		var p models.Policy
		if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&p); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		defer r.Body.Close()
		if id != "" {
			p.ID = id
		}
		if strings.TrimSpace(p.Name) == "" || p.Type == "" || p.Premium < 0 || p.CoverageAmount < 0 {
			writeError(w, http.StatusBadRequest, "name, type and non-negative amounts are required")
			return
		}
		saved, err := c.UpsertPolicy(r.Context(), s, p)
		if err != nil {
			writeBackendError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, saved)

	case r.Method == http.MethodDelete && id != "":
		if err := c.DeletePolicy(r.Context(), s, id); err != nil {
			writeBackendError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
