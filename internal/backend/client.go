// Package backend is the HTTP client for the policy and claims backend. Every
// call takes an explicit Session and every failure is a *backend.Error.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"insurez/internal/logger"
	"insurez/internal/models"
)

const maxBodyBytes = 2 * 1024 * 1024

// Client talks to the backend REST API.
type Client struct {
	baseURL   string
	http      *http.Client
	userAgent string
	cache     *etagCache
	delays    []time.Duration
	sleep     func(context.Context, time.Duration) error
	now       func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithRetryDelays sets the wait before each retry of a GET; its length is the retry count.
func WithRetryDelays(d ...time.Duration) Option {
	return func(c *Client) { c.delays = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   newETagCache(),
		delays:  []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second},
		sleep:   sleepCtx,
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// CacheStats returns a copy of the conditional-GET cache counters.
func (c *Client) CacheStats() CacheStats { return c.cache.snapshot() }

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	User      struct {
		ID      string `json:"id"`
		MongoID string `json:"_id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Role    string `json:"role"`
	} `json:"user"`
}

// Login exchanges credentials for a Session.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	const op = "login"
	body := map[string]string{"email": email, "password": password}
	var resp loginResponse
	if err := c.send(ctx, op, http.MethodPost, "/api/auth/login", nil, body, &resp); err != nil {
		return Session{}, err
	}
	if resp.Token == "" {
		return Session{}, &Error{Kind: KindDecode, Op: op, Message: "response has no token"}
	}
	ttl := defaultSessionTTL
	if resp.ExpiresIn > 0 {
		ttl = time.Duration(resp.ExpiresIn) * time.Second
	}
	id := resp.User.ID
	if id == "" {
		id = resp.User.MongoID
	}
	return Session{
		Token:     resp.Token,
		User:      User{ID: id, Name: resp.User.Name, Email: resp.User.Email, Role: resp.User.Role},
		ExpiresAt: c.now().Add(ttl),
	}, nil
}

// ---------------------------------------------------------------------------
// Policies
// ---------------------------------------------------------------------------

// ListPolicies fetches the public policy list. Both a bare array and a
// {"policies": [...]} envelope are accepted.
func (c *Client) ListPolicies(ctx context.Context) ([]models.Policy, error) {
	const op = "list policies"
	body, err := c.getCached(ctx, op, "/api/policies")
	if err != nil {
		return nil, err
	}
	policies, err := decodePolicyList(body)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return policies, nil
}

func decodePolicyList(body []byte) ([]models.Policy, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []models.Policy
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}
	var env struct {
		Policies []models.Policy `json:"policies"`
		Data     []models.Policy `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Policies != nil {
		return env.Policies, nil
	}
	return env.Data, nil
}

func (c *Client) GetPolicy(ctx context.Context, id string) (models.Policy, error) {
	const op = "get policy"
	body, err := c.getCached(ctx, op, "/api/policies/"+url.PathEscape(id))
	if err != nil {
		return models.Policy{}, err
	}
	var p models.Policy
	if err := json.Unmarshal(body, &p); err != nil {
		return models.Policy{}, &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return p, nil
}

// UpsertPolicy creates p when it has no ID and replaces it otherwise. Admin only.
func (c *Client) UpsertPolicy(ctx context.Context, s Session, p models.Policy) (models.Policy, error) {
	op, method, path := "create policy", http.MethodPost, "/api/policies"
	if p.ID != "" {
		op, method, path = "update policy", http.MethodPut, "/api/policies/"+url.PathEscape(p.ID)
	}
	var out models.Policy
	if err := c.send(ctx, op, method, path, &s, p, &out); err != nil {
		return models.Policy{}, err
	}
	c.cache.invalidate(c.baseURL + "/api/policies")
	if p.ID != "" {
		c.cache.invalidate(c.baseURL + path)
	}
	return out, nil
}

func (c *Client) DeletePolicy(ctx context.Context, s Session, id string) error {
	path := "/api/policies/" + url.PathEscape(id)
	if err := c.send(ctx, "delete policy", http.MethodDelete, path, &s, nil, nil); err != nil {
		return err
	}
	c.cache.invalidate(c.baseURL + "/api/policies")
	c.cache.invalidate(c.baseURL + path)
	return nil
}

// ---------------------------------------------------------------------------
// Claims
// ---------------------------------------------------------------------------

func (c *Client) SubmitClaim(ctx context.Context, s Session, req ClaimRequest) (Claim, error) {
	var out Claim
	err := c.send(ctx, "submit claim", http.MethodPost, "/api/claims", &s, req, &out)
	return out, err
}

// ListClaims returns the caller's claims, or every claim for an admin session.
func (c *Client) ListClaims(ctx context.Context, s Session) ([]Claim, error) {
	const op = "list claims"
	var raw json.RawMessage
	if err := c.send(ctx, op, http.MethodGet, "/api/claims", &s, nil, &raw); err != nil {
		return nil, err
	}
	claims, err := decodeClaimList(raw)
	if err != nil {
		return nil, &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return claims, nil
}

func decodeClaimList(body []byte) ([]Claim, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Claim
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}
	var env struct {
		Claims []Claim `json:"claims"`
	}
	err := json.Unmarshal(trimmed, &env)
	return env.Claims, err
}

func (c *Client) ClaimStatus(ctx context.Context, s Session, id string) (Claim, error) {
	var out Claim
	err := c.send(ctx, "claim status", http.MethodGet, "/api/claims/"+url.PathEscape(id), &s, nil, &out)
	return out, err
}

// DecideClaim approves or rejects a claim. Admin only.
func (c *Client) DecideClaim(ctx context.Context, s Session, id string, d Decision) (Claim, error) {
	const op = "decide claim"
	if d.Status != ClaimApproved && d.Status != ClaimRejected {
		return Claim{}, &Error{Kind: KindInvalid, Op: op, Message: fmt.Sprintf("status must be %q or %q", ClaimApproved, ClaimRejected)}
	}
	var out Claim
	err := c.send(ctx, op, http.MethodPut, "/api/claims/"+url.PathEscape(id)+"/status", &s, d, &out)
	return out, err
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// send performs one request with no retries.
func (c *Client) send(ctx context.Context, op, method, path string, s *Session, in, out interface{}) error {
	if s != nil && !s.Valid(c.now()) {
		return &Error{Kind: KindUnauthorized, Op: op, Message: "session expired"}
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindInvalid, Op: op, Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &Error{Kind: KindInvalid, Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req, s)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindDecode, Op: op, Err: err}
	}
	return nil
}

// getCached performs a public GET with conditional headers and bounded retry.
// When every attempt fails, a cached body younger than a day is served instead.
func (c *Client) getCached(ctx context.Context, op, path string) ([]byte, error) {
	rawURL := c.baseURL + path
	var lastErr error
	for attempt := 0; attempt <= len(c.delays); attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.delays[attempt-1]); err != nil {
				lastErr = &Error{Kind: KindNetwork, Op: op, Err: err}
				break
			}
		}

		body, err := c.fetch(ctx, op, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			return nil, err
		}
		logger.Warn("backend: retrying", logger.Fields{
			"op": op, "url": rawURL, "attempt": attempt + 1, "error": err.Error(),
		})
	}

	if body, ok := c.cache.stale(rawURL, c.now()); ok {
		logger.Warn("backend: serving stale cache", logger.Fields{"op": op, "url": rawURL})
		return body, nil
	}
	return nil, lastErr
}

func (c *Client) fetch(ctx context.Context, op, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Op: op, Err: err}
	}
	c.decorate(req, nil)

	entry, cached := c.cache.get(rawURL)
	if cached {
		if entry.ETag != "" {
			req.Header.Set("If-None-Match", entry.ETag)
		}
		if entry.LastModified != "" {
			req.Header.Set("If-Modified-Since", entry.LastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && cached {
		c.cache.notModified(entry)
		return entry.Body, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(op, resp.StatusCode, body)
	}

	c.cache.store(rawURL, &cacheEntry{
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		FetchedAt:    c.now(),
	}, cached)
	return body, nil
}

func (c *Client) decorate(req *http.Request, s *Session) {
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if s != nil && s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
}

func statusError(op string, status int, body []byte) *Error {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := payload.Message
	if msg == "" {
		msg = payload.Error
	}
	return &Error{Kind: kindForStatus(status), Op: op, Status: status, Message: msg}
}

// retryable covers network failures, 429 and 5xx.
func retryable(err error) bool {
	var be *Error
	if !errors.As(err, &be) {
		return false
	}
	switch be.Kind {
	case KindNetwork, KindServer:
		return !errors.Is(be.Err, context.Canceled) && !errors.Is(be.Err, context.DeadlineExceeded)
	}
	return be.Status == http.StatusTooManyRequests
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
