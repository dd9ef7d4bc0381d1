package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"insurez/internal/backend"
	"insurez/internal/catalog"
	"insurez/internal/config"
	"insurez/internal/logger"
	"insurez/internal/models"
	"insurez/internal/quotecache"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard)
	dir, err := os.MkdirTemp("", "insurez-handlers")
	if err != nil {
		panic(err)
	}
	InitCounter(filepath.Join(dir, "counter.json"))
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func post(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func get(h http.HandlerFunc, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestPremiumHandler_Valid(t *testing.T) {
	SetQuoteCache(quotecache.NewMemory(time.Hour, 100))
	before := GetCounter()
	body := `{"age":30,"policyType":"life","sumAssured":1000000,"policyTerm":20,"smokingStatus":"Non-Smoker","occupationRisk":"Low"}`

	w := post(PremiumHandler, "/api/premium", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var q models.PremiumQuote
	if err := json.Unmarshal(w.Body.Bytes(), &q); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if q.Result.AnnualPremium != 1350 || q.Result.MonthlyPremium != 113 {
		t.Errorf("expected 1350/113, got %v/%v", q.Result.AnnualPremium, q.Result.MonthlyPremium)
	}
	if q.AnnualDisplay != "₹1,350" {
		t.Errorf("unexpected display %q", q.AnnualDisplay)
	}
	if q.QuoteID == "" || q.RulesVersion == "" || q.Cached {
		t.Errorf("unexpected envelope %+v", q)
	}
	if GetCounter() != before+1 {
		t.Errorf("expected counter to advance")
	}

	w = post(PremiumHandler, "/api/premium", body)
	var again models.PremiumQuote
	json.Unmarshal(w.Body.Bytes(), &again)
	if !again.Cached || again.Result.AnnualPremium != 1350 {
		t.Errorf("expected cached repeat, got %+v", again)
	}
	if again.QuoteID == q.QuoteID {
		t.Error("each quote should get its own id")
	}
}

func TestPremiumHandler_Invalid(t *testing.T) {
	tests := map[string]string{
		"under age":      `{"age":16,"policyType":"Life","sumAssured":100000,"policyTerm":10}`,
		"unknown type":   `{"age":30,"policyType":"Pet","sumAssured":100000,"policyTerm":10}`,
		"zero sum":       `{"age":30,"policyType":"Life","sumAssured":0,"policyTerm":10}`,
		"zero term":      `{"age":30,"policyType":"Life","sumAssured":100000,"policyTerm":0}`,
		"bad addon":      `{"age":30,"policyType":"Health","sumAssured":100000,"policyTerm":1,"addons":["Jetpack"]}`,
		"bad smoking":    `{"age":30,"policyType":"Health","sumAssured":100000,"policyTerm":1,"smokingStatus":"sometimes"}`,
		"bad occupation": `{"age":30,"policyType":"Health","sumAssured":100000,"policyTerm":1,"occupationRisk":"Extreme"}`,
		"bad body":       `{"age":`,
	}
	for name, body := range tests {
		w := post(PremiumHandler, "/api/premium", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, w.Code)
		}
	}

	w := get(PremiumHandler, "/api/premium")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", w.Code)
	}
}

func TestRecommendHandler_SuppliedPolicies(t *testing.T) {
	body := `{
		"profile": {"age":25,"primaryGoal":"Health protection","smokingStatus":"Non-Smoker","riskTolerance":"Medium","dependents":0},
		"policies": [
			{"id":"h","name":"Arogya","type":"health","premium":10000,"coverage_amount":500000},
			{"id":"t","name":"Trip Shield","type":"Travel","premium":3000,"coverage_amount":100000}
		]
	}`
	w := post(RecommendHandler, "/api/recommend", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res models.RecommendResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if res.Evaluated != 2 || res.Matched != 1 || len(res.Recommendations) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	top := res.Recommendations[0]
	if top.ID != "h" || top.Score != 70 || len(top.Reasons) != 2 {
		t.Errorf("unexpected top recommendation %+v", top)
	}
	if top.SmokerAnalysis == "" {
		t.Error("expected a smoker analysis note")
	}
}

func TestRecommendHandler_UsesCatalog(t *testing.T) {
	SetCatalog(catalog.New(time.Minute))
	w := post(RecommendHandler, "/api/recommend", `{"profile":{"age":40,"dependents":2,"primaryGoal":"Protect income"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res models.RecommendResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Evaluated != len(catalog.SeedPolicies()) {
		t.Errorf("expected the seed catalog to be evaluated, got %d", res.Evaluated)
	}
	if len(res.Recommendations) == 0 || res.Recommendations[0].Type != models.TypeLife {
		t.Errorf("expected a Life policy first, got %+v", res.Recommendations)
	}
}

func TestRecommendHandler_Invalid(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"profile":{"age":16}}`,
		`{"profile":{"age":30,"dependents":-1}}`,
		`{"profile":{"age":30,"riskTolerance":"Reckless"}}`,
	} {
		if w := post(RecommendHandler, "/api/recommend", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestCalculatorHandlers(t *testing.T) {
	w := get(CalculatorsHandler, "/api/calculators")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var list []map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list) != 18 {
		t.Errorf("expected 18 calculators, got %d", len(list))
	}

	w = post(CalculatorHandler, "/api/calculators/emi", `{"principal":100000,"annual_rate":10,"tenure_months":12}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res models.CalcResult
	json.Unmarshal(w.Body.Bytes(), &res)
	if res.Value != 8791.59 || res.Display != "₹8,791.59" {
		t.Errorf("unexpected emi %+v", res)
	}

	if w := post(CalculatorHandler, "/api/calculators/warp-drive", `{}`); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown calculator, got %d", w.Code)
	}
	if w := post(CalculatorHandler, "/api/calculators/bmi", `{"weight_kg":70}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing input, got %d", w.Code)
	}
	if w := post(CalculatorHandler, "/api/calculators/bmi", `{"weight_kg":"heavy"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric input, got %d", w.Code)
	}
}

func TestPolicyHandlers(t *testing.T) {
	SetCatalog(catalog.New(time.Minute))

	w := get(PolicyHandler, "/api/policies/?type=health")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var list struct {
		Count    int             `json:"count"`
		Policies []models.Policy `json:"policies"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if list.Count == 0 || list.Count != len(list.Policies) {
		t.Fatalf("unexpected list %+v", list)
	}
	for _, p := range list.Policies {
		if p.Type != models.TypeHealth {
			t.Errorf("filter leaked %s", p.Type)
		}
	}

	if w := get(PolicyHandler, "/api/policies/seed-life-term-shield"); w.Code != http.StatusOK {
		t.Errorf("expected seed policy, got %d", w.Code)
	}
	if w := get(PolicyHandler, "/api/policies/nope"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestEncodeDecodeProfile(t *testing.T) {
	profile := `{"age":34,"employmentLevel":"Mid Career","familyStatus":"Married with Children","dependents":2,"primaryGoal":"Protect income","riskTolerance":"Medium","smokingStatus":"Non-Smoker"}`
	w := post(EncodeProfileHandler, "/api/profile/encode", profile)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var enc map[string]string
	json.Unmarshal(w.Body.Bytes(), &enc)
	code := enc["code"]
	if !strings.HasPrefix(code, codePrefix) {
		t.Fatalf("unexpected code %q", code)
	}

	w = get(DecodeProfileHandler, "/api/profile/decode?code="+code)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got models.UserProfile
	json.Unmarshal(w.Body.Bytes(), &got)
	want := models.UserProfile{Age: 34, EmploymentLevel: "Mid Career", FamilyStatus: "Married with Children",
		Dependents: 2, PrimaryGoal: "Protect income", RiskTolerance: "Medium", SmokingStatus: "Non-Smoker"}
	if got != want {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}

	for _, bad := range []string{"", "XYZ-abc", codePrefix + "!!!", codePrefix + "bm90IGpzb24"} {
		if w := get(DecodeProfileHandler, "/api/profile/decode?code="+bad); w.Code != http.StatusBadRequest {
			t.Errorf("code %q: expected 400, got %d", bad, w.Code)
		}
	}
}

func TestHealthDetailedHandler(t *testing.T) {
	w := get(HealthDetailedHandler, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result["status"] != "ok" || result["uptime_human"] == nil || result["rules_version"] == "" {
		t.Errorf("unexpected health body %v", result)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{2*time.Minute + 3*time.Second, "2m 3s"},
		{26*time.Hour + 4*time.Minute, "26h 4m 0s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v): expected %q, got %q", tt.d, tt.want, got)
		}
	}
}

func TestNotFoundHandler(t *testing.T) {
	w := get(NotFoundHandler, "/api/nothing")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("expected JSON 404, got %d %q", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2, time.Minute)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}

	if call("/api/x", "1.1.1.1") != http.StatusNoContent || call("/api/x", "1.1.1.1") != http.StatusNoContent {
		t.Fatal("burst should allow two requests")
	}
	if code := call("/api/x", "1.1.1.1"); code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", code)
	}
	if code := call("/api/x", "2.2.2.2"); code != http.StatusNoContent {
		t.Errorf("other clients should be unaffected, got %d", code)
	}
	if code := call("/", "1.1.1.1"); code != http.StatusNoContent {
		t.Errorf("non-API paths are not limited, got %d", code)
	}

	now = now.Add(time.Minute)
	if code := call("/api/x", "1.1.1.1"); code != http.StatusNoContent {
		t.Errorf("expected refill after one interval, got %d", code)
	}
}

func TestExtractPolicyFields(t *testing.T) {
	text := "POLICY SCHEDULE Health Insurance Policy Policy No. 12/3456 Sum Insured: Rs. 5,00,000 " +
		"Period: 12 months Total Premium Rs. 12,450.00 (inclusive of GST)"
	got := extractPolicyFields(text)
	if got.SumAssured != 500_000 || got.Premium != 12_450 || got.PolicyType != models.TypeHealth || !got.Found {
		t.Errorf("unexpected fields %+v", got)
	}

	got = extractPolicyFields("Term Plan Sum Assured 1 Crore Annual Premium ₹14,200")
	if got.SumAssured != 10_000_000 || got.Premium != 14_200 {
		t.Errorf("unexpected fields %+v", got)
	}

	if got := extractPolicyFields("nothing useful here"); got.Found {
		t.Errorf("expected not found, got %+v", got)
	}
}

func TestParsePolicyHandler_RejectsNonPDF(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "schedule.txt")
	fw.Write([]byte("Sum Insured 5,00,000"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/parse-policy", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ParsePolicyHandler(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a text upload, got %d", w.Code)
	}
}

func TestReportHandler(t *testing.T) {
	SetCatalog(catalog.New(time.Minute))
	body := `{
		"profile": {"age":34,"dependents":2,"familyStatus":"Married with Children","primaryGoal":"Protect income","smokingStatus":"Smoker"},
		"premium": {"age":34,"policyType":"Life","sumAssured":10000000,"policyTerm":25,"smokingStatus":"Smoker","occupationRisk":"Medium","addons":["Critical Illness"]}
	}`
	w := post(ReportHandler, "/api/report", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("unexpected disposition %q", cd)
	}

	if w := post(ReportHandler, "/api/report", `{"profile":{"age":12}}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid profile, got %d", w.Code)
	}
}

func TestPdfSafe(t *testing.T) {
	if got := pdfSafe("₹1,350 – “cover”"); got != `Rs. 1,350 - "cover"` {
		t.Errorf("unexpected %q", got)
	}
}

func withBackend(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	SetBackend(backend.New(srv.URL, backend.WithRetryDelays(0)))
	t.Cleanup(func() {
		SetBackend(nil)
		srv.Close()
	})
	return srv
}

func TestClaimsHandler(t *testing.T) {
	withBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/claims":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"_id":"c1","policy_id":"p1","amount":25000}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/claims/c1":
			w.Write([]byte(`{"id":"c1","status":"approved"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/claims/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/api/claims", strings.NewReader(`{"policy_id":"p1","amount":25000,"description":"hospital stay"}`))
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	ClaimsHandler(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var claim backend.Claim
	json.Unmarshal(w.Body.Bytes(), &claim)
	if claim.ID != "c1" || claim.Status != backend.ClaimPending {
		t.Errorf("unexpected claim %+v", claim)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/claims/c1", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w = httptest.NewRecorder()
	ClaimHandler(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"approved"`) {
		t.Errorf("unexpected status response %d %s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/claims/missing", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w = httptest.NewRecorder()
	ClaimHandler(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected backend 404 to pass through, got %d", w.Code)
	}

	w = get(ClaimsHandler, "/api/claims")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}

func TestClaimsHandler_NoBackend(t *testing.T) {
	SetBackend(nil)
	if w := get(ClaimsHandler, "/api/claims"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a backend, got %d", w.Code)
	}
}

func TestAdminRoutes(t *testing.T) {
	var decided backend.Decision
	var deleted string
	withBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/api/claims/c9/status":
			json.NewDecoder(r.Body).Decode(&decided)
			w.Write([]byte(`{"id":"c9","status":"` + decided.Status + `","fraud_score":0.82,"admin_note":"` + decided.Note + `"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/claims":
			w.Write([]byte(`{"claims":[{"id":"c9","amount":90000,"fraud_score":0.82}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/policies":
			w.Write([]byte(`{"id":"new1","policy_name":"Fresh Cover","category":"Home","premium":4000}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/policies/old1":
			deleted = "old1"
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	})

	prev := config.Cfg.AdminAPIKey
	t.Cleanup(func() { config.Cfg.AdminAPIKey = prev })

	do := func(h http.HandlerFunc, method, path, key, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer admin-token")
		if key != "" {
			req.Header.Set("X-Admin-Key", key)
		}
		w := httptest.NewRecorder()
		RequireAdmin(h)(w, req)
		return w
	}

	config.Cfg.AdminAPIKey = ""
	if w := do(AdminClaimsHandler, http.MethodGet, "/api/admin/claims", "anything", ""); w.Code != http.StatusNotFound {
		t.Errorf("admin routes should be hidden without a key, got %d", w.Code)
	}

	config.Cfg.AdminAPIKey = "s3cret"
	if w := do(AdminClaimsHandler, http.MethodGet, "/api/admin/claims", "wrong", ""); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for a wrong key, got %d", w.Code)
	}

	w := do(AdminClaimsHandler, http.MethodGet, "/api/admin/claims", "s3cret", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var claims []backend.Claim
	json.Unmarshal(w.Body.Bytes(), &claims)
	if len(claims) != 1 || claims[0].FraudScore == nil || *claims[0].FraudScore != 0.82 {
		t.Errorf("expected fraud score to pass through, got %+v", claims)
	}

	w = do(AdminClaimDecisionHandler, http.MethodPut, "/api/admin/claims/c9/decision", "s3cret", `{"status":"Approved","note":"docs ok"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decided.Status != backend.ClaimApproved || decided.Note != "docs ok" {
		t.Errorf("unexpected decision sent %+v", decided)
	}

	w = do(AdminClaimDecisionHandler, http.MethodPut, "/api/admin/claims/c9/decision", "s3cret", `{"status":"maybe"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown verdict, got %d", w.Code)
	}

	w = do(AdminPoliciesHandler, http.MethodPost, "/api/admin/policies", "s3cret", `{"name":"Fresh Cover","type":"Home","premium":4000}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"new1"`) {
		t.Errorf("unexpected create response %d %s", w.Code, w.Body.String())
	}

	w = do(AdminPoliciesHandler, http.MethodDelete, "/api/admin/policies/old1", "s3cret", "")
	if w.Code != http.StatusNoContent || deleted != "old1" {
		t.Errorf("unexpected delete response %d (deleted %q)", w.Code, deleted)
	}
}

func TestLoginHandler(t *testing.T) {
	withBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"bad credentials"}`))
			return
		}
		w.Write([]byte(`{"token":"tok","user":{"_id":"u1","name":"Asha","role":"user"}}`))
	})

	w := post(LoginHandler, "/api/auth/login", `{"email":"a@example.in","password":"pw"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var s backend.Session
	json.Unmarshal(w.Body.Bytes(), &s)
	if s.Token != "tok" || s.User.ID != "u1" {
		t.Errorf("unexpected session %+v", s)
	}

	if w := post(LoginHandler, "/api/auth/login", `{"email":"a@example.in","password":"nope"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if w := post(LoginHandler, "/api/auth/login", `{"email":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestGuideHandlers_Empty(t *testing.T) {
	w := get(GuidesHandler, "/api/guides")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w := get(GuideHandler, "/api/guides/does-not-exist"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
