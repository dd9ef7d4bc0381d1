package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"insurez/internal/backend"
	"insurez/internal/catalog"
	"insurez/internal/format"
	"insurez/internal/logger"
	"insurez/internal/matcher"
	"insurez/internal/models"
	"insurez/internal/premium"
	"insurez/internal/quotecache"
	"insurez/internal/rules"
	sentryutil "insurez/internal/sentry"
)

var (
	depsMu        sync.RWMutex
	policyCatalog *catalog.Catalog = catalog.New(0)
	quotes        quotecache.Cache = quotecache.NewMemory(time.Hour, 10_000)
	backendClient *backend.Client
)

// SetCatalog replaces the policy catalog used by recommendations.
func SetCatalog(c *catalog.Catalog) {
	depsMu.Lock()
	policyCatalog = c
	depsMu.Unlock()
}

// SetQuoteCache replaces the premium quote cache.
func SetQuoteCache(c quotecache.Cache) {
	depsMu.Lock()
	quotes = c
	depsMu.Unlock()
}

// SetBackend sets the backend client used by the admin endpoints. A nil
// client disables them.
func SetBackend(c *backend.Client) {
	depsMu.Lock()
	backendClient = c
	depsMu.Unlock()
}

func getCatalog() *catalog.Catalog {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return policyCatalog
}

func getQuoteCache() quotecache.Cache {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return quotes
}

func getBackend() *backend.Client {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return backendClient
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
}

// PremiumHandler prices one policy. Identical inputs under the same rule
// version are served from the quote cache.
func PremiumHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	TrackAPICall()

	var in models.PremiumInput
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	if msg, ok := validatePremiumInput(in); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	quote, err := quotePremium(r.Context(), in)
	if err != nil {
		if errors.Is(err, premium.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sentryutil.CaptureError(err, map[string]string{"handler": "premium", "phase": "calculate"})
		writeError(w, http.StatusInternalServerError, "Premium calculation failed")
		return
	}

	IncrementCounter()
	noStore(w)
	writeJSON(w, http.StatusOK, quote)
}

// quotePremium prices in through the quote cache. Cache write failures are
// logged and otherwise ignored.
func quotePremium(ctx context.Context, in models.PremiumInput) (models.PremiumQuote, error) {
	table := rules.Default()
	cache := getQuoteCache()
	key := quotecache.Key(table.Version, in)

	res, cached := cache.Get(ctx, key)
	if !cached {
		var err error
		res, err = premium.New(table).Calculate(in)
		if err != nil {
			return models.PremiumQuote{}, err
		}
		if err := cache.Set(ctx, key, res); err != nil {
			logger.Warn("premium: quote cache write failed", logger.Fields{"error": err.Error()})
		}
	}

	return models.PremiumQuote{
		QuoteID:        uuid.NewString(),
		Input:          in,
		Result:         res,
		AnnualDisplay:  format.WholeRupees(res.AnnualPremium),
		MonthlyDisplay: format.WholeRupees(res.MonthlyPremium),
		RulesVersion:   table.Version,
		Cached:         cached,
	}, nil
}

type recommendRequest struct {
	Profile  *models.UserProfile `json:"profile"`
	Policies []models.Policy     `json:"policies,omitempty"`
	Type     string              `json:"type,omitempty"`
}

const maxSuppliedPolicies = 500

// RecommendHandler ranks policies for a profile. Callers may supply their own
// list; otherwise the catalog is used, optionally filtered by type.
func RecommendHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	TrackAPICall()
	TrackRecommendCall()

	var req recommendRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		sentryutil.CaptureError(err, map[string]string{"handler": "recommend", "phase": "decode"})
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	defer r.Body.Close()

	if req.Profile == nil {
		writeError(w, http.StatusBadRequest, "Missing profile")
		return
	}
	if msg, ok := validateProfile(*req.Profile); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if len(req.Policies) > maxSuppliedPolicies {
		writeError(w, http.StatusBadRequest, "Too many policies (max 500)")
		return
	}

	policies := req.Policies
	if policies == nil {
		policies = getCatalog().ByType(req.Type)
	}

	result := matcher.New(rules.Default()).Match(*req.Profile, policies)

	noStore(w)
	writeJSON(w, http.StatusOK, result)
}

type parsedPolicy struct {
	SumAssured float64 `json:"sumAssured"`
	Premium    float64 `json:"premium"`
	PolicyType string  `json:"policyType,omitempty"`
	Found      bool    `json:"found"`
}

// ParsePolicyHandler reads an uploaded policy schedule (PDF) and pulls out
// the sum assured, the premium and the policy type so the calculator form can
// be prefilled.
func ParsePolicyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Limit upload to 5MB
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "File too large (max 5MB)")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File not found")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sentryutil.CaptureError(err, map[string]string{"handler": "parse-policy", "phase": "read"})
		writeError(w, http.StatusInternalServerError, "Could not read file")
		return
	}

	if mime := http.DetectContentType(data); mime != "application/pdf" {
		writeError(w, http.StatusBadRequest, "Invalid format: only PDF files are accepted")
		return
	}

	noStore(w)

	text, err := pdfText(data)
	if err != nil {
		sentryutil.CaptureError(err, map[string]string{"handler": "parse-policy", "phase": "pdf-parse"})
		writeJSON(w, http.StatusOK, parsedPolicy{})
		return
	}

	writeJSON(w, http.StatusOK, extractPolicyFields(text))
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString(" ")
	}
	return sb.String(), nil
}

var (
	sumAssuredRe = regexp.MustCompile(`(?i)(?:sum\s+(?:assured|insured)|cover(?:age)?\s+amount|basic\s+cover)[^0-9]{0,20}([0-9][0-9,]*(?:\.\d+)?\s*(?:crores?|cr|lakhs?|lacs?)?)`)
	premiumRe    = regexp.MustCompile(`(?i)(?:total|annual|gross|net)?\s*premium(?:\s+payable|\s+amount)?[^0-9]{0,20}([0-9][0-9,]*(?:\.\d+)?\s*(?:lakhs?|lacs?)?)`)
	policyTypeRe = regexp.MustCompile(`(?i)\b(term|life|health|mediclaim|motor|car|two[- ]wheeler|home|travel|cyber)\s+(?:insurance|policy|plan|cover)`)
)

var scheduleTypes = map[string]string{
	"term":        models.TypeLife,
	"life":        models.TypeLife,
	"health":      models.TypeHealth,
	"mediclaim":   models.TypeHealth,
	"motor":       models.TypeMotor,
	"car":         models.TypeMotor,
	"two-wheeler": models.TypeMotor,
	"two wheeler": models.TypeMotor,
	"home":        models.TypeHome,
	"travel":      models.TypeTravel,
	"cyber":       models.TypeCyber,
}

func extractPolicyFields(text string) parsedPolicy {
	var out parsedPolicy
	if m := sumAssuredRe.FindStringSubmatch(text); m != nil {
		out.SumAssured = catalog.ParseAmount(m[1])
	}
	if m := premiumRe.FindStringSubmatch(text); m != nil {
		out.Premium = catalog.ParseAmount(m[1])
	}
	if m := policyTypeRe.FindStringSubmatch(text); m != nil {
		out.PolicyType = scheduleTypes[strings.ToLower(m[1])]
	}
	out.Found = out.SumAssured > 0 || out.Premium > 0
	return out
}

// StatsHandler returns the public usage counters.
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quotes":              GetCounter(),
		"policies":            len(getCatalog().All()),
		"rules_version":       rules.Default().Version,
		"last_update_display": getLastRefresh().Format("02 Jan 2006 15:04"),
		"generated_at":        now.Format(time.RFC3339),
	})
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
