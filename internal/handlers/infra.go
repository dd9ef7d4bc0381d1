package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"insurez/internal/guides"
	"insurez/internal/rules"
)

// ---------- Startup time for uptime ----------

var startTime = time.Now()

// ---------- Last catalog refresh ----------

var (
	lastRefreshTime time.Time
	lastRefreshMu   sync.RWMutex
)

// SetLastRefresh records the time of the most recent catalog refresh.
func SetLastRefresh(t time.Time) {
	lastRefreshMu.Lock()
	lastRefreshTime = t
	lastRefreshMu.Unlock()
}

// getLastRefresh falls back to server start time before the first refresh.
func getLastRefresh() time.Time {
	lastRefreshMu.RLock()
	defer lastRefreshMu.RUnlock()
	if lastRefreshTime.IsZero() {
		return startTime
	}
	return lastRefreshTime
}

// ---------- Usage counters ----------

type analyticsStore struct {
	mu             sync.Mutex
	apiCalls       int64
	recommendCalls int64
	dailyCalls     map[string]int64 // date -> count
}

var analytics = &analyticsStore{
	dailyCalls: make(map[string]int64),
}

// TrackAPICall increments the API call counter.
func TrackAPICall() {
	atomic.AddInt64(&analytics.apiCalls, 1)
	analytics.mu.Lock()
	analytics.dailyCalls[time.Now().Format("2006-01-02")]++
	analytics.mu.Unlock()
}

func TrackRecommendCall() {
	atomic.AddInt64(&analytics.recommendCalls, 1)
}

// AnalyticsHandler returns aggregated usage counters. No per-user data is kept.
func AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	analytics.mu.Lock()
	daily := make(map[string]int64, len(analytics.dailyCalls))
	for k, v := range analytics.dailyCalls {
		daily[k] = v
	}
	analytics.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"api_calls":       atomic.LoadInt64(&analytics.apiCalls),
		"recommend_calls": atomic.LoadInt64(&analytics.recommendCalls),
		"quotes":          GetCounter(),
		"daily_calls":     daily,
		"uptime_sec":      int(time.Since(startTime).Seconds()),
	})
}

// ---------- Health ----------

// HealthDetailedHandler returns uptime plus the state of every dependency.
func HealthDetailedHandler(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(startTime)
	cat := getCatalog()

	body := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(uptime.Seconds()),
		"uptime_human":   formatDuration(uptime),
		"rules_version":  rules.Default().Version,
		"policy_count":   len(cat.All()),
		"catalog_seeded": cat.Status().Seeded,
		"guides":         len(guides.GetAll()),
		"quotes":         GetCounter(),
		"last_refresh":   getLastRefresh().Format(time.RFC3339),
	}
	if c := getBackend(); c != nil {
		body["backend"] = map[string]interface{}{
			"url":   c.BaseURL(),
			"cache": c.CacheStats(),
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// CatalogStatusHandler returns per-source refresh and circuit state.
func CatalogStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, getCatalog().Status())
}

// RulesHandler exposes the active rule table so clients can render the same
// addon list and age bands the engine uses.
func RulesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	t := rules.Default()
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":     t.Version,
		"policyTypes": policyTypes(t),
		"addons":      t.Premium.AddonLoadings,
		"occupations": t.Premium.OccupationMultipliers,
		"ageBands":    t.Premium.AgeBands,
	})
}

func policyTypes(t *rules.Table) []string {
	out := make([]string, 0, len(t.Premium.BaseRates))
	for name := range t.Premium.BaseRates {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
