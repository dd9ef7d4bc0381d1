// Package catalog keeps the in-memory policy list used for recommendations.
// It starts from a built-in seed and is refreshed on a schedule from the
// backend and from provider pages, each source behind its own circuit breaker.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"insurez/internal/logger"
	"insurez/internal/models"
	sentryutil "insurez/internal/sentry"
)

// SourceStatus is the outcome of the last fetch from one source.
type SourceStatus struct {
	LastFetch    time.Time `json:"last_fetch"`
	Success      bool      `json:"success"`
	PoliciesSeen int       `json:"policies_found"`
	Error        string    `json:"error,omitempty"`
}

// Status is the public snapshot served by the catalog-status endpoint.
type Status struct {
	LastRun     time.Time                `json:"last_run"`
	NextRun     time.Time                `json:"next_run"`
	PolicyCount int                      `json:"policy_count"`
	UpdateCount int                      `json:"update_count"`
	Seeded      bool                     `json:"seeded"`
	Sources     map[string]SourceStatus  `json:"sources"`
	Circuits    map[string]SourceCircuit `json:"circuits"`
}

type Catalog struct {
	sources  []Source
	interval time.Duration
	breakers *breakers
	now      func() time.Time

	mu          sync.RWMutex
	policies    []models.Policy
	lastGood    map[string][]models.Policy
	status      map[string]SourceStatus
	lastUpdate  time.Time
	updateCount int
	seeded      bool

	// OnRefresh, if set, is called after every refresh cycle.
	OnRefresh func(time.Time)
}

// New returns a catalog holding the seed list. interval is the refresh period
// and also scales how long an open circuit stays open.
func New(interval time.Duration, sources ...Source) *Catalog {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Catalog{
		sources:  sources,
		interval: interval,
		breakers: newBreakers(time.Now),
		now:      time.Now,
		policies: SeedPolicies(),
		lastGood: make(map[string][]models.Policy),
		status:   make(map[string]SourceStatus),
		seeded:   true,
	}
}

// Start runs one refresh immediately and then one per interval until ctx ends.
func (c *Catalog) Start(ctx context.Context) {
	go func() {
		c.Refresh(ctx)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Refresh(ctx)
			}
		}
	}()
}

// Refresh polls every source. A failing source contributes its last good
// result. When no source has ever produced anything, the seed list stays.
func (c *Catalog) Refresh(ctx context.Context) {
	logger.Info("catalog: starting refresh", logger.Fields{"sources": len(c.sources)})

	for _, src := range c.sources {
		name := src.Name()
		if c.breakers.skip(name) {
			logger.Info("catalog: skipping (circuit open)", logger.Fields{"source": name})
			continue
		}

		policies, err := c.fetch(ctx, src)
		st := SourceStatus{LastFetch: c.now()}
		if err != nil {
			logger.Error("catalog: fetch error", logger.Fields{"source": name, "error": err.Error()})
			c.breakers.failure(name, c.interval)
			st.Error = err.Error()
			c.mu.Lock()
			c.status[name] = st
			c.mu.Unlock()
			continue
		}

		st.Success = true
		st.PoliciesSeen = len(policies)
		if len(policies) == 0 {
			st.Error = "no policies found"
			sentryutil.CaptureMessage(fmt.Sprintf("catalog: 0 policies from %s", name),
				sentryutil.LevelWarning(), map[string]string{"source": name})
		}
		c.breakers.success(name)

		c.mu.Lock()
		c.status[name] = st
		if len(policies) > 0 {
			c.lastGood[name] = policies
		}
		c.mu.Unlock()
		logger.Info("catalog: source complete", logger.Fields{"source": name, "found": len(policies)})
	}

	c.mu.Lock()
	merged := c.merge()
	if len(merged) > 0 {
		c.policies = merged
		c.seeded = false
	}
	c.lastUpdate = c.now()
	c.updateCount++
	count, cycle := len(c.policies), c.updateCount
	c.mu.Unlock()

	logger.Info("catalog: refresh complete", logger.Fields{"total": count, "cycle": cycle})
	if c.OnRefresh != nil {
		c.OnRefresh(c.now())
	}
}

func (c *Catalog) fetch(ctx context.Context, src Source) (policies []models.Policy, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return src.Fetch(ctx)
}

// merge combines the last good results in source order. The first source to
// supply an id wins. Callers hold c.mu.
func (c *Catalog) merge() []models.Policy {
	var out []models.Policy
	seen := map[string]bool{}
	for _, src := range c.sources {
		for _, p := range c.lastGood[src.Name()] {
			key := p.ID
			if key == "" {
				key = strings.ToLower(p.Provider + "|" + p.Name)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			p.Type = models.NormalizePolicyType(p.Type)
			out = append(out, p)
		}
	}
	return out
}

// All returns a copy of the current list.
func (c *Catalog) All() []models.Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Policy, len(c.policies))
	copy(out, c.policies)
	return out
}

// ByType filters by normalised policy type; an empty type returns everything.
func (c *Catalog) ByType(policyType string) []models.Policy {
	all := c.All()
	if strings.TrimSpace(policyType) == "" {
		return all
	}
	want := models.NormalizePolicyType(policyType)
	var out []models.Policy
	for _, p := range all {
		if strings.EqualFold(p.Type, want) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Get(id string) (models.Policy, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.policies {
		if p.ID == id {
			return p, true
		}
	}
	return models.Policy{}, false
}

// Types lists the distinct policy types currently in the catalog.
func (c *Catalog) Types() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.All() {
		if p.Type != "" && !seen[p.Type] {
			seen[p.Type] = true
			out = append(out, p.Type)
		}
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Status() Status {
	c.mu.RLock()
	sources := make(map[string]SourceStatus, len(c.status))
	for k, v := range c.status {
		sources[k] = v
	}
	st := Status{
		LastRun:     c.lastUpdate,
		PolicyCount: len(c.policies),
		UpdateCount: c.updateCount,
		Seeded:      c.seeded,
		Sources:     sources,
	}
	c.mu.RUnlock()

	if !st.LastRun.IsZero() {
		st.NextRun = st.LastRun.Add(c.interval)
	}
	st.Circuits = c.breakers.snapshot()
	return st
}
