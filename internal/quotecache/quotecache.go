// Package quotecache memoises premium results by normalised input so repeated
// quotes skip the engine. Redis backs it in production, a map in tests and dev.
package quotecache

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"insurez/internal/models"
)

const keyPrefix = "insurez:quote:"

type Cache interface {
	Get(ctx context.Context, key string) (models.PremiumResult, bool)
	Set(ctx context.Context, key string, res models.PremiumResult) error
}

// Key hashes the fields that affect a premium, after normalisation, together
// with the rules version so a table change never serves stale numbers.
func Key(rulesVersion string, in models.PremiumInput) string {
	addons := make([]string, 0, len(in.Addons))
	seen := map[string]bool{}
	for _, a := range in.Addons {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		addons = append(addons, a)
	}
	sort.Strings(addons)

	var b strings.Builder
	b.WriteString(rulesVersion)
	b.WriteByte('|')
	b.WriteString(models.NormalizePolicyType(in.PolicyType))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(in.Age))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(in.SumAssured, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(in.PolicyTerm))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(in.SmokingStatus)))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(strings.TrimSpace(in.OccupationRisk)))
	b.WriteByte('|')
	b.WriteString(strings.Join(addons, ","))

	return keyPrefix + strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

// ---------------------------------------------------------------------------
// In-memory
// ---------------------------------------------------------------------------

type memEntry struct {
	res     models.PremiumResult
	expires time.Time
}

// Memory is a bounded TTL map. When full, expired entries are swept first and
// then the whole map is dropped.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemory(ttl time.Duration, max int) *Memory {
	if max <= 0 {
		max = 10000
	}
	return &Memory{ttl: ttl, max: max, entries: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (models.PremiumResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return models.PremiumResult{}, false
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		delete(m.entries, key)
		return models.PremiumResult{}, false
	}
	return e.res, true
}

func (m *Memory) Set(_ context.Context, key string, res models.PremiumResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.max {
		now := m.now()
		for k, e := range m.entries {
			if m.ttl > 0 && now.After(e.expires) {
				delete(m.entries, k)
			}
		}
		if len(m.entries) >= m.max {
			m.entries = make(map[string]memEntry)
		}
	}
	m.entries[key] = memEntry{res: res, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ---------------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------------

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(addr string, ttl time.Duration) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Redis{client: rdb, ttl: ttl}
}

// Ping checks connectivity at startup.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Get treats every failure (miss, network, bad payload) as a miss.
func (r *Redis) Get(ctx context.Context, key string) (models.PremiumResult, bool) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return models.PremiumResult{}, false
	}
	var res models.PremiumResult
	if err := json.Unmarshal(val, &res); err != nil {
		return models.PremiumResult{}, false
	}
	return res, true
}

func (r *Redis) Set(ctx context.Context, key string, res models.PremiumResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
