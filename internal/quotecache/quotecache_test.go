package quotecache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"insurez/internal/models"
)

func TestKey_NormalisesEquivalentInputs(t *testing.T) {
	a := models.PremiumInput{Age: 30, PolicyType: "Auto", SumAssured: 800000, PolicyTerm: 1,
		SmokingStatus: "Non-Smoker", OccupationRisk: "Low", Addons: []string{"Accident Cover", "Hospital Cash"}}
	b := models.PremiumInput{Age: 30, PolicyType: "motor", SumAssured: 800000, PolicyTerm: 1,
		SmokingStatus: "non-smoker", OccupationRisk: " low", Addons: []string{"hospital cash", "Accident Cover", "Accident Cover"}}

	if Key("v1", a) != Key("v1", b) {
		t.Error("equivalent inputs should share a key")
	}
	if !strings.HasPrefix(Key("v1", a), keyPrefix) {
		t.Errorf("missing prefix: %s", Key("v1", a))
	}
	if Key("v1", a) == Key("v2", a) {
		t.Error("rules version must be part of the key")
	}
	b.Age = 31
	if Key("v1", a) == Key("v1", b) {
		t.Error("different ages should not share a key")
	}
}

func TestMemory_GetSetAndExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute, 10)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss on empty cache")
	}
	want := models.PremiumResult{AnnualPremium: 1500, MonthlyPremium: 125}
	if err := c.Set(ctx, "k", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get(ctx, "k")
	if !ok || got != want {
		t.Fatalf("expected hit %+v, got %+v (ok=%v)", want, got, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemory_Bounded(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Hour, 3)
	for _, k := range []string{"a", "b", "c", "d"} {
		_ = c.Set(ctx, k, models.PremiumResult{AnnualPremium: 1})
	}
	if c.Len() > 3 {
		t.Errorf("expected at most 3 entries, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "d"); !ok {
		t.Error("latest entry should be present")
	}
}

func TestRedis_RoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	r := NewRedis(addr, time.Minute)
	defer r.Close()
	if err := r.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	want := models.PremiumResult{AnnualPremium: 1335, MonthlyPremium: 111, Breakdown: models.Breakdown{TermFactor: 1.5}}
	key := Key("test", models.PremiumInput{Age: 40, PolicyType: "Life"})
	if err := r.Set(ctx, key, want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := r.Get(ctx, key)
	if !ok || got != want {
		t.Fatalf("expected %+v, got %+v (ok=%v)", want, got, ok)
	}
}
