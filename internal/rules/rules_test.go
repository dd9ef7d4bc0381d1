package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_EmbeddedTable(t *testing.T) {
	tbl := Default()
	if tbl.Version == "" {
		t.Fatal("embedded table has no version")
	}
	if tbl.Premium.BaseRates["Health"] != 1.2 {
		t.Errorf("expected Health base rate 1.2, got %v", tbl.Premium.BaseRates["Health"])
	}
	if tbl.Premium.AddonLoadings["Critical Illness"] != 0.15 {
		t.Errorf("expected Critical Illness loading 0.15, got %v", tbl.Premium.AddonLoadings["Critical Illness"])
	}
	if len(tbl.Premium.AgeBands) != 5 {
		t.Errorf("expected 5 premium age bands, got %d", len(tbl.Premium.AgeBands))
	}
	goal, ok := tbl.Recommendation.Goals["Protect assets/vehicle"]
	if !ok || goal.Points["Motor"] != 40 || goal.Points["Home"] != 40 {
		t.Errorf("unexpected assets goal: %+v", goal)
	}
	if tbl.Recommendation.MaxResults != 5 || tbl.Recommendation.MaxReasons != 2 {
		t.Errorf("unexpected limits: %+v", tbl.Recommendation)
	}
}

func TestParse_RejectsInvalidTable(t *testing.T) {
	_, err := Parse([]byte("version: \"\"\npremium:\n  term_divisor: 0\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"version", "base_rates", "term_divisor", "max_results", "max_reasons"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
}

func TestParse_RequiresMaxReasons(t *testing.T) {
	if !strings.Contains(string(defaultTable), "  max_reasons: 2\n") {
		t.Fatal("embedded table layout changed")
	}
	without := strings.Replace(string(defaultTable), "  max_reasons: 2\n", "", 1)
	_, err := Parse([]byte(without))
	if err == nil {
		t.Fatal("expected a table without max_reasons to be rejected")
	}
	if !strings.Contains(err.Error(), "max_reasons") {
		t.Errorf("error %q should mention max_reasons", err)
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("version: [unterminated")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAgeBandRule_Matches(t *testing.T) {
	open := AgeBandRule{Min: 51}
	if !open.Matches(90) || open.Matches(50) {
		t.Error("open-ended band should match 90 but not 50")
	}
	closed := AgeBandRule{Min: 18, Max: 30}
	if !closed.Matches(30) || closed.Matches(31) || closed.Matches(17) {
		t.Error("closed band boundaries wrong")
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold([]string{"Early Career"}, " early career ") {
		t.Error("expected case-insensitive match")
	}
	if ContainsFold(nil, "x") {
		t.Error("nil list should not match")
	}
}

func TestLoadFile_ReplacesActiveTable(t *testing.T) {
	prev := Default()
	defer func() {
		mu.Lock()
		current = prev
		mu.Unlock()
	}()

	path := filepath.Join(t.TempDir(), "rules.yaml")
	custom := strings.Replace(string(defaultTable), `version: "2026.10.1"`, `version: "test-override"`, 1)
	if err := os.WriteFile(path, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if Default().Version != "test-override" {
		t.Errorf("expected override active, got %s", Default().Version)
	}
}
