package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"insurez/internal/backend"
	"insurez/internal/models"
)

// Source supplies policies to the catalog.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Policy, error)
}

// BackendSource lists policies from the backend REST API.
type BackendSource struct {
	Client *backend.Client
}

func (s *BackendSource) Name() string { return "backend" }

func (s *BackendSource) Fetch(ctx context.Context) ([]models.Policy, error) {
	return s.Client.ListPolicies(ctx)
}

// ProviderPage scrapes the policy table on an insurer's public plans page.
type ProviderPage struct {
	URL       string
	Client    *http.Client
	UserAgent string
}

func (s *ProviderPage) Name() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Hostname() == "" {
		return s.URL
	}
	return u.Hostname()
}

func (s *ProviderPage) Fetch(ctx context.Context) ([]models.Policy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept-Language", "en-IN,en;q=0.9")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, s.URL)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil, err
	}
	return ParseProviderTable(body, s.Name())
}

// column roles recognised in a table header.
const (
	colName     = "name"
	colType     = "type"
	colCoverage = "coverage"
	colPremium  = "premium"
	colDuration = "duration"
	colProvider = "provider"
)

var headerRoles = []struct {
	role     string
	keywords []string
}{
	{colType, []string{"type", "category"}},
	{colCoverage, []string{"cover", "sum insured", "sum assured"}},
	{colPremium, []string{"premium", "price", "cost"}},
	{colDuration, []string{"term", "duration", "tenure", "period"}},
	{colProvider, []string{"insurer", "provider", "company"}},
	{colName, []string{"plan", "policy", "name", "product"}},
}

// headerRole matches in table order, so "Policy Type" is a type column and
// "Policy Term" a duration column.
func headerRole(text string) string {
	lower := strings.ToLower(text)
	for _, hr := range headerRoles {
		for _, kw := range hr.keywords {
			if strings.Contains(lower, kw) {
				return hr.role
			}
		}
	}
	return ""
}

// ParseProviderTable reads every <table> whose header names at least a plan
// column and a premium column. Rows without a name or a premium are skipped.
func ParseProviderTable(body []byte, provider string) ([]models.Policy, error) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	var policies []models.Policy
	seen := map[string]bool{}

	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			for _, p := range parseTable(n, provider) {
				if seen[p.ID] {
					continue
				}
				seen[p.ID] = true
				policies = append(policies, p)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return policies, nil
}

func parseTable(table *html.Node, provider string) []models.Policy {
	rows := collectRows(table)
	if len(rows) < 2 {
		return nil
	}

	roles := make([]string, len(rows[0]))
	hasName, hasPremium := false, false
	for i, cell := range rows[0] {
		roles[i] = headerRole(cell)
		hasName = hasName || roles[i] == colName
		hasPremium = hasPremium || roles[i] == colPremium
	}
	if !hasName || !hasPremium {
		return nil
	}

	var out []models.Policy
	for _, row := range rows[1:] {
		p := models.Policy{Provider: provider}
		for i, cell := range row {
			if i >= len(roles) {
				break
			}
			switch roles[i] {
			case colName:
				p.Name = cell
			case colType:
				p.Type = models.NormalizePolicyType(cell)
			case colCoverage:
				p.CoverageAmount = ParseAmount(cell)
			case colPremium:
				p.Premium = ParseAmount(cell)
			case colDuration:
				p.DurationMonths = parseDurationMonths(cell)
			case colProvider:
				if cell != "" {
					p.Provider = cell
				}
			}
		}
		if p.Name == "" || p.Premium <= 0 {
			continue
		}
		if p.Type == "" {
			p.Type = guessType(p.Name)
		}
		p.ID = slugify(p.Provider + "-" + p.Name)
		out = append(out, p)
	}
	return out
}

// collectRows flattens <tr> elements into trimmed cell text, th and td alike.
func collectRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" && n != table {
			return
		}
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					cells = append(cells, strings.Join(strings.Fields(textContent(c)), " "))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

var (
	amountRe   = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(crore|cr|lakhs?|lacs?|l|k)?\b`)
	durationRe = regexp.MustCompile(`(?i)(\d+)\s*(years?|yrs?|months?|mos?|days?)`)
)

// ParseAmount reads the first rupee amount in s, honouring Indian groupings
// and the lakh and crore suffixes: "₹5,00,000", "50 lakh", "1.5 Cr".
func ParseAmount(s string) float64 {
	m := amountRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(m[2]) {
	case "crore", "cr":
		v *= 10_000_000
	case "lakh", "lakhs", "lac", "lacs", "l":
		v *= 100_000
	case "k":
		v *= 1000
	}
	return v
}

func parseDurationMonths(s string) int {
	m := durationRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	unit := strings.ToLower(m[2])
	switch {
	case strings.HasPrefix(unit, "y"):
		return n * 12
	case strings.HasPrefix(unit, "d"):
		if n < 30 {
			return 1
		}
		return n / 30
	default:
		return n
	}
}

var typeKeywords = []struct {
	policyType string
	words      []string
}{
	{models.TypeLife, []string{"term", "life", "endowment", "ulip"}},
	{models.TypeHealth, []string{"health", "mediclaim", "floater", "care", "medical"}},
	{models.TypeMotor, []string{"car", "motor", "bike", "wheeler", "vehicle"}},
	{models.TypeHome, []string{"home", "griha", "property", "householder"}},
	{models.TypeTravel, []string{"travel", "trip"}},
	{models.TypeCyber, []string{"cyber"}},
}

// guessType infers a type from whole words of the plan name.
func guessType(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	})
	for _, tk := range typeKeywords {
		for _, w := range words {
			for _, kw := range tk.words {
				if w == kw {
					return tk.policyType
				}
			}
		}
	}
	return ""
}

func slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, s)
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
