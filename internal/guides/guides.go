// Package guides serves the markdown explainers (how premiums work, what a
// rider is, claim checklists) rendered to HTML at load time.
package guides

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"insurez/internal/models"
)

// Guide is one article. Body is the rendered HTML.
type Guide struct {
	Slug        string    `yaml:"slug" json:"slug"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description" json:"description"`
	Date        time.Time `yaml:"date" json:"date"`
	PolicyTypes []string  `yaml:"policy_types" json:"policyTypes,omitempty"`
	Tags        []string  `yaml:"tags" json:"tags,omitempty"`
	Author      string    `yaml:"author" json:"author,omitempty"`
	HTMLContent string    `yaml:"-" json:"html,omitempty"`
}

// Summary drops the body for list responses.
func (g Guide) Summary() Guide {
	g.HTMLContent = ""
	return g
}

var (
	guides []Guide
	mu     sync.RWMutex
)

// LoadAll reads every .md file in dir and replaces the loaded set, newest
// first. Files that fail to parse are skipped and reported in the returned
// error alongside a successful load of the rest.
func LoadAll(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var loaded []Guide
	var bad []string

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			bad = append(bad, e.Name())
			continue
		}
		g, err := Parse(data, md)
		if err != nil {
			bad = append(bad, e.Name())
			continue
		}
		if g.Slug == "" {
			g.Slug = strings.TrimSuffix(e.Name(), ".md")
		}
		loaded = append(loaded, g)
	}

	sort.SliceStable(loaded, func(i, j int) bool {
		return loaded[i].Date.After(loaded[j].Date)
	})

	mu.Lock()
	guides = loaded
	mu.Unlock()

	if len(bad) > 0 {
		return fmt.Errorf("guides: skipped %s", strings.Join(bad, ", "))
	}
	return nil
}

// Parse splits YAML frontmatter from the markdown body and renders the body.
func Parse(data []byte, md goldmark.Markdown) (Guide, error) {
	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")

	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 || strings.TrimSpace(parts[0]) != "" {
		return Guide{}, fmt.Errorf("invalid frontmatter")
	}

	var g Guide
	if err := yaml.Unmarshal([]byte(parts[1]), &g); err != nil {
		return Guide{}, err
	}
	if g.Title == "" {
		return Guide{}, fmt.Errorf("missing title")
	}
	for i, t := range g.PolicyTypes {
		g.PolicyTypes[i] = models.NormalizePolicyType(t)
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(strings.TrimSpace(parts[2])), &buf); err != nil {
		return Guide{}, err
	}
	g.HTMLContent = buf.String()
	return g, nil
}

// GetAll returns every guide, newest first.
func GetAll() []Guide {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Guide, len(guides))
	copy(out, guides)
	return out
}

func GetBySlug(slug string) (Guide, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, g := range guides {
		if g.Slug == slug {
			return g, true
		}
	}
	return Guide{}, false
}

// GetByPolicyType returns guides tagged with the (normalised) policy type.
func GetByPolicyType(policyType string) []Guide {
	want := models.NormalizePolicyType(policyType)
	mu.RLock()
	defer mu.RUnlock()
	var out []Guide
	for _, g := range guides {
		for _, t := range g.PolicyTypes {
			if strings.EqualFold(t, want) {
				out = append(out, g)
				break
			}
		}
	}
	return out
}
