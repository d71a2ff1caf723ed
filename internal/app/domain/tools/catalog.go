package tools

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/helixlab/helixdash/internal/app/models"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// Catalog is the ordered, validated set of tools.
type Catalog struct {
	tools      []*models.Tool
	bySlug     map[string]*models.Tool
	categories []string
}

type catalogFile struct {
	Tools []models.Tool `yaml:"tools" validate:"required,min=1,dive"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// LoadCatalog reads the catalog at path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read tool catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog. Slugs must be unique and
// select params need at least one option.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tool catalog: %w", err)
	}
	if err := newValidator().Struct(file); err != nil {
		return nil, fmt.Errorf("invalid tool catalog: %w", err)
	}

	c := &Catalog{bySlug: make(map[string]*models.Tool, len(file.Tools))}
	seenCategory := make(map[string]bool)
	for i := range file.Tools {
		t := &file.Tools[i]
		if _, dup := c.bySlug[t.Slug]; dup {
			return nil, fmt.Errorf("invalid tool catalog: duplicate slug %q", t.Slug)
		}
		t.Method = strings.ToUpper(t.Method)
		if t.Method == "" {
			t.Method = "POST"
		}
		if t.Method == "GET" && t.Input != models.InputSequence {
			return nil, fmt.Errorf("invalid tool catalog: %q uses GET with %s input", t.Slug, t.Input)
		}
		for _, p := range t.Params {
			if p.Kind == models.ParamSelect && p.Default != "" && !slices.Contains(p.Options, p.Default) {
				return nil, fmt.Errorf("invalid tool catalog: %q param %q default %q is not an option",
					t.Slug, p.Name, p.Default)
			}
		}
		c.bySlug[t.Slug] = t
		c.tools = append(c.tools, t)
		if !seenCategory[t.Category] {
			seenCategory[t.Category] = true
			c.categories = append(c.categories, t.Category)
		}
	}
	return c, nil
}

// All returns the tools in catalog order.
func (c *Catalog) All() []*models.Tool { return c.tools }

func (c *Catalog) Len() int { return len(c.tools) }

// Get looks a tool up by slug.
func (c *Catalog) Get(slug string) (*models.Tool, error) {
	if t, ok := c.bySlug[slug]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tool %q: %w", slug, models.ErrNotFound)
}

// Category is one sidebar group.
type Category struct {
	Name  string
	Tools []*models.Tool
}

// ByCategory groups the tools, keeping the order in which categories first
// appear in the catalog.
func (c *Catalog) ByCategory() []Category {
	idx := make(map[string]int, len(c.categories))
	out := make([]Category, len(c.categories))
	for i, name := range c.categories {
		idx[name] = i
		out[i].Name = name
	}
	for _, t := range c.tools {
		i := idx[t.Category]
		out[i].Tools = append(out[i].Tools, t)
	}
	return out
}

// Sidebar implements domain.SidebarSource.
func (c *Catalog) Sidebar() []models.SidebarSection {
	groups := c.ByCategory()
	sections := make([]models.SidebarSection, 0, len(groups))
	for _, g := range groups {
		s := models.SidebarSection{Title: g.Name, Items: make([]models.NavItem, 0, len(g.Tools))}
		for _, t := range g.Tools {
			s.Items = append(s.Items, models.NavItem{Name: t.Name, URL: t.URL()})
		}
		sections = append(sections, s)
	}
	return sections
}

// Sequential returns the tools that take pasted sequence text and need no
// further input, the ones the workbench can fan out to.
func (c *Catalog) Sequential() []*models.Tool {
	var out []*models.Tool
	for _, t := range c.tools {
		if t.AcceptsSequence() && t.Input != models.InputPair && !t.FreeText() && t.Method != "GET" && !t.NeedsInput() {
			out = append(out, t)
		}
	}
	return out
}
