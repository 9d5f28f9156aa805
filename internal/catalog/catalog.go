// Package catalog is the care-symbol encyclopedia shipped with the binary.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Category groups related symbols.
type Category struct {
	Name  string `yaml:"name" json:"name"`
	Title string `yaml:"title" json:"title"`
}

// Entry is one care symbol. Detail is markdown.
type Entry struct {
	Code        string `yaml:"code" json:"code"`
	Category    string `yaml:"category" json:"category"`
	Description string `yaml:"description" json:"description"`
	Detail      string `yaml:"detail" json:"detail"`
}

type document struct {
	Categories []Category `yaml:"categories"`
	Symbols    []Entry    `yaml:"symbols"`
}

// Catalog is an immutable, indexed symbol table.
type Catalog struct {
	categories []Category
	entries    []Entry
	byCode     map[string]int
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that treat a broken embed as a build bug.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse builds a catalog from YAML. Codes must be unique and every symbol
// must reference a declared category.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	known := make(map[string]bool, len(doc.Categories))
	for _, c := range doc.Categories {
		known[c.Name] = true
	}

	c := &Catalog{
		categories: doc.Categories,
		entries:    make([]Entry, 0, len(doc.Symbols)),
		byCode:     make(map[string]int, len(doc.Symbols)),
	}
	for _, e := range doc.Symbols {
		e.Code = strings.TrimSpace(e.Code)
		if e.Code == "" {
			return nil, fmt.Errorf("parse catalog: symbol without code")
		}
		if _, dup := c.byCode[e.Code]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate code %q", e.Code)
		}
		if !known[e.Category] {
			return nil, fmt.Errorf("parse catalog: %s: unknown category %q", e.Code, e.Category)
		}
		e.Detail = strings.TrimSpace(e.Detail)
		c.byCode[e.Code] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Lookup returns the entry for code.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	i, ok := c.byCode[strings.TrimSpace(code)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Known reports whether code is in the catalog.
func (c *Catalog) Known(code string) bool {
	_, ok := c.byCode[strings.TrimSpace(code)]
	return ok
}

// Unknown returns the codes not present in the catalog, sorted and deduplicated.
func (c *Catalog) Unknown(codes []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, code := range codes {
		if c.Known(code) || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// List returns the entries of one category in catalog order, or every entry
// when category is empty.
func (c *Catalog) List(category string) []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if category == "" || e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Categories returns the declared categories in catalog order.
func (c *Catalog) Categories() []Category {
	out := make([]Category, len(c.categories))
	copy(out, c.categories)
	return out
}
