package crawler

import (
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"
)

// Default selectors for the archive layout the crawler was first written against.
const (
	DefaultListingSelector = "#main article .entry-title a"
	DefaultDateSelector    = ".entry-date"
	DefaultDateAttr        = "datetime"
	DefaultContentSelector = ".entry-content"
	DefaultNextSelector    = "#main .pagination .nav-links .next"
)

// Selectors describes where an archive keeps its article links, dates, bodies
// and pagination. Values are CSS selectors.
type Selectors struct {
	// Listing matches the article anchors on an index page. Each match must
	// carry an href; its text is the article title.
	Listing string `yaml:"listing"`

	// Date matches the publication date element on an article page.
	Date string `yaml:"date"`

	// DateAttr names the attribute holding the date. Empty means the element text.
	DateAttr string `yaml:"date_attr"`

	// Content matches the article body region.
	Content string `yaml:"content"`

	// Next matches the next-page link on an index page.
	Next string `yaml:"next"`
}

// DefaultSelectors returns the built-in site profile.
func DefaultSelectors() Selectors {
	return Selectors{
		Listing:  DefaultListingSelector,
		Date:     DefaultDateSelector,
		DateAttr: DefaultDateAttr,
		Content:  DefaultContentSelector,
		Next:     DefaultNextSelector,
	}
}

// LoadProfile reads a YAML site profile. Fields absent from the file keep
// their default values.
func LoadProfile(path string) (Selectors, error) {
	sel := DefaultSelectors()

	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("read site profile: %w", err)
	}

	if err := yaml.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("parse site profile %s: %w", path, err)
	}

	if _, err := sel.compile(); err != nil {
		return sel, err
	}

	return sel, nil
}

type compiledSelectors struct {
	listing  cascadia.Selector
	date     cascadia.Selector
	dateAttr string
	content  cascadia.Selector
	next     cascadia.Selector
}

func (s Selectors) compile() (*compiledSelectors, error) {
	compiled := &compiledSelectors{dateAttr: s.DateAttr}

	targets := []struct {
		name string
		expr string
		dst  *cascadia.Selector
	}{
		{"listing", s.Listing, &compiled.listing},
		{"date", s.Date, &compiled.date},
		{"content", s.Content, &compiled.content},
		{"next", s.Next, &compiled.next},
	}

	for _, t := range targets {
		if t.expr == "" {
			return nil, fmt.Errorf("%w: %s selector is empty", ErrInvalidSelector, t.name)
		}
		sel, err := cascadia.Compile(t.expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s selector %q: %v", ErrInvalidSelector, t.name, t.expr, err)
		}
		*t.dst = sel
	}

	return compiled, nil
}
