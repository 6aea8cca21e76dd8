// Package classify assigns the pages of a procurement process to the
// document sections they belong to.
package classify

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/a3tai/process-extractor/internal/brtext"
	"github.com/a3tai/process-extractor/internal/logging"
	"github.com/a3tai/process-extractor/internal/model"
)

// Guard restricts when a rule is evaluated for a page.
type Guard int

const (
	// GuardAlways evaluates the rule unconditionally.
	GuardAlways Guard = iota
	// GuardUnclassified evaluates the rule only when no earlier rule matched.
	GuardUnclassified
	// GuardNotRequisition skips pages already taken as requisition, which
	// routinely cite their credit note.
	GuardNotRequisition
)

// Condition holds when every All phrase is present, at least one Any phrase
// is present and at least one pattern matches. Empty parts are ignored.
type Condition struct {
	All      []string
	Any      []string
	Patterns []*regexp.Regexp
}

// Holds evaluates the condition against folded page text.
func (c Condition) Holds(text string) bool {
	for _, p := range c.All {
		if !strings.Contains(text, p) {
			return false
		}
	}
	if len(c.Any) > 0 && !containsAny(text, c.Any) {
		return false
	}
	if len(c.Patterns) == 0 {
		return true
	}
	for _, re := range c.Patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Rule maps page text to a category. A rule matches when any Condition
// holds or when at least MinSignals of its Signals hold. An Exclusive match
// ends evaluation for the page.
type Rule struct {
	Name        string
	Category    model.Category
	Conditions  []Condition
	Signals     []Condition
	MinSignals  int
	Exclusive   bool
	Guard       Guard
	Enabled     bool
	Description string
}

// Matches reports whether the rule fires for folded text.
func (r Rule) Matches(text string) bool {
	for _, c := range r.Conditions {
		if c.Holds(text) {
			return true
		}
	}
	if r.MinSignals <= 0 {
		return false
	}
	n := 0
	for _, s := range r.Signals {
		if s.Holds(text) {
			n++
		}
	}
	return n >= r.MinSignals
}

// Classification is the set of pages per category. A page may be listed
// under several categories.
type Classification map[model.Category][]model.Page

// Pages returns the pages of cat in document order.
func (c Classification) Pages(cat model.Category) []model.Page {
	return c[cat]
}

// Has reports whether any page was assigned to cat.
func (c Classification) Has(cat model.Category) bool {
	return len(c[cat]) > 0
}

// Numbers returns the page numbers per category, including empty ones.
func (c Classification) Numbers() map[model.Category][]int {
	out := make(map[model.Category][]int, len(model.Categories))
	for _, cat := range model.Categories {
		nums := []int{}
		for _, p := range c[cat] {
			nums = append(nums, p.Number)
		}
		out[cat] = nums
	}
	return out
}

// Text joins the text of the category's pages with blank lines.
func (c Classification) Text(cat model.Category) string {
	return JoinText(c[cat])
}

// JoinText concatenates page texts in order, separated by blank lines.
func JoinText(pages []model.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Classifier evaluates the ordered rule list over pages.
type Classifier struct {
	rules []Rule
	log   *zap.Logger
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithRules replaces the default rule list.
func WithRules(rules []Rule) Option { return func(c *Classifier) { c.rules = rules } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(c *Classifier) { c.log = logging.OrNop(l) } }

// New returns a classifier with the default rules.
func New(opts ...Option) *Classifier {
	c := &Classifier{rules: getDefaultRules(), log: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rules returns a copy of the rule list in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// ClassifyText returns the categories of a single page's text, in rule
// order and without duplicates. Text matching nothing is unclassified.
func (c *Classifier) ClassifyText(text string) []model.Category {
	folded := brtext.Fold(text)
	var (
		cats        []model.Category
		seen        = map[model.Category]bool{}
		requisition bool
	)
	for _, r := range c.rules {
		if !r.Enabled {
			continue
		}
		switch r.Guard {
		case GuardUnclassified:
			if len(cats) > 0 {
				continue
			}
		case GuardNotRequisition:
			if requisition {
				continue
			}
		}
		if !r.Matches(folded) {
			continue
		}
		if r.Category == model.CategoryRequisition {
			requisition = true
		}
		if !seen[r.Category] {
			seen[r.Category] = true
			cats = append(cats, r.Category)
		}
		if r.Exclusive {
			break
		}
	}
	if len(cats) == 0 {
		return []model.Category{model.CategoryUnclassified}
	}
	return cats
}

// Classify assigns every page to its categories.
func (c *Classifier) Classify(pages []model.Page) Classification {
	out := make(Classification)
	for _, p := range pages {
		for _, cat := range c.ClassifyText(p.Text) {
			out[cat] = append(out[cat], p)
		}
	}
	for _, cat := range model.Categories {
		if n := len(out[cat]); n > 0 {
			c.log.Debug("pages classified", zap.String("category", string(cat)), zap.Int("pages", n))
		}
	}
	return out
}
