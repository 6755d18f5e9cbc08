package config

import (
	"fmt"
	"regexp"

	"github.com/andybalholm/cascadia"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/sitesift/internal/model"
)

// PatternRule is one entry of the ordered URL route table.
type PatternRule struct {
	// Type is the page type name this pattern routes to.
	Type string `yaml:"type"`

	// Match is the regular expression tested against the canonical URL.
	Match string `yaml:"match"`
}

// Rule selects one field's value from a page.
//
// In YAML, a rule is written either as a bare selector string:
//
//	name: "h1.profile-name"
//
// or as a mapping when the value comes from an attribute or every match
// should be collected:
//
//	headshot_url: {selector: "img.profile-photo", attr: "src"}
//	social_links: {selector: ".social a", attr: "href", all: true}
//
// An empty selector inside an items block addresses the repeated node
// itself, which is how per-post attributes like data-post-id are read.
type Rule struct {
	// Selector is the CSS selector addressing the node(s).
	Selector string `yaml:"selector"`

	// Attr names the attribute to read instead of the text content.
	Attr string `yaml:"attr,omitempty"`

	// All collects every match instead of only the first.
	All bool `yaml:"all,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form of a rule.
func (r *Rule) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		r.Selector = value.Value
		r.Attr = ""
		r.All = false
		return nil
	}

	// Alias type avoids recursing back into this method.
	type plain Rule
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = Rule(p)
	return nil
}

// ItemsRule describes a repeated-node extraction: each node matching
// Selector yields one record, with Fields evaluated inside that node.
// Used for discussion post lists.
type ItemsRule struct {
	// Selector addresses the repeated container nodes in document order.
	Selector string `yaml:"selector"`

	// Fields are the per-item rules, evaluated relative to each node.
	Fields map[string]Rule `yaml:"fields"`
}

// PageRules is the selector table for one page type.
type PageRules struct {
	// Fields are the page-level rules, evaluated against the whole document.
	Fields map[string]Rule `yaml:"fields,omitempty"`

	// Items is the optional repeated-node rule for pages carrying record
	// lists (discussion threads). Nil for page types without lists.
	Items *ItemsRule `yaml:"items,omitempty"`
}

// Similarity metric names accepted by LinkerConfig.Metric.
const (
	// MetricTokenSet scores on shared tokens regardless of word order or
	// extra words. Robust against "A. Lin" vs "Amy Lin, PhD".
	MetricTokenSet = "token_set"

	// MetricTokenSort scores the edit similarity of the sorted token
	// strings. Stricter than token_set: extra words lower the score.
	MetricTokenSort = "token_sort"
)

// LinkerConfig tunes the entity linker's fuzzy name matching.
type LinkerConfig struct {
	// FuzzyThreshold is the minimum similarity score in (0, 1] a candidate
	// must reach to be linked. A score exactly at the threshold is accepted.
	// Zero means use the default.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold,omitempty"`

	// AmbiguityMargin rejects a match when the runner-up candidate scores
	// within this distance of the best one, because choosing between two
	// near-equal candidates would be a guess. Zero means use the default.
	AmbiguityMargin float64 `yaml:"ambiguity_margin,omitempty"`

	// Metric names the similarity metric: token_set or token_sort.
	// Empty means token_set.
	Metric string `yaml:"metric,omitempty"`
}

// Route is one compiled entry of the URL route table.
type Route struct {
	// Type is the page type the pattern routes to.
	Type model.PageType

	// Pattern is the compiled expression tested against canonical URLs.
	Pattern *regexp.Regexp
}

// Table is the compiled selector table for one page type.
type Table struct {
	// Fields are the page-level rules.
	Fields map[string]Rule

	// Items is the repeated-node rule, nil when the page type has none.
	Items *ItemsRule
}

// RuleSet is the compiled, validated form of the rules a run uses.
// Building it is the fail-fast point: a RuleSet that constructs
// successfully cannot fail on malformed patterns or selectors later,
// so per-page processing never aborts the run.
type RuleSet struct {
	// Routes is the ordered route table. Evaluation order is declaration
	// order; the first match wins.
	Routes []Route

	// Tables maps each page type to its selector table. Types without a
	// table are routed but not extracted.
	Tables map[model.PageType]*Table

	// IncludeQueryParams keeps query strings in canonical URLs.
	IncludeQueryParams bool

	// FuzzyThreshold is the linker acceptance threshold in (0, 1].
	FuzzyThreshold float64

	// AmbiguityMargin is the linker's minimum winning distance.
	AmbiguityMargin float64

	// Metric is the validated similarity metric name.
	Metric string
}

// CompileRules validates the file's patterns, selector tables, and linker
// tuning, and returns the compiled rule set. The first problem found is
// returned as a wrapped sentinel error; nothing is processed with a
// partially valid rule set.
func CompileRules(f *File) (*RuleSet, error) {
	if len(f.Patterns) == 0 {
		return nil, ErrNoPatterns
	}

	rs := &RuleSet{
		Tables:             make(map[model.PageType]*Table, len(f.Selectors)),
		IncludeQueryParams: f.Crawl.IncludeQueryParams,
		FuzzyThreshold:     f.Linker.FuzzyThreshold,
		AmbiguityMargin:    f.Linker.AmbiguityMargin,
	}

	for i, p := range f.Patterns {
		t, err := model.ParsePageType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: patterns[%d]: %q", ErrBadPageType, i, p.Type)
		}
		re, err := regexp.Compile(p.Match)
		if err != nil {
			return nil, fmt.Errorf("%w: patterns[%d] %q: %v", ErrBadPattern, i, p.Match, err)
		}
		rs.Routes = append(rs.Routes, Route{Type: t, Pattern: re})
	}

	for name, page := range f.Selectors {
		t, err := model.ParsePageType(name)
		if err != nil {
			return nil, fmt.Errorf("%w: selectors: %q", ErrBadPageType, name)
		}
		table := &Table{Fields: page.Fields, Items: page.Items}
		for field, rule := range page.Fields {
			if err := checkRule(rule, false); err != nil {
				return nil, fmt.Errorf("selectors.%s.fields.%s: %w", name, field, err)
			}
		}
		if page.Items != nil {
			if page.Items.Selector == "" {
				return nil, fmt.Errorf("selectors.%s.items: %w", name, ErrEmptyRule)
			}
			if err := checkSelector(page.Items.Selector); err != nil {
				return nil, fmt.Errorf("selectors.%s.items: %w", name, err)
			}
			for field, rule := range page.Items.Fields {
				if err := checkRule(rule, true); err != nil {
					return nil, fmt.Errorf("selectors.%s.items.fields.%s: %w", name, field, err)
				}
			}
		}
		rs.Tables[t] = table
	}

	if rs.FuzzyThreshold <= 0 || rs.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("%w: %v", ErrBadThreshold, rs.FuzzyThreshold)
	}
	if rs.AmbiguityMargin < 0 || rs.AmbiguityMargin >= rs.FuzzyThreshold {
		return nil, fmt.Errorf("%w: %v", ErrBadMargin, rs.AmbiguityMargin)
	}
	switch f.Linker.Metric {
	case "":
		rs.Metric = MetricTokenSet
	case MetricTokenSet, MetricTokenSort:
		rs.Metric = f.Linker.Metric
	default:
		return nil, fmt.Errorf("%w: %q", ErrBadMetric, f.Linker.Metric)
	}

	return rs, nil
}

// checkRule validates a single selector rule. Inside an items block an
// empty selector is allowed (it addresses the item node itself) as long
// as an attribute is named.
func checkRule(r Rule, insideItems bool) error {
	if r.Selector == "" {
		if insideItems && r.Attr != "" {
			return nil
		}
		return ErrEmptyRule
	}
	return checkSelector(r.Selector)
}

// checkSelector parses a CSS selector to surface syntax errors at load
// time. The extractor re-parses with goquery at use time; validating here
// keeps per-page extraction free of failure modes.
func checkSelector(sel string) error {
	if _, err := cascadia.Compile(sel); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrBadSelector, sel, err)
	}
	return nil
}
