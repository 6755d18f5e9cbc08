package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/model"
)

// ErrNotExtractable is returned when extraction is requested for the
// unknown page type. Callers are expected to skip unknown pages; this
// error catches the ones that slip through.
var ErrNotExtractable = errors.New("page type is not extractable")

// Result holds everything extracted from one page.
type Result struct {
	// Fields are the page-level values, keyed by rule name.
	Fields model.RawFields

	// Items are the per-node values of the repeated-node rule, in
	// document order. Nil when the page type has no items rule.
	Items []model.RawFields

	// Gaps counts the page-level rules (and the items rule) that matched
	// zero nodes. Per-item field misses are not counted; a post without
	// a permalink is normal, a selector that never matches is a signal
	// the rules drifted from the site's markup.
	Gaps int
}

// Extractor applies selector tables to page markup.
// Selectors are validated at config load time, so extraction has no
// failure mode beyond unparseable markup.
//
// An Extractor is immutable after construction and safe for concurrent use.
type Extractor struct {
	tables map[model.PageType]*config.Table
}

// NewExtractor creates an extractor over the rule set's selector tables.
func NewExtractor(rules *config.RuleSet) *Extractor {
	return &Extractor{tables: rules.Tables}
}

// Extract applies the page type's selector table to the markup.
// Values from href and src attributes are resolved against the page URL
// so downstream consumers always see absolute URLs. A page type without
// a selector table yields an empty result, not an error.
func (e *Extractor) Extract(pageType model.PageType, pageURL, markup string) (*Result, error) {
	if pageType == model.PageTypeUnknown {
		return nil, fmt.Errorf("%w: %s", ErrNotExtractable, pageURL)
	}

	result := &Result{Fields: make(model.RawFields)}
	table, ok := e.tables[pageType]
	if !ok {
		return result, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup of %s: %w", pageURL, err)
	}

	base, _ := url.Parse(pageURL)

	for name, rule := range table.Fields {
		values := evalRule(doc.Selection, rule, base)
		if len(values) == 0 {
			result.Gaps++
			continue
		}
		result.Fields[name] = values
	}

	if table.Items != nil {
		nodes := doc.Find(table.Items.Selector)
		if nodes.Length() == 0 {
			result.Gaps++
		}
		nodes.Each(func(_ int, node *goquery.Selection) {
			item := make(model.RawFields, len(table.Items.Fields))
			for name, rule := range table.Items.Fields {
				if values := evalRule(node, rule, base); len(values) > 0 {
					item[name] = values
				}
			}
			result.Items = append(result.Items, item)
		})
	}

	return result, nil
}

// evalRule evaluates one rule relative to root and returns its non-empty
// values. An empty selector addresses root itself, which is how item
// rules read attributes off the repeated node.
func evalRule(root *goquery.Selection, rule config.Rule, base *url.URL) []string {
	sel := root
	if rule.Selector != "" {
		sel = root.Find(rule.Selector)
	}
	if sel.Length() == 0 {
		return nil
	}
	if !rule.All {
		sel = sel.First()
	}

	var values []string
	sel.Each(func(_ int, node *goquery.Selection) {
		v := nodeValue(node, rule.Attr, base)
		if strings.TrimSpace(v) != "" {
			values = append(values, v)
		}
	})
	return values
}

// nodeValue reads a node's text content or the named attribute.
func nodeValue(node *goquery.Selection, attr string, base *url.URL) string {
	if attr == "" {
		return node.Text()
	}
	v := node.AttrOr(attr, "")
	if v == "" {
		return ""
	}
	// Links and asset references become absolute so they stay usable
	// outside the page they came from.
	if (attr == "href" || attr == "src") && base != nil {
		if ref, err := url.Parse(strings.TrimSpace(v)); err == nil {
			return base.ResolveReference(ref).String()
		}
	}
	return v
}
