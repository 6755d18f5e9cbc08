package classify

import (
	"github.com/nao1215/sitesift/internal/config"
	"github.com/nao1215/sitesift/internal/model"
)

// Router classifies URLs against an ordered list of compiled patterns.
// The first matching pattern decides the page type, so more specific
// patterns (a discussion thread under a roundtable) must be listed before
// broader ones (the roundtable page itself). Patterns are compiled at
// config load time; Classify itself cannot fail.
//
// A Router is immutable after construction and safe for concurrent use.
type Router struct {
	routes []config.Route
}

// NewRouter creates a router over the rule set's route table.
func NewRouter(rules *config.RuleSet) *Router {
	return &Router{routes: rules.Routes}
}

// Classify returns the page type of the first pattern matching the URL,
// or PageTypeUnknown when no pattern matches. Callers pass the canonical
// URL so that query and fragment noise cannot flip a route.
func (r *Router) Classify(url string) model.PageType {
	for _, route := range r.routes {
		if route.Pattern.MatchString(url) {
			return route.Type
		}
	}
	return model.PageTypeUnknown
}
