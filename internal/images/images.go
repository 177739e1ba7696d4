package images

import "strings"

// Rule maps title keywords to a product image URL.
type Rule struct {
	Keywords []string
	URL      string
}

// Resolver picks a presentational image for a line-item label. Lookup is a
// plain ordered keyword table so new products are a config change, not a
// code change.
type Resolver struct {
	rules    []Rule
	fallback string
}

func NewResolver(rules []Rule, fallback string) *Resolver {
	return &Resolver{rules: rules, fallback: fallback}
}

func (r *Resolver) ForTitle(title string) string {
	lower := strings.ToLower(title)
	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				return rule.URL
			}
		}
	}
	return r.fallback
}

func (r *Resolver) Fallback() string {
	return r.fallback
}
