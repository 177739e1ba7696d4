package classify

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Line is the classifier's view of an order or shipping line.
type Line struct {
	Title     string
	Price     decimal.Decimal
	CompareAt decimal.Decimal
}

// Result reports the classification and which rule decided it.
type Result struct {
	Free bool
	Rule string
}

// Rule is one entry of the ordered rule table. First match wins.
type Rule struct {
	Name  string
	Match func(Line) bool
}

// Options configure the rule table. Keywords feed the title rule; the
// discount heuristic is off unless explicitly enabled, because the business
// has never settled on whether a steeply discounted nonzero line counts as
// free.
type Options struct {
	Keywords           []string
	DiscountEnabled    bool
	DiscountMinPercent int
	DiscountMaxPrice   float64
}

type Classifier struct {
	rules []Rule
}

func New(opts Options) *Classifier {
	keywords := opts.Keywords
	if len(keywords) == 0 {
		keywords = []string{"free"}
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(strings.TrimSpace(kw))
	}

	rules := []Rule{
		{
			Name: "zero-price",
			Match: func(l Line) bool {
				return l.Price.IsZero()
			},
		},
		{
			Name: "title-keyword",
			Match: func(l Line) bool {
				return TitleHasKeyword(l.Title, lowered)
			},
		},
	}

	if opts.DiscountEnabled {
		minPercent := decimal.NewFromInt(int64(opts.DiscountMinPercent))
		maxPrice := decimal.NewFromFloat(opts.DiscountMaxPrice)
		rules = append(rules, Rule{
			Name: "steep-discount",
			Match: func(l Line) bool {
				if l.CompareAt.IsZero() || !l.Price.IsPositive() {
					return false
				}
				if l.Price.GreaterThan(maxPrice) {
					return false
				}
				discount := l.CompareAt.Sub(l.Price).
					Div(l.CompareAt).
					Mul(decimal.NewFromInt(100))
				return discount.GreaterThanOrEqual(minPercent)
			},
		})
	}

	return &Classifier{rules: rules}
}

func (c *Classifier) Classify(l Line) Result {
	for _, r := range c.rules {
		if r.Match(l) {
			return Result{Free: true, Rule: r.Name}
		}
	}
	return Result{}
}

// TitleHasKeyword matches whole-word keyword occurrences: the keyword must
// start the title or follow a space or plus sign ("free ...", "... free x",
// "...+free x"), and must not run on into more letters. A keyword buried in
// or starting another word ("carefree", "freezer") does not match.
func TitleHasKeyword(title string, keywords []string) bool {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(lower[from:], kw)
			if i < 0 {
				break
			}
			i += from
			end := i + len(kw)
			startsWord := i == 0 || lower[i-1] == ' ' || lower[i-1] == '+'
			endsWord := end == len(lower) || !isLower(lower[end])
			if startsWord && endsWord {
				return true
			}
			from = i + 1
		}
	}
	return false
}

func isLower(b byte) bool {
	return b >= 'a' && b <= 'z'
}
