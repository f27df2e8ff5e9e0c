// Package query provides read-side projections over the record collection:
// search filtering, shop grouping and collection statistics.
package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/kimhsiao/squishylog/internal/models"
)

// Condition is a single record predicate.
type Condition interface {
	// Match reports whether the record passes the condition.
	Match(r models.Record) bool

	// Valid checks if the condition is usable.
	Valid() bool
}

// SearchCondition matches shop or mold names containing Query, ignoring case.
type SearchCondition struct {
	Query string
}

// Valid checks the query is not blank.
func (c *SearchCondition) Valid() bool {
	return strings.TrimSpace(c.Query) != ""
}

// Match implements Condition.
func (c *SearchCondition) Match(r models.Record) bool {
	fold := cases.Fold()
	q := fold.String(c.Query)
	return strings.Contains(fold.String(r.ShopName), q) ||
		strings.Contains(fold.String(r.MoldName), q)
}

// DateRangeCondition matches squishDate within [From, To]. Either bound may
// be empty. Dates compare as YYYY-MM-DD strings.
type DateRangeCondition struct {
	From string
	To   string
}

// Valid checks that at least one bound is set, bounds are dates and From is
// not after To.
func (c *DateRangeCondition) Valid() bool {
	if c.From == "" && c.To == "" {
		return false
	}
	if c.From != "" && !models.ValidDate(c.From) {
		return false
	}
	if c.To != "" && !models.ValidDate(c.To) {
		return false
	}
	if c.From != "" && c.To != "" && c.From > c.To {
		return false
	}
	return true
}

// Match implements Condition.
func (c *DateRangeCondition) Match(r models.Record) bool {
	if c.From != "" && r.SquishDate < c.From {
		return false
	}
	if c.To != "" && r.SquishDate > c.To {
		return false
	}
	return true
}

// Filter is the list view's search state.
type Filter struct {
	Search string `json:"search,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// Conditions returns the filter's active conditions. Conditions that are
// unset are skipped.
func (f Filter) Conditions() []Condition {
	var conds []Condition
	if s := (&SearchCondition{Query: f.Search}); s.Valid() {
		conds = append(conds, s)
	}
	if f.From != "" || f.To != "" {
		conds = append(conds, &DateRangeCondition{From: f.From, To: f.To})
	}
	return conds
}

// Validate reports an invalid date range.
func (f Filter) Validate() error {
	if f.From == "" && f.To == "" {
		return nil
	}
	if c := (&DateRangeCondition{From: f.From, To: f.To}); !c.Valid() {
		return &InvalidRangeError{From: f.From, To: f.To}
	}
	return nil
}

// Apply returns the records matching every condition, in order.
func (f Filter) Apply(records []models.Record) []models.Record {
	conds := f.Conditions()
	out := make([]models.Record, 0, len(records))
	for _, r := range records {
		if matchAll(conds, r) {
			out = append(out, r)
		}
	}
	return out
}

func matchAll(conds []Condition, r models.Record) bool {
	for _, c := range conds {
		if !c.Match(r) {
			return false
		}
	}
	return true
}

// InvalidRangeError is returned for an unusable date range.
type InvalidRangeError struct {
	From, To string
}

func (e *InvalidRangeError) Error() string {
	return "invalid date range " + e.From + ".." + e.To
}
