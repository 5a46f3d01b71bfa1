// Package query filters and sorts expense records for display.
// Everything here is pure: inputs are never modified.
package query

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"expenses/internal/core"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMode orders a filtered list.
type SortMode string

const (
	SortNewest  SortMode = "newest"
	SortOldest  SortMode = "oldest"
	SortHighest SortMode = "highest"
	SortLowest  SortMode = "lowest"
	SortName    SortMode = "name"
)

// ErrInvalidSort is returned by ParseSortMode for unknown modes.
var ErrInvalidSort = errors.New("invalid sort mode")

// ParseSortMode maps user input to a SortMode. Empty means newest and
// "title" is accepted for name.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SortNewest, nil
	case "title":
		return SortName, nil
	case SortNewest, SortOldest, SortHighest, SortLowest, SortName:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
}

// FilterSpec selects and orders records. Zero-valued fields do not filter.
type FilterSpec struct {
	Category core.Category
	Search   string
	// Start and End are inclusive ISO dates (YYYY-MM-DD).
	Start string
	End   string
	Sort  SortMode
}

// Params are raw filter values as typed by a user or sent in a query string.
type Params struct {
	Category string
	Search   string
	Start    string
	End      string
	Sort     string
}

// Parse validates p into a FilterSpec. An empty or "all" category disables
// the category filter; dates must be ISO calendar dates.
func (p Params) Parse() (FilterSpec, error) {
	var spec FilterSpec

	switch c := strings.ToLower(strings.TrimSpace(p.Category)); c {
	case "", "all":
	default:
		cat, err := core.ParseCategory(c)
		if err != nil {
			return FilterSpec{}, fmt.Errorf("category %q: %w", p.Category, err)
		}
		spec.Category = cat
	}

	spec.Search = strings.TrimSpace(p.Search)

	for _, d := range []struct {
		name string
		in   string
		out  *string
	}{{"start", p.Start, &spec.Start}, {"end", p.End, &spec.End}} {
		if strings.TrimSpace(d.in) == "" {
			continue
		}
		date, err := core.ParseDate(d.in)
		if err != nil {
			return FilterSpec{}, fmt.Errorf("%s date: %w", d.name, err)
		}
		*d.out = date.String()
	}

	sort, err := ParseSortMode(p.Sort)
	if err != nil {
		return FilterSpec{}, err
	}
	spec.Sort = sort
	return spec, nil
}

// Apply returns the records matching every criterion of spec, sorted by
// spec.Sort. The sort is stable so equal keys keep their input order.
func Apply(records []core.Record, spec FilterSpec) []core.Record {
	search := strings.ToLower(strings.TrimSpace(spec.Search))

	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if spec.Category != "" && r.Category != spec.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Category.DisplayName()), search) {
			continue
		}
		date := r.Date.String()
		if spec.Start != "" && date < spec.Start {
			continue
		}
		if spec.End != "" && date > spec.End {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, comparator(spec.Sort))
	return out
}

func comparator(mode SortMode) func(a, b core.Record) int {
	switch mode {
	case SortOldest:
		return func(a, b core.Record) int { return a.Date.Compare(b.Date.Time) }
	case SortHighest:
		return func(a, b core.Record) int { return cmp.Compare(b.Amount.Cents, a.Amount.Cents) }
	case SortLowest:
		return func(a, b core.Record) int { return cmp.Compare(a.Amount.Cents, b.Amount.Cents) }
	case SortName:
		// collate.Collator is not safe for concurrent use; one per call.
		c := collate.New(language.English)
		return func(a, b core.Record) int { return c.CompareString(a.Title, b.Title) }
	default:
		return func(a, b core.Record) int { return b.Date.Compare(a.Date.Time) }
	}
}

// Result is a filtered view plus the size of the unfiltered collection.
type Result struct {
	Records []core.Record `json:"expenses"`
	Total   int           `json:"total"`
}

// Run applies spec and remembers how many records there were to begin with.
func Run(records []core.Record, spec FilterSpec) Result {
	return Result{Records: Apply(records, spec), Total: len(records)}
}

// NoRecords reports that the collection itself is empty.
func (r Result) NoRecords() bool { return r.Total == 0 }

// NoMatches reports that records exist but none survived the filters.
func (r Result) NoMatches() bool { return r.Total > 0 && len(r.Records) == 0 }

// CountLabel renders "1 expense" or "N expenses".
func CountLabel(n int) string {
	if n == 1 {
		return "1 expense"
	}
	return fmt.Sprintf("%d expenses", n)
}
