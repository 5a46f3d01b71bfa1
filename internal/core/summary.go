package core

import "time"

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Amount   Money    `json:"amount"`
}

// PeriodSummary is a compact summary for the calendar month containing a reference time.
type PeriodSummary struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"` // 1-12
	Total       Money           `json:"total"`
	Count       int             `json:"count"`
	TopCategory *CategoryAmount `json:"topCategory"`
	Largest     *Record         `json:"largest"`
}

// Theme selects light or dark rendering.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// TextColor is the legend/text color for charts in this theme.
func (t Theme) TextColor() string {
	if t == ThemeDark {
		return "#cbd5e1"
	}
	return "#475569"
}

// ChartSeries is what the visualization collaborator consumes.
type ChartSeries struct {
	Labels    []string  `json:"labels"`
	Values    []float64 `json:"values"`
	Colors    []string  `json:"colors"`
	TextColor string    `json:"textColor"`
}

// Empty reports whether there is nothing to draw.
func (s ChartSeries) Empty() bool {
	return len(s.Values) == 0
}

// Period returns year and month of t.
func Period(t time.Time) (int, int) {
	return t.Year(), int(t.Month())
}
