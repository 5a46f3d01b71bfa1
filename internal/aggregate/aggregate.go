// Package aggregate computes the period summary, the per-category
// distribution and the chart series shown next to the expense list.
package aggregate

import (
	"fmt"
	"time"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
)

// Period summarizes the records dated in the calendar month of now.
// TopCategory and Largest are nil when no record falls in the month; on ties
// the first category or record met in collection order wins.
func Period(records []core.Record, now time.Time) core.PeriodSummary {
	year, month := core.Period(now)
	summary := core.PeriodSummary{Year: year, Month: month}

	var (
		totals  = map[core.Category]core.Money{}
		order   []core.Category
		largest *core.Record
	)
	for i := range records {
		r := records[i]
		if !r.Date.SameMonth(now) {
			continue
		}
		summary.Total = summary.Total.Add(r.Amount)
		summary.Count++
		if _, seen := totals[r.Category]; !seen {
			order = append(order, r.Category)
		}
		totals[r.Category] = totals[r.Category].Add(r.Amount)
		if largest == nil || r.Amount.Cents > largest.Amount.Cents {
			largest = &r
		}
	}

	for _, c := range order {
		if summary.TopCategory == nil || totals[c].Cents > summary.TopCategory.Amount.Cents {
			summary.TopCategory = &core.CategoryAmount{Category: c, Name: c.DisplayName(), Amount: totals[c]}
		}
	}
	summary.Largest = largest
	return summary
}

// Distribution sums amounts per category over all records. Only categories
// present at least once are returned, in order of first appearance.
func Distribution(records []core.Record) []core.CategoryAmount {
	index := map[core.Category]int{}
	var out []core.CategoryAmount
	for _, r := range records {
		i, ok := index[r.Category]
		if !ok {
			i = len(out)
			index[r.Category] = i
			out = append(out, core.CategoryAmount{Category: r.Category, Name: r.Category.DisplayName()})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	return out
}

// Total sums every amount in dist.
func Total(dist []core.CategoryAmount) core.Money {
	var t core.Money
	for _, d := range dist {
		t = t.Add(d.Amount)
	}
	return t
}

// Share returns part as a percentage of total rounded to one decimal.
// A zero total yields zero.
func Share(part, total core.Money) decimal.Decimal {
	if total.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(total.Cents), 1)
}

// Chart builds the series for a category pie chart in the given theme.
func Chart(records []core.Record, theme core.Theme) core.ChartSeries {
	dist := Distribution(records)
	series := core.ChartSeries{
		Labels:    make([]string, 0, len(dist)),
		Values:    make([]float64, 0, len(dist)),
		Colors:    make([]string, 0, len(dist)),
		TextColor: theme.TextColor(),
	}
	for _, d := range dist {
		series.Labels = append(series.Labels, d.Name)
		series.Values = append(series.Values, d.Amount.Float64())
		series.Colors = append(series.Colors, d.Category.Color())
	}
	return series
}

// TooltipLabel renders a chart tooltip, e.g. "Food & Dining: $10.10 (50.0%)".
func TooltipLabel(d core.CategoryAmount, total core.Money) string {
	return fmt.Sprintf("%s: $%s (%s%%)", d.Name, d.Amount.String(), Share(d.Amount, total).StringFixed(1))
}
