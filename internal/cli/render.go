package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/query"
)

const barWidth = 30

// RelativeDate labels d as "Today", "Yesterday" or e.g. "Mar 1, 2024",
// comparing calendar days in now's location.
func RelativeDate(d core.Date, now time.Time) string {
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	date := time.Date(d.Year(), d.Time.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case date.Equal(today):
		return "Today"
	case date.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return date.Format("Jan 2, 2006")
	}
}

// RenderList writes a filtered result as a table, or the matching empty
// state message.
func RenderList(w io.Writer, res query.Result, now time.Time) error {
	switch {
	case res.NoRecords():
		_, err := fmt.Fprintln(w, FormatInfo("No expenses yet. Add one with 'expenses add'."))
		return err
	case res.NoMatches():
		_, err := fmt.Fprintln(w, FormatInfo("No expenses match your filters."))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("ID"),
		TableHeaderStyle.Render("Date"),
		TableHeaderStyle.Render("Title"),
		TableHeaderStyle.Render("Category"),
		TableHeaderStyle.Render("Amount"))
	for _, r := range res.Records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\t$%s\n",
			r.ID,
			RelativeDate(r.Date, now),
			r.Title,
			r.Category.Icon(),
			r.Category.DisplayName(),
			r.Amount.String())
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush table: %w", err)
	}
	_, err := fmt.Fprintln(w, SubtleStyle.Render(query.CountLabel(len(res.Records))))
	return err
}

// RenderSummary renders the period cards: total, top category and largest
// expense.
func RenderSummary(s core.PeriodSummary) string {
	top := "-"
	if s.TopCategory != nil {
		top = fmt.Sprintf("%s %s ($%s)", s.TopCategory.Category.Icon(), s.TopCategory.Name, s.TopCategory.Amount.String())
	}
	largest := "-"
	if s.Largest != nil {
		largest = fmt.Sprintf("%s ($%s)", s.Largest.Title, s.Largest.Amount.String())
	}

	period := time.Date(s.Year, time.Month(s.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render(BoldStyle.Render("Total")+"\n$"+s.Total.String()),
		BoxStyle.Render(BoldStyle.Render("Top category")+"\n"+top),
		BoxStyle.Render(BoldStyle.Render("Largest expense")+"\n"+largest),
	)
	return FormatTitle(period) + "\n" + cards
}

// RenderDistribution draws one horizontal bar per category, scaled to the
// largest category, followed by the tooltip text.
func RenderDistribution(dist []core.CategoryAmount, theme core.Theme) string {
	if len(dist) == 0 {
		return FormatInfo("Nothing to chart yet.")
	}

	total := aggregate.Total(dist)
	var peak int64
	for _, d := range dist {
		peak = max(peak, d.Amount.Cents)
	}

	label := lipgloss.NewStyle().Foreground(Palette(theme == core.ThemeDark))
	var b strings.Builder
	for _, d := range dist {
		n := max(int(d.Amount.Cents*barWidth/peak), 1)
		bar := lipgloss.NewStyle().Foreground(lipgloss.Color(d.Category.Color())).
			Render(strings.Repeat("█", n))
		fmt.Fprintf(&b, "%s %s%s %s\n", d.Category.Icon(), bar, strings.Repeat(" ", barWidth-n),
			label.Render(aggregate.TooltipLabel(d, total)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderConfirmation renders the prompt shown before a delete.
func RenderConfirmation(description string) string {
	return WarningStyle.Render(fmt.Sprintf("Delete %q? [y/N] ", description))
}
