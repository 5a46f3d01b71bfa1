package query

import (
	"testing"
	"time"

	"expenses/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id int64, title, amount string, cat core.Category, date string) core.Record {
	m, err := core.ParseAmount(amount)
	if err != nil {
		panic(err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Record{ID: id, Title: title, Amount: m, Category: cat, Date: d, CreatedAt: time.Unix(id, 0)}
}

func ids(records []core.Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func fixture() []core.Record {
	return []core.Record{
		rec(1, "Groceries", "54.20", core.Food, "2024-03-05"),
		rec(2, "Bus pass", "30", core.Transport, "2024-03-01"),
		rec(3, "Electric bill", "80", core.Bills, "2024-02-28"),
		rec(4, "lunch", "12.5", core.Food, "2024-03-10"),
		rec(5, "Cinema", "12.5", core.Entertainment, "2024-03-10"),
	}
}

func TestApplyConjunctiveFilters(t *testing.T) {
	spec := FilterSpec{Category: core.Food, Search: "  LUN ", Start: "2024-03-01", End: "2024-03-31"}
	got := Apply(fixture(), spec)
	assert.Equal(t, []int64{4}, ids(got))
}

func TestApplySearchMatchesCategoryDisplayName(t *testing.T) {
	got := Apply(fixture(), FilterSpec{Search: "dining"})
	assert.ElementsMatch(t, []int64{1, 4}, ids(got))

	got = Apply(fixture(), FilterSpec{Search: "utilities"})
	assert.Equal(t, []int64{3}, ids(got))
}

func TestApplyDateRangeIsInclusive(t *testing.T) {
	got := Apply(fixture(), FilterSpec{Start: "2024-03-01", End: "2024-03-05", Sort: SortOldest})
	assert.Equal(t, []int64{2, 1}, ids(got))
}

func TestApplyNoFiltersKeepsEverything(t *testing.T) {
	assert.Len(t, Apply(fixture(), FilterSpec{}), 5)
	assert.Empty(t, Apply(nil, FilterSpec{}))
}

func TestSortModes(t *testing.T) {
	tests := []struct {
		mode SortMode
		want []int64
	}{
		{"", []int64{4, 5, 1, 2, 3}},
		{SortNewest, []int64{4, 5, 1, 2, 3}},
		{SortOldest, []int64{3, 2, 1, 4, 5}},
		{SortHighest, []int64{3, 1, 2, 4, 5}},
		{SortLowest, []int64{4, 5, 2, 1, 3}},
		{SortName, []int64{2, 5, 3, 1, 4}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(fixture(), FilterSpec{Sort: tt.mode})))
		})
	}
}

func TestHighestIsReverseOfLowestForDistinctAmounts(t *testing.T) {
	records := []core.Record{
		rec(1, "a", "5", core.Food, "2024-01-01"),
		rec(2, "b", "15", core.Food, "2024-01-02"),
		rec(3, "c", "10", core.Food, "2024-01-03"),
	}
	high := ids(Apply(records, FilterSpec{Sort: SortHighest}))
	low := ids(Apply(records, FilterSpec{Sort: SortLowest}))
	for i := range high {
		assert.Equal(t, high[i], low[len(low)-1-i])
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	in := fixture()
	_ = Apply(in, FilterSpec{Sort: SortHighest})
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(in))
}

func TestParseSortMode(t *testing.T) {
	for in, want := range map[string]SortMode{
		"":        SortNewest,
		"newest":  SortNewest,
		"OLDEST":  SortOldest,
		"highest": SortHighest,
		"lowest":  SortLowest,
		"name":    SortName,
		"title":   SortName,
	} {
		got, err := ParseSortMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSortMode("random")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestRunDistinguishesEmptyFromNoMatch(t *testing.T) {
	empty := Run(nil, FilterSpec{})
	assert.True(t, empty.NoRecords())
	assert.False(t, empty.NoMatches())

	none := Run(fixture(), FilterSpec{Search: "zzz"})
	assert.False(t, none.NoRecords())
	assert.True(t, none.NoMatches())
	assert.Equal(t, 5, none.Total)
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "0 expenses", CountLabel(0))
	assert.Equal(t, "1 expense", CountLabel(1))
	assert.Equal(t, "12 expenses", CountLabel(12))
}

func TestParamsParse(t *testing.T) {
	spec, err := Params{Category: "Bills", Search: "  rent ", Start: "2024-03-01", End: "2024-03-31", Sort: "title"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, FilterSpec{Category: core.Bills, Search: "rent", Start: "2024-03-01", End: "2024-03-31", Sort: SortName}, spec)

	spec, err = Params{Category: "all"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, FilterSpec{Sort: SortNewest}, spec)

	_, err = Params{Category: "groceries"}.Parse()
	assert.ErrorIs(t, err, core.ErrInvalidCategory)

	_, err = Params{Start: "03/01/2024"}.Parse()
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, err = Params{Sort: "random"}.Parse()
	assert.ErrorIs(t, err, ErrInvalidSort)
}
