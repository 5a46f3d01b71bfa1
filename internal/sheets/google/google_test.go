package google

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"expenses/internal/core"
	"expenses/internal/export"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func rec(id int64, title, amount string, cat core.Category, date string) core.Record {
	m, _ := core.ParseAmount(amount)
	d, _ := core.ParseDate(date)
	return core.Record{ID: id, Title: title, Amount: m, Category: cat, Date: d}
}

func TestValues(t *testing.T) {
	values, err := Values([]core.Record{
		rec(1, "Rent", "1200", core.Bills, "2024-03-01"),
		rec(2, "Taxi", "18.4", core.Transport, "2024-03-09"),
	})
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"Date", "Title", "Category", "Amount"},
		{"2024-03-09", "Taxi", "Transportation", "18.40"},
		{"2024-03-01", "Rent", "Bills & Utilities", "1200.00"},
	}, values)
}

func TestValuesEmpty(t *testing.T) {
	_, err := Values(nil)
	assert.ErrorIs(t, err, export.ErrNothingToExport)
}

func TestA1Range(t *testing.T) {
	assert.Equal(t, "'Expenses'!A:D", a1Range("Expenses", "A:D"))
	assert.Equal(t, "'Bob''s 2024'!A1:D3", a1Range("Bob's 2024", "A1:D3"))
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{}, nil)
	assert.Error(t, err)

	_, err = New(context.Background(), Config{SpreadsheetID: "abc"}, nil)
	assert.ErrorContains(t, err, "sheets credentials")
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, SaveToken(path, tok))

	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "r", got.RefreshToken)
	assert.True(t, got.Expiry.Equal(tok.Expiry))

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRandomState(t *testing.T) {
	a, err := randomState()
	require.NoError(t, err)
	b, _ := randomState()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
