package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"1200", 120000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.out, got.Cents, tc.in)
		} else {
			assert.ErrorIs(t, err, ErrInvalidAmount, tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "1200.00", Money{Cents: 120000}.String())
	assert.Equal(t, "0.05", Money{Cents: 5}.String())
	assert.Equal(t, "12.50", Money{Cents: 1250}.String())
}

func TestMoneyJSONIsANumber(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1250})
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`5`), &m))
	assert.Equal(t, int64(500), m.Cents)
	require.NoError(t, json.Unmarshal([]byte(`"3.99"`), &m))
	assert.Equal(t, int64(399), m.Cents)
	assert.Error(t, json.Unmarshal([]byte(`-2`), &m))
}

func TestMoneyFloat64(t *testing.T) {
	assert.InDelta(t, 10.1, Money{Cents: 1010}.Float64(), 1e-9)
}
