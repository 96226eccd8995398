package extraction

import (
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"1000", "1000", true},
		{"1,000", "1000", true},
		{"1,234.5", "1234.5", true},
		{"(1234)", "-1234", true},
		{" (1,234.50) ", "-1234.5", true},
		{"12,000 lots", "12000", true},
		{"", "0", false},
		{"   ", "0", false},
		{"n/a", "0", false},
		{"1.2.3", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ToNumber(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1000", "1,000"},
		{"1000000", "1,000,000"},
		{"0", "0"},
		{"-2500", "-2,500"},
		{"1234.5", "1,234"},
		{"1235.5", "1,236"},
		{"", ""},
		{"1,000", "1,000"},
		{"abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNumber(tt.input))
		})
	}
}

func TestFormatParsed(t *testing.T) {
	assert.Equal(t, "12,000", FormatParsed("12000"))
	assert.Equal(t, "-1,234", FormatParsed("(1234)"))
	assert.Equal(t, "", FormatParsed(""))
	assert.Equal(t, "", FormatParsed("-"))
}

func TestFormatThenParseRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, 7, 999, 1000, 1001, 65535, 1000000, 123456789, 9007199254740993} {
		t.Run(strconv.FormatInt(n, 10), func(t *testing.T) {
			got, ok := ToNumber(FormatDecimal(decimal.NewFromInt(n)))
			assert.True(t, ok)
			assert.Equal(t, n, got.IntPart())
		})
	}
}

func TestFormatDecimal_BeyondInt64(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9223372036854775807", "9,223,372,036,854,775,807"},
		{"9223372036854775808", "9,223,372,036,854,775,808"},
		{"99999999999999999999", "99,999,999,999,999,999,999"},
		{"1000000000000000000000", "1,000,000,000,000,000,000,000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, ok := ToNumber(tt.input)
			require.True(t, ok)

			formatted := FormatDecimal(n)
			assert.Equal(t, tt.want, formatted)

			back, ok := ToNumber(formatted)
			require.True(t, ok)
			assert.True(t, back.Equal(n), "round trip of %s gave %s", tt.input, back)
		})
	}

	assert.Equal(t, "1,000,000,000,000,000,000,000", FormatNumber("1000000000000000000000"))
	assert.Equal(t, "-18,446,744,073,709,551,616", FormatParsed("(18446744073709551616)"))
}

func TestStrikeKeyOf(t *testing.T) {
	tests := []struct {
		input string
		want  StrikeKey
	}{
		{"3000", "3000"},
		{"3,000", "3000"},
		{"3000.0", "3000"},
		{"3000.00", "3000"},
		{"3000.0's", "3000"},
		{" 3000 ", "3000"},
		{"03000", "3000"},
		{"0", "0"},
		{"2,512.5", "25125"},
		{"atm", "ATM"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, StrikeKeyOf(tt.input))
		})
	}

	assert.Equal(t, StrikeKeyOf("3000"), StrikeKeyOf("3,000"))
	assert.Equal(t, StrikeKeyOf("3000"), StrikeKeyOf("3000.0's"))
}

func TestCleanSymbol(t *testing.T) {
	assert.Equal(t, "RELIANCE", CleanSymbol(" reliance "))
	assert.Equal(t, "MM", CleanSymbol("M&M"))
	assert.Equal(t, "BAJAJ_AUTO", CleanSymbol("Bajaj_Auto"))
	assert.Equal(t, "", CleanSymbol("--"))
}

func TestCanonicalMarker(t *testing.T) {
	for _, in := range []string{"yes", "Y", "1", "TRUE", " Yes "} {
		assert.Equal(t, "Yes", canonicalMarker(in), in)
	}
	assert.Equal(t, "Maybe", canonicalMarker(" Maybe "))
	assert.Equal(t, "", canonicalMarker(""))
}
