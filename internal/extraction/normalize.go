package extraction

import (
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var (
	nonNumeric   = regexp.MustCompile(`[^0-9.]`)
	nonDigit     = regexp.MustCompile(`[^0-9]`)
	nonWord      = regexp.MustCompile(`\W+`)
	zeroFraction = regexp.MustCompile(`(\d)\.0+(\D|$)`)
)

// ToNumber parses spreadsheet number text. "(1,234)" is negative, every
// character other than digits and '.' is dropped before parsing.
func ToNumber(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, false
	}

	neg := strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")
	if neg {
		s = s[1 : len(s)-1]
	}

	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if neg {
		d = d.Neg()
	}
	return d, true
}

// FormatDecimal renders d rounded half-to-even with comma grouping. The
// integer part is unbounded.
func FormatDecimal(d decimal.Decimal) string {
	return humanize.BigComma(d.RoundBank(0).BigInt())
}

// FormatNumber renders numeric text as a grouped integer. Empty text stays
// empty, text that is not a plain number is returned unchanged.
func FormatNumber(text string) string {
	if text == "" {
		return ""
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return text
	}
	return FormatDecimal(d)
}

// FormatParsed is FormatNumber(ToNumber(text)): "" when text is not a number.
func FormatParsed(text string) string {
	d, ok := ToNumber(text)
	if !ok {
		return ""
	}
	return FormatDecimal(d)
}

// StrikeKey is the comparable form of a strike price.
type StrikeKey string

// StrikeKeyOf canonicalizes strike text. Text carrying digits keys on the
// integer those digits spell, after zero fractions are dropped, so "3000",
// "3,000" and "3000.0" agree. Text without digits keys on its upper case.
func StrikeKeyOf(text string) StrikeKey {
	if text == "" {
		return ""
	}

	digits := nonDigit.ReplaceAllString(zeroFraction.ReplaceAllString(text, "$1$2"), "")
	if digits == "" {
		return StrikeKey(strings.ToUpper(text))
	}

	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	return StrikeKey(digits)
}

// CleanSymbol upper-cases a security symbol and drops non-word characters.
func CleanSymbol(s string) string {
	return nonWord.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "")
}

// canonicalMarker maps affirmative additional-strike markers to "Yes".
func canonicalMarker(raw string) string {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "yes", "y", "1", "true":
		return "Yes"
	}
	return raw
}
