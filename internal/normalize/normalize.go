// Package normalize parses raw spreadsheet cell values into typed field
// values. Every function is a pure transform: the same input string always
// yields the same output, and failures are reported as errors rather than
// coerced defaults so callers can decide whether a bad cell sinks the row.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	emailPattern   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// Email lowercases and trims an email address. The address must contain
// an "@" and a dotted domain.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	email = strings.Trim(email, `"'<>`)
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("invalid email %q", raw)
	}
	return email, nil
}

// Phone strips everything except digits and a leading plus sign.
// The result must have 7-15 digits.
func Phone(raw string) (string, error) {
	var b strings.Builder
	digits := 0
	for i, r := range strings.TrimSpace(raw) {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		}
	}
	if digits < 7 || digits > 15 {
		return "", fmt.Errorf("invalid phone %q", raw)
	}
	return b.String(), nil
}

// Amount parses a money value into an exact decimal. Currency symbols,
// thousands separators, and the accounting negative "(123.45)" form are
// handled. Sign policy (rejecting negatives outside refunds) is the
// caller's concern.
func Amount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = stripCurrencyMarks(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}

// stripCurrencyMarks removes leading/trailing currency symbols and codes.
func stripCurrencyMarks(s string) string {
	for _, sym := range []string{"$", "€", "£", "¥", "৳", "₹", "₽"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	// Trailing or leading ISO code, e.g. "42.50 USD" or "USD 42.50".
	fields := strings.Fields(s)
	if len(fields) == 2 {
		if _, err := Currency(fields[0]); err == nil {
			return fields[1]
		}
		if _, err := Currency(fields[1]); err == nil {
			return fields[0]
		}
	}
	return s
}

// Quantity parses a non-negative integer count. Blank defaults to 1.
// Float-formatted counts ("2.0") are accepted when integral.
func Quantity(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 1, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	n := int(f)
	if float64(n) != f || n < 0 {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return n, nil
}

// currencySymbols maps common symbols to their ISO-4217 code. "$" is
// treated as USD; sheets using other dollar currencies carry a code column.
var currencySymbols = map[string]string{
	"$":      "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
	"৳": "BDT",
	"₹": "INR",
	"₽": "RUB",
}

// Currency resolves a symbol or code to an uppercase ISO-4217 code.
// Unknown values are an error; the importer falls back to the org default.
func Currency(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty currency")
	}
	if code, ok := currencySymbols[s]; ok {
		return code, nil
	}
	code := strings.ToUpper(s)
	if c := money.GetCurrency(code); c != nil {
		return c.Code, nil
	}
	return "", fmt.Errorf("unknown currency %q", raw)
}

// Status folds an order status to lowercase snake_case.
func Status(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(s, " ", "_")
}

// refundStatuses are the normalized statuses under which a negative
// amount is legitimate.
var refundStatuses = map[string]bool{
	"refund":   true,
	"refunded": true,
	"returned": true,
	"return":   true,
}

// IsRefundStatus reports whether a normalized status marks a refund row.
func IsRefundStatus(status string) bool {
	return refundStatuses[status]
}

// SplitFullName splits "Ann Lee" into ("Ann", "Lee"). A single token
// becomes the first name; everything after the first token is the last.
func SplitFullName(full string) (first, last string) {
	parts := strings.Fields(strings.TrimSpace(full))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// JoinName composes a full name from its parts, tolerating blanks.
func JoinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
