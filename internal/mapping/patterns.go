package mapping

import (
	"regexp"
	"strings"

	"github.com/growmetrics/sheetimport/internal/normalize"
)

// Content probes report whether a single sample value has the shape of a
// given field. The classifier turns per-value hits into a match rate over
// the sample window, the same way detected patterns are rated against
// sample data in schema profiling tools.

var (
	orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9#_-]+$`)
	digitPattern   = regexp.MustCompile(`\d`)
	textPattern    = regexp.MustCompile(`^[^\d]+$`)
	isoCodePattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// contentProbes maps each tag to its per-value matcher. Tags without a
// probe rely entirely on the header signal.
var contentProbes = map[FieldTag]func(string) bool{
	FieldEmail: func(v string) bool {
		_, err := normalize.Email(v)
		return err == nil
	},
	FieldPhone: func(v string) bool {
		// Require a separator or plus so bare integers (quantities,
		// zip codes) do not read as phone numbers.
		if !strings.ContainsAny(v, "+-() ") {
			return false
		}
		_, err := normalize.Phone(v)
		return err == nil
	},
	FieldOrderDate: normalize.IsDate,
	FieldAmount: func(v string) bool {
		_, err := normalize.Amount(v)
		return err == nil
	},
	FieldQuantity: func(v string) bool {
		n, err := normalize.Quantity(v)
		return err == nil && n < 10000
	},
	FieldCurrency: func(v string) bool {
		if !isoCodePattern.MatchString(strings.TrimSpace(v)) && len([]rune(strings.TrimSpace(v))) > 1 {
			return false
		}
		_, err := normalize.Currency(v)
		return err == nil
	},
	FieldOrderID: func(v string) bool {
		v = strings.TrimSpace(v)
		return orderIDPattern.MatchString(v) && digitPattern.MatchString(v)
	},
	FieldStatus: func(v string) bool {
		return knownStatuses[normalize.Status(v)]
	},
	FieldCountry: func(v string) bool {
		v = strings.TrimSpace(v)
		if len(v) == 2 && textPattern.MatchString(v) {
			return true
		}
		return knownCountries[strings.ToLower(v)]
	},
}

// knownStatuses is the order-status vocabulary the probe recognizes.
var knownStatuses = map[string]bool{
	"completed": true, "complete": true, "pending": true, "paid": true,
	"processing": true, "shipped": true, "delivered": true,
	"cancelled": true, "canceled": true, "refunded": true, "refund": true,
	"returned": true, "failed": true, "confirmed": true, "unpaid": true,
}

// knownCountries covers the full-name spellings the probe recognizes;
// two-letter codes are accepted structurally.
var knownCountries = map[string]bool{
	"bangladesh": true, "india": true, "pakistan": true, "united states": true,
	"usa": true, "united kingdom": true, "canada": true, "australia": true,
	"germany": true, "france": true, "spain": true, "italy": true,
	"netherlands": true, "singapore": true, "malaysia": true, "indonesia": true,
	"philippines": true, "thailand": true, "vietnam": true, "japan": true,
	"china": true, "brazil": true, "mexico": true, "nigeria": true,
	"kenya": true, "south africa": true, "egypt": true, "turkey": true,
	"saudi arabia": true, "united arab emirates": true,
}
