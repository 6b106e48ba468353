package negotiation

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// priceCeiling is the exclusive upper bound for a plausible offer.
var priceCeiling = decimal.NewFromInt(10_000_000)

// pricePatterns are tried in order: the more specific a marker, the earlier
// it runs, with a bare trailing number as last resort. The leading
// (?:^|[^\d.,-]) guard keeps "-5 CFA" and digits inside larger numbers from
// matching.
var pricePatterns = []*regexp.Regexp{
	// currency-suffixed amounts: "250 CFA", "12 €", "80 euros", "300 francs"
	regexp.MustCompile(`(?i)(?:^|[^\d.,-])(\d+(?:\.\d+)?)\s*(?:cfa|fcfa|€|euros?|francs?)`),
	// explicit markers: "prix: 500", "je propose 650", "mon offre 700"
	regexp.MustCompile(`(?i)(?:prix|propos[eé]?|offre)\s*:?\s*(?:de\s+|est\s+de\s+)?(\d+(?:\.\d+)?)`),
	// prepositions: "à 400", "pour 450"
	regexp.MustCompile(`(?i)(?:^|\s)(?:à|a|pour)\s+(\d+(?:\.\d+)?)(?:\s|$)`),
	// bare trailing number
	regexp.MustCompile(`(?:^|[^\d.,-])(\d+(?:\.\d+)?)\s*$`),
}

// ExtractPrice parses a candidate monetary offer out of free-form buyer text.
// It returns false when no pattern yields a valid amount; it never errors.
func ExtractPrice(text string) (decimal.Decimal, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if normalized == "" {
		return decimal.Zero, false
	}

	for _, pattern := range pricePatterns {
		m := pattern.FindStringSubmatch(normalized)
		if m == nil {
			continue
		}
		v, err := decimal.NewFromString(m[1])
		if err != nil {
			continue
		}
		if v.IsPositive() && v.LessThan(priceCeiling) {
			return v, true
		}
	}
	return decimal.Zero, false
}
