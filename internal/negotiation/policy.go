package negotiation

import (
	"github.com/shopspring/decimal"

	"negoshop/internal/domain"
)

// Outcome is the policy verdict on a price offer.
type Outcome string

const (
	OutcomeAccept  Outcome = "accept"
	OutcomeCounter Outcome = "counter"
	OutcomeReject  Outcome = "reject"
)

// Decision is the computed result of evaluating a buyer's offer. Price is
// the amount the assistant commits to: the accepted offer, the midpoint
// counter-offer, or the floor proposed after a rejection.
type Decision struct {
	Outcome      Outcome
	Offer        decimal.Decimal
	Price        decimal.Decimal
	EffectiveMin decimal.Decimal
}

var (
	defaultMinRatio    = decimal.RequireFromString("0.7")
	defaultMaxDiscount = decimal.NewFromInt(10)
	two                = decimal.NewFromInt(2)
)

// EffectiveMinPrice is the floor below which automation never accepts: the
// configured threshold when positive, otherwise 70% of the list price.
// Settings may be nil.
func EffectiveMinPrice(product *domain.Product, settings *domain.NegotiationSettings) decimal.Decimal {
	if settings != nil && settings.MinPriceThreshold.IsPositive() {
		return settings.MinPriceThreshold
	}
	return product.Price.Mul(defaultMinRatio).Round(2)
}

// EffectiveMaxDiscount is the advertised discount ceiling in percent. It is
// surfaced to the text generator but not enforced as a numeric clamp; the
// minimum price is the binding constraint.
func EffectiveMaxDiscount(settings *domain.NegotiationSettings) decimal.Decimal {
	if settings != nil && settings.MaxDiscountPercentage.IsPositive() {
		return settings.MaxDiscountPercentage
	}
	return defaultMaxDiscount
}

// Decide evaluates a buyer offer against the product price and the shop's
// negotiation bounds. It is a pure function: same inputs, same decision.
func Decide(product *domain.Product, settings *domain.NegotiationSettings, offer decimal.Decimal) Decision {
	min := EffectiveMinPrice(product, settings)

	d := Decision{Offer: offer, EffectiveMin: min}
	switch {
	case offer.GreaterThanOrEqual(product.Price):
		d.Outcome = OutcomeAccept
		d.Price = offer
	case offer.GreaterThanOrEqual(min):
		d.Outcome = OutcomeCounter
		d.Price = offer.Add(product.Price).Div(two).Round(2)
	default:
		d.Outcome = OutcomeReject
		d.Price = min
	}
	return d
}
