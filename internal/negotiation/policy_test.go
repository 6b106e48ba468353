package negotiation_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"negoshop/internal/domain"
	"negoshop/internal/negotiation"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDecideBoundaries(t *testing.T) {
	product := &domain.Product{Name: "Sac en cuir", Price: dec("1000.00")}
	settings := &domain.NegotiationSettings{
		IsActive:          true,
		MinPriceThreshold: dec("700.00"),
	}

	cases := []struct {
		name      string
		offer     string
		outcome   negotiation.Outcome
		wantPrice string
	}{
		{"at list price", "1000", negotiation.OutcomeAccept, "1000"},
		{"above list price", "1200", negotiation.OutcomeAccept, "1200"},
		{"midrange counter", "850", negotiation.OutcomeCounter, "925"},
		{"exactly at floor counters", "700", negotiation.OutcomeCounter, "850"},
		{"just below floor rejects", "699.99", negotiation.OutcomeReject, "700"},
		{"lowball rejects at floor", "100", negotiation.OutcomeReject, "700"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := negotiation.Decide(product, settings, dec(tc.offer))
			assert.Equal(t, tc.outcome, d.Outcome)
			assert.True(t, dec(tc.wantPrice).Equal(d.Price),
				"want %s, got %s", tc.wantPrice, d.Price)
		})
	}
}

func TestDecideDefaultFloor(t *testing.T) {
	product := &domain.Product{Name: "Chaussures", Price: dec("1000.00")}

	// No settings at all: floor defaults to 70% of the list price.
	d := negotiation.Decide(product, nil, dec("650"))
	assert.Equal(t, negotiation.OutcomeReject, d.Outcome)
	assert.True(t, dec("700").Equal(d.Price))

	// Zero threshold means the same default.
	settings := &domain.NegotiationSettings{IsActive: true}
	d = negotiation.Decide(product, settings, dec("750"))
	assert.Equal(t, negotiation.OutcomeCounter, d.Outcome)
	assert.True(t, dec("875").Equal(d.Price))
}

func TestDecideIsPure(t *testing.T) {
	product := &domain.Product{Name: "Montre", Price: dec("500.00")}
	settings := &domain.NegotiationSettings{MinPriceThreshold: dec("400.00")}

	first := negotiation.Decide(product, settings, dec("450"))
	second := negotiation.Decide(product, settings, dec("450"))
	assert.Equal(t, first.Outcome, second.Outcome)
	assert.True(t, first.Price.Equal(second.Price))
	assert.True(t, first.EffectiveMin.Equal(second.EffectiveMin))
}

func TestEffectiveMaxDiscountDefaults(t *testing.T) {
	assert.True(t, dec("10").Equal(negotiation.EffectiveMaxDiscount(nil)))
	assert.True(t, dec("15").Equal(negotiation.EffectiveMaxDiscount(
		&domain.NegotiationSettings{MaxDiscountPercentage: dec("15")})))
}
