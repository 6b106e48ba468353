package negotiation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"negoshop/internal/negotiation"
)

func TestExtractPrice(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{"currency suffix CFA", "250 CFA", "250", true},
		{"currency suffix euros", "je propose 80 euros", "80", true},
		{"euro symbol", "12 €", "12", true},
		{"francs", "je peux mettre 300 francs", "300", true},
		{"explicit marker", "prix: 500", "500", true},
		{"propose marker", "je propose 650", "650", true},
		{"preposition", "je le prends pour 450", "450", true},
		{"bare trailing number", "ok pour moi, disons 700", "700", true},
		{"comma decimal separator", "je propose 99,50 CFA", "99.5", true},
		{"no number", "bonjour", "", false},
		{"empty", "   ", "", false},
		{"over range", "15000000", "", false},
		{"negative", "-5 CFA", "", false},
		{"zero", "0 CFA", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := negotiation.ExtractPrice(tc.text)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got.String())
			}
		})
	}
}

func TestExtractPricePrefersSpecificMarkers(t *testing.T) {
	// The currency-suffixed amount must win over the bare trailing number.
	got, ok := negotiation.ExtractPrice("je propose 250 CFA pour les 2")
	assert.True(t, ok)
	assert.Equal(t, "250", got.String())
}
