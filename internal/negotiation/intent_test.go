package negotiation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"negoshop/internal/negotiation"
)

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		hasOffer bool
		want     negotiation.Intent
	}{
		{"offer always wins", "le prix est trop élevé, je propose 500", true, negotiation.IntentPriceNegotiation},
		{"greeting", "Bonjour, comment allez-vous ?", false, negotiation.IntentGreeting},
		{"thanks", "merci beaucoup !", false, negotiation.IntentThanks},
		{"negotiation inquiry", "est-ce que le prix est négociable ?", false, negotiation.IntentNegotiationInquiry},
		{"discount vocabulary", "vous pouvez faire une remise ?", false, negotiation.IntentNegotiationInquiry},
		{"technical question", "quelles sont les dimensions du produit ?", false, negotiation.IntentTechnicalQuestion},
		{"logistics", "c'est toujours disponible ? et la livraison ?", false, negotiation.IntentLogistics},
		{"general fallback", "je vais y réfléchir", false, negotiation.IntentGeneral},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, negotiation.ClassifyIntent(tc.text, tc.hasOffer))
		})
	}
}

func TestClassifyIntentPriority(t *testing.T) {
	// Negotiation keywords without an extracted offer stay an inquiry...
	assert.Equal(t, negotiation.IntentNegotiationInquiry,
		negotiation.ClassifyIntent("on peut discuter du prix ?", false))
	// ...but the same vocabulary with a number is a price negotiation.
	assert.Equal(t, negotiation.IntentPriceNegotiation,
		negotiation.ClassifyIntent("on peut discuter du prix ? 800 CFA", true))
	// Greeting outranks the negotiation vocabulary.
	assert.Equal(t, negotiation.IntentGreeting,
		negotiation.ClassifyIntent("bonjour, le prix est négociable ?", false))
}
