package negotiation

import (
	"regexp"
	"strings"
)

// Intent labels what a buyer message is about.
type Intent string

const (
	IntentGreeting           Intent = "greeting"
	IntentThanks             Intent = "thanks"
	IntentNegotiationInquiry Intent = "negotiation_inquiry"
	IntentTechnicalQuestion  Intent = "technical_question"
	IntentLogistics          Intent = "logistics"
	IntentPriceNegotiation   Intent = "price_negotiation"
	IntentGeneral            Intent = "general"
)

var (
	greetingPattern  = regexp.MustCompile(`(?i)\b(bonjour|bonsoir|salut|coucou|bjr|hello|hi)\b`)
	negotiationWords = []string{
		"prix", "réduction", "reduction", "remise", "rabais", "négoci", "negoci",
		"moins cher", "baisser", "discount", "geste", "marchand",
	}
	technicalPattern = regexp.MustCompile(
		`(?i)(comment|quelle?s?\s|c'est quoi|caractéristique|spécification|matériau|matière|dimension|taille|poids|couleur|fonctionne)`)
	logisticsWords = []string{
		"stock", "livraison", "livrer", "disponible", "retour", "expédition", "expedition", "délai", "delai",
	}
)

// ClassifyIntent labels a buyer message. A message that carries an extracted
// price offer is always a price negotiation; otherwise keyword and pattern
// tests run in a fixed priority order and the first match wins.
func ClassifyIntent(text string, hasOffer bool) Intent {
	if hasOffer {
		return IntentPriceNegotiation
	}

	lower := strings.ToLower(text)

	switch {
	case greetingPattern.MatchString(lower):
		return IntentGreeting
	case strings.Contains(lower, "merci"):
		return IntentThanks
	case containsAny(lower, negotiationWords):
		return IntentNegotiationInquiry
	case technicalPattern.MatchString(lower):
		return IntentTechnicalQuestion
	case containsAny(lower, logisticsWords):
		return IntentLogistics
	default:
		return IntentGeneral
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
