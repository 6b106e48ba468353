package negotiation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"negoshop/internal/domain"
)

// Turn is one role-tagged message in a completion prompt.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TextCompleter is an optional generative-text provider consulted for a more
// natural reply. Implementations must respect the context deadline.
type TextCompleter interface {
	Complete(ctx context.Context, turns []Turn, maxTokens int) (string, error)
}

const completionMaxTokens = 200

// Responder turns a classified intent and an optional policy decision into
// the assistant's reply text. When a TextCompleter is configured it is tried
// first; any provider failure falls back to the deterministic templates so
// the buyer never sees an error.
type Responder struct {
	completer TextCompleter
	log       *zap.Logger
}

func NewResponder(completer TextCompleter, log *zap.Logger) *Responder {
	return &Responder{completer: completer, log: log}
}

// GenerateInput carries everything the responder needs for one reply.
type GenerateInput struct {
	Intent   Intent
	Decision *Decision
	Product  *domain.Product
	Settings *domain.NegotiationSettings
	History  []Turn
	Text     string
}

// Generate produces the assistant's reply. It always returns non-empty text.
func (r *Responder) Generate(ctx context.Context, in GenerateInput) string {
	if r.completer != nil {
		reply, err := r.completer.Complete(ctx, r.buildPrompt(in), completionMaxTokens)
		if err != nil {
			r.log.Warn("text provider failed, using template reply",
				zap.String("intent", string(in.Intent)), zap.Error(err))
		} else if s := strings.TrimSpace(reply); s != "" {
			return s
		}
	}
	return r.templateReply(in)
}

func (r *Responder) buildPrompt(in GenerateInput) []Turn {
	min := EffectiveMinPrice(in.Product, in.Settings)
	maxDiscount := EffectiveMaxDiscount(in.Settings)

	var sb strings.Builder
	sb.WriteString("Tu es un assistant de négociation pour un site e-commerce. ")
	sb.WriteString("Ton rôle est d'aider un client et un commerçant à trouver un prix d'accord. ")
	fmt.Fprintf(&sb, "Le prix initial du produit '%s' est de %s CFA. ", in.Product.Name, in.Product.Price.StringFixed(2))
	fmt.Fprintf(&sb, "Le prix minimum de vente est de %s CFA. ", min.StringFixed(2))
	fmt.Fprintf(&sb, "La réduction maximale que tu peux offrir est de %s%%. ", maxDiscount.String())
	sb.WriteString("Si l'offre du client est inférieure au prix minimum, refuse poliment et propose le prix minimum. ")
	sb.WriteString("Si l'offre du client est raisonnable, fais une contre-offre. ")
	sb.WriteString("Si le client propose un prix supérieur ou égal au prix initial, accepte. ")
	sb.WriteString("Réponds de manière concise et professionnelle en français.")
	if in.Decision != nil {
		fmt.Fprintf(&sb, " Décision déjà calculée: %s à %s CFA; reste cohérent avec elle.",
			in.Decision.Outcome, in.Decision.Price.StringFixed(2))
	}

	turns := make([]Turn, 0, len(in.History)+2)
	turns = append(turns, Turn{Role: RoleSystem, Content: sb.String()})
	turns = append(turns, in.History...)
	turns = append(turns, Turn{Role: RoleUser, Content: in.Text})
	return turns
}

// templateReply is the deterministic fallback, always available.
func (r *Responder) templateReply(in GenerateInput) string {
	if in.Intent == IntentPriceNegotiation && in.Decision != nil {
		return r.decisionReply(in.Decision)
	}

	switch in.Intent {
	case IntentGreeting:
		return fmt.Sprintf(
			"Bonjour ! Bienvenue. Le produit '%s' est affiché à %s CFA. N'hésitez pas à me faire une proposition de prix.",
			in.Product.Name, in.Product.Price.StringFixed(2))
	case IntentThanks:
		return "Avec plaisir ! Je reste disponible si vous souhaitez discuter du prix ou en savoir plus sur le produit."
	case IntentNegotiationInquiry:
		return fmt.Sprintf(
			"Le prix affiché de '%s' est de %s CFA, mais je suis ouvert à la discussion. Quel prix proposez-vous ?",
			in.Product.Name, in.Product.Price.StringFixed(2))
	case IntentTechnicalQuestion:
		return "Bonne question ! Je transmets votre demande au commerçant, il vous répondra avec les détails techniques dès que possible."
	case IntentLogistics:
		if in.Product.Stock > 0 {
			return fmt.Sprintf(
				"Le produit '%s' est disponible (%d en stock). La livraison est organisée directement avec le commerçant après la commande.",
				in.Product.Name, in.Product.Stock)
		}
		return fmt.Sprintf(
			"Le produit '%s' est actuellement en rupture de stock. Le commerçant pourra vous indiquer la date de réapprovisionnement.",
			in.Product.Name)
	default:
		return "Merci pour votre message. Souhaitez-vous faire une proposition de prix pour ce produit ?"
	}
}

func (r *Responder) decisionReply(d *Decision) string {
	switch d.Outcome {
	case OutcomeAccept:
		return fmt.Sprintf(
			"J'accepte votre offre de %s CFA ! Vous pouvez passer commande au prix convenu.",
			d.Price.StringFixed(2))
	case OutcomeCounter:
		return fmt.Sprintf(
			"Votre offre de %s CFA est intéressante, mais je vous propose %s CFA. Qu'en dites-vous ?",
			d.Offer.StringFixed(2), d.Price.StringFixed(2))
	default:
		return fmt.Sprintf(
			"Je ne peux malheureusement pas accepter %s CFA. Mon meilleur prix est %s CFA.",
			d.Offer.StringFixed(2), d.Price.StringFixed(2))
	}
}
