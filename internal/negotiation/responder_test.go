package negotiation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"negoshop/internal/domain"
	"negoshop/internal/negotiation"
)

type failingCompleter struct{}

func (failingCompleter) Complete(ctx context.Context, turns []negotiation.Turn, maxTokens int) (string, error) {
	return "", errors.New("provider unavailable")
}

type cannedCompleter struct {
	reply string
	turns []negotiation.Turn
}

func (c *cannedCompleter) Complete(ctx context.Context, turns []negotiation.Turn, maxTokens int) (string, error) {
	c.turns = turns
	return c.reply, nil
}

func testProduct() *domain.Product {
	return &domain.Product{Name: "Sac en cuir", Price: dec("1000.00"), Stock: 3}
}

func TestGenerateFallbackForEveryIntent(t *testing.T) {
	// With the provider always failing, every intent must still produce text.
	r := negotiation.NewResponder(failingCompleter{}, zap.NewNop())
	decision := negotiation.Decide(testProduct(), nil, dec("650"))

	intents := []negotiation.Intent{
		negotiation.IntentGreeting,
		negotiation.IntentThanks,
		negotiation.IntentNegotiationInquiry,
		negotiation.IntentTechnicalQuestion,
		negotiation.IntentLogistics,
		negotiation.IntentPriceNegotiation,
		negotiation.IntentGeneral,
	}
	for _, intent := range intents {
		in := negotiation.GenerateInput{Intent: intent, Product: testProduct(), Text: "test"}
		if intent == negotiation.IntentPriceNegotiation {
			in.Decision = &decision
		}
		reply := r.Generate(context.Background(), in)
		assert.NotEmpty(t, reply, "intent %s", intent)
	}
}

func TestGenerateDecisionWording(t *testing.T) {
	r := negotiation.NewResponder(nil, zap.NewNop())
	product := testProduct()
	settings := &domain.NegotiationSettings{MinPriceThreshold: dec("700.00")}

	accept := negotiation.Decide(product, settings, dec("1000"))
	reply := r.Generate(context.Background(), negotiation.GenerateInput{
		Intent: negotiation.IntentPriceNegotiation, Decision: &accept, Product: product,
	})
	assert.Contains(t, reply, "1000.00")

	counter := negotiation.Decide(product, settings, dec("850"))
	reply = r.Generate(context.Background(), negotiation.GenerateInput{
		Intent: negotiation.IntentPriceNegotiation, Decision: &counter, Product: product,
	})
	assert.Contains(t, reply, "925.00")

	reject := negotiation.Decide(product, settings, dec("650"))
	reply = r.Generate(context.Background(), negotiation.GenerateInput{
		Intent: negotiation.IntentPriceNegotiation, Decision: &reject, Product: product,
	})
	assert.Contains(t, reply, "700.00")
	assert.Contains(t, reply, "650.00")
}

func TestGenerateStockReplies(t *testing.T) {
	r := negotiation.NewResponder(nil, zap.NewNop())

	inStock := r.Generate(context.Background(), negotiation.GenerateInput{
		Intent: negotiation.IntentLogistics, Product: testProduct(),
	})
	assert.Contains(t, inStock, "3")

	empty := testProduct()
	empty.Stock = 0
	outOfStock := r.Generate(context.Background(), negotiation.GenerateInput{
		Intent: negotiation.IntentLogistics, Product: empty,
	})
	assert.Contains(t, outOfStock, "rupture")
}

func TestGeneratePrefersProviderReply(t *testing.T) {
	completer := &cannedCompleter{reply: "Je vous propose 900 CFA."}
	r := negotiation.NewResponder(completer, zap.NewNop())
	product := testProduct()
	decision := negotiation.Decide(product, nil, dec("850"))

	reply := r.Generate(context.Background(), negotiation.GenerateInput{
		Intent:   negotiation.IntentPriceNegotiation,
		Decision: &decision,
		Product:  product,
		History:  []negotiation.Turn{{Role: negotiation.RoleUser, Content: "bonjour"}},
		Text:     "je propose 850 CFA",
	})
	assert.Equal(t, "Je vous propose 900 CFA.", reply)

	// The prompt carries the system framing, the history, and the latest text.
	assert.Equal(t, negotiation.RoleSystem, completer.turns[0].Role)
	assert.Contains(t, completer.turns[0].Content, "Sac en cuir")
	assert.Equal(t, "bonjour", completer.turns[1].Content)
	assert.Equal(t, "je propose 850 CFA", completer.turns[len(completer.turns)-1].Content)
}

func TestGenerateBlankProviderReplyFallsBack(t *testing.T) {
	completer := &cannedCompleter{reply: "   "}
	r := negotiation.NewResponder(completer, zap.NewNop())

	reply := r.Generate(context.Background(), negotiation.GenerateInput{
		Intent: negotiation.IntentGreeting, Product: testProduct(),
	})
	assert.NotEmpty(t, reply)
	assert.Contains(t, reply, "Sac en cuir")
}
