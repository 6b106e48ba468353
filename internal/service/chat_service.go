package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"negoshop/internal/domain"
	"negoshop/internal/negotiation"
	"negoshop/internal/presence"
	"negoshop/internal/security"
)

// Sentinel errors used by handlers to map to HTTP status codes.
var (
	ErrForbidden    = errors.New("forbidden")
	ErrOwnProduct   = errors.New("cannot negotiate on your own product")
	ErrEmptyMessage = errors.New("message content cannot be empty")
)

const historyLimit = 20

// Broadcaster pushes chat events to connected participants.
type Broadcaster interface {
	BroadcastToUsers(userIDs []int64, payload any)
}

// ChatService orchestrates the negotiation chat: it persists buyer messages,
// gates the automated assistant on merchant presence and shop settings, runs
// the analysis and policy steps, and persists the assistant's reply.
type ChatService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	products      domain.ProductRepository
	shops         domain.ShopRepository
	users         domain.UserRepository
	tracker       *presence.Tracker
	responder     *negotiation.Responder
	encryptor     *security.Encryptor
	broadcaster   Broadcaster
	log           *zap.Logger
}

func NewChatService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	products domain.ProductRepository,
	shops domain.ShopRepository,
	users domain.UserRepository,
	tracker *presence.Tracker,
	responder *negotiation.Responder,
	encryptor *security.Encryptor,
	broadcaster Broadcaster,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		conversations: conversations,
		messages:      messages,
		products:      products,
		shops:         shops,
		users:         users,
		tracker:       tracker,
		responder:     responder,
		encryptor:     encryptor,
		broadcaster:   broadcaster,
		log:           log,
	}
}

// StartNegotiation opens a conversation between the client and the product's
// merchant, reusing the existing open conversation for the same (client,
// product) pair if there is one.
func (s *ChatService) StartNegotiation(ctx context.Context, client *domain.User, productID int64) (*domain.Conversation, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	shop, err := s.shops.GetByID(ctx, product.ShopID)
	if err != nil {
		return nil, fmt.Errorf("get shop: %w", err)
	}
	if shop == nil {
		return nil, domain.ErrNotFound
	}
	if shop.MerchantID == client.ID {
		return nil, ErrOwnProduct
	}

	existing, err := s.conversations.FindOpen(ctx, productID, client.ID)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	conv := &domain.Conversation{
		ProductID:  productID,
		ClientID:   client.ID,
		MerchantID: shop.MerchantID,
		IsActive:   true,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func (s *ChatService) ListConversations(ctx context.Context, user *domain.User) ([]*domain.Conversation, error) {
	return s.conversations.ListForUser(ctx, user.ID, user.Role)
}

// HandleMessage runs the full per-message pipeline. The sender's message is
// always persisted; when the sender is the buyer and automation is eligible,
// an assistant reply is computed and persisted under the merchant's identity.
// The reply is nil when automation is suppressed.
func (s *ChatService) HandleMessage(ctx context.Context, sender *domain.User, conversationID int64, text string) (*MessageResponse, *MessageResponse, error) {
	if text == "" {
		return nil, nil, ErrEmptyMessage
	}
	if len([]rune(text)) > 5000 {
		return nil, nil, errors.New("message content exceeds 5000 characters")
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, nil, domain.ErrNotFound
	}
	if sender.ID != conv.ClientID && sender.ID != conv.MerchantID {
		return nil, nil, ErrForbidden
	}

	msg, err := s.persist(ctx, conv.ID, sender.ID, text, false)
	if err != nil {
		return nil, nil, err
	}
	senderResp := s.toResponse(ctx, msg)
	s.broadcast(conv, senderResp)

	// Merchants speak for themselves; automation only stands in for them.
	if sender.ID != conv.ClientID {
		return senderResp, nil, nil
	}

	reply := s.autoRespond(ctx, conv, text)
	if reply == nil {
		return senderResp, nil, nil
	}
	replyResp := s.toResponse(ctx, reply)
	s.broadcast(conv, replyResp)
	return senderResp, replyResp, nil
}

// autoRespond evaluates the gates and, when eligible, computes and persists
// the assistant's reply. All failures are logged and degrade to either the
// deterministic reply or silence; they never surface to the buyer.
func (s *ChatService) autoRespond(ctx context.Context, conv *domain.Conversation, text string) *domain.Message {
	now := time.Now()

	product, err := s.products.GetByID(ctx, conv.ProductID)
	if err != nil || product == nil {
		s.log.Error("product lookup failed, suppressing reply",
			zap.Int64("conversation_id", conv.ID), zap.Error(err))
		return nil
	}
	settings, err := s.shops.GetSettings(ctx, product.ShopID)
	if err != nil {
		s.log.Error("settings lookup failed, suppressing reply",
			zap.Int64("conversation_id", conv.ID), zap.Error(err))
		return nil
	}
	if settings == nil || !settings.IsActive {
		return nil
	}

	if !s.tracker.ShouldAutomationRespond(ctx, conv, now) {
		s.log.Debug("merchant is handling the conversation, assistant stays silent",
			zap.Int64("conversation_id", conv.ID))
		return nil
	}

	offer, hasOffer := negotiation.ExtractPrice(text)
	intent := negotiation.ClassifyIntent(text, hasOffer)

	var decision *negotiation.Decision
	if hasOffer {
		d := negotiation.Decide(product, settings, offer)
		decision = &d
	}

	replyText := s.responder.Generate(ctx, negotiation.GenerateInput{
		Intent:   intent,
		Decision: decision,
		Product:  product,
		Settings: settings,
		History:  s.history(ctx, conv),
		Text:     text,
	})

	reply, err := s.persist(ctx, conv.ID, conv.MerchantID, replyText, true)
	if err != nil {
		s.log.Error("failed to persist assistant reply",
			zap.Int64("conversation_id", conv.ID), zap.Error(err))
		return nil
	}

	s.log.Info("assistant replied",
		zap.Int64("conversation_id", conv.ID),
		zap.String("intent", string(intent)))
	return reply
}

// history converts the recent conversation tail into role-tagged turns for
// the text provider. Errors here only cost prompt context.
func (s *ChatService) history(ctx context.Context, conv *domain.Conversation) []negotiation.Turn {
	msgs, err := s.messages.ListForConversation(ctx, conv.ID, historyLimit)
	if err != nil {
		s.log.Warn("history lookup failed", zap.Int64("conversation_id", conv.ID), zap.Error(err))
		return nil
	}
	// Reverse to chronological order (DB returns DESC).
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	turns := make([]negotiation.Turn, 0, len(msgs))
	for _, m := range msgs {
		content, err := s.encryptor.Decrypt(m.Content)
		if err != nil {
			continue
		}
		role := negotiation.RoleAssistant
		if m.SenderID == conv.ClientID {
			role = negotiation.RoleUser
		}
		turns = append(turns, negotiation.Turn{Role: role, Content: content})
	}
	return turns
}

func (s *ChatService) persist(ctx context.Context, conversationID, senderID int64, text string, isAI bool) (*domain.Message, error) {
	encrypted, err := s.encryptor.Encrypt(text)
	if err != nil {
		return nil, fmt.Errorf("encrypt content: %w", err)
	}
	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        encrypted,
		IsAIResponse:   isAI,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

func (s *ChatService) broadcast(conv *domain.Conversation, payload *MessageResponse) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToUsers([]int64{conv.ClientID, conv.MerchantID}, map[string]any{
		"type": "message",
		"data": payload,
	})
}

func (s *ChatService) ListMessages(ctx context.Context, user *domain.User, conversationID int64, limit int) ([]*MessageResponse, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, domain.ErrNotFound
	}
	if user.ID != conv.ClientID && user.ID != conv.MerchantID {
		return nil, ErrForbidden
	}

	if limit <= 0 {
		limit = historyLimit * 10
	}
	msgs, err := s.messages.ListForConversation(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	res := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, s.toResponse(ctx, m))
	}
	return res, nil
}

// MessageResponse is the decrypted message DTO served to clients.
type MessageResponse struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"content"`
	IsAIResponse   bool      `json:"is_ai_response"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *ChatService) toResponse(ctx context.Context, m *domain.Message) *MessageResponse {
	content, err := s.encryptor.Decrypt(m.Content)
	if err != nil {
		content = m.Content
	}
	var username string
	if u, err := s.users.GetByID(ctx, m.SenderID); err == nil && u != nil {
		username = u.Username
	}
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderUsername: username,
		Content:        content,
		IsAIResponse:   m.IsAIResponse,
		CreatedAt:      m.CreatedAt,
	}
}
