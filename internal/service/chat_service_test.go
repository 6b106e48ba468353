package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"negoshop/internal/domain"
	"negoshop/internal/negotiation"
	"negoshop/internal/presence"
	"negoshop/internal/security"
	"negoshop/internal/service"
)

// Mock repositories

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	args := m.Called(ctx, c)
	c.ID = 1
	return args.Error(0)
}

func (m *MockConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) FindOpen(ctx context.Context, productID, clientID int64) (*domain.Conversation, error) {
	args := m.Called(ctx, productID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) ListForUser(ctx context.Context, userID int64, role domain.UserRole) ([]*domain.Conversation, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Conversation), args.Error(1)
}

type MockMessageRepo struct {
	mock.Mock
	created []*domain.Message
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	msg.ID = int64(len(m.created) + 1)
	msg.CreatedAt = time.Now()
	m.created = append(m.created, msg)
	return args.Error(0)
}

func (m *MockMessageRepo) ListForConversation(ctx context.Context, conversationID int64, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) LastMerchantMessageAt(ctx context.Context, conversationID, merchantID int64) (*time.Time, error) {
	args := m.Called(ctx, conversationID, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockMessageRepo) RecentMerchantSenders(ctx context.Context, since time.Time) ([]int64, error) {
	return nil, nil
}

type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockProductRepo) ListForShop(ctx context.Context, shopID int64) ([]*domain.Product, error) {
	return nil, nil
}

type MockShopRepo struct {
	mock.Mock
}

func (m *MockShopRepo) Create(ctx context.Context, s *domain.Shop) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockShopRepo) GetByID(ctx context.Context, id int64) (*domain.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *MockShopRepo) GetByMerchant(ctx context.Context, merchantID int64) (*domain.Shop, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shop), args.Error(1)
}

func (m *MockShopRepo) GetSettings(ctx context.Context, shopID int64) (*domain.NegotiationSettings, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.NegotiationSettings), args.Error(1)
}

func (m *MockShopRepo) UpsertSettings(ctx context.Context, settings *domain.NegotiationSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	u.ID = 99
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockActivityRepo struct {
	mock.Mock
}

func (m *MockActivityRepo) Get(ctx context.Context, merchantID int64) (*domain.MerchantActivity, error) {
	args := m.Called(ctx, merchantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MerchantActivity), args.Error(1)
}

func (m *MockActivityRepo) Upsert(ctx context.Context, a *domain.MerchantActivity) error {
	return nil
}

func (m *MockActivityRepo) MarkOffline(ctx context.Context, staleBefore time.Time) (int64, error) {
	return 0, nil
}

func (m *MockActivityRepo) MarkOnline(ctx context.Context, activeSince time.Time) (int64, error) {
	return 0, nil
}

func (m *MockActivityRepo) SetChatActive(ctx context.Context, merchantIDs []int64) error {
	return nil
}

// Fixture

type chatFixture struct {
	conversations *MockConversationRepo
	messages      *MockMessageRepo
	products      *MockProductRepo
	shops         *MockShopRepo
	users         *MockUserRepo
	activities    *MockActivityRepo
	encryptor     *security.Encryptor
	svc           *service.ChatService
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	encryptor, err := security.NewEncryptor([]byte("test-encryption-key"))
	assert.NoError(t, err)

	f := &chatFixture{
		conversations: new(MockConversationRepo),
		messages:      new(MockMessageRepo),
		products:      new(MockProductRepo),
		shops:         new(MockShopRepo),
		users:         new(MockUserRepo),
		activities:    new(MockActivityRepo),
		encryptor:     encryptor,
	}
	tracker := presence.NewTracker(f.activities, f.messages, zap.NewNop())
	responder := negotiation.NewResponder(nil, zap.NewNop())
	f.svc = service.NewChatService(
		f.conversations, f.messages, f.products, f.shops, f.users,
		tracker, responder, encryptor, nil, zap.NewNop(),
	)
	return f
}

var (
	buyer    = &domain.User{ID: 10, Username: "awa", Role: domain.RoleClient, IsActive: true}
	merchant = &domain.User{ID: 20, Username: "moussa", Role: domain.RoleMerchant, IsActive: true}
)

func negotiationConversation() *domain.Conversation {
	return &domain.Conversation{ID: 7, ProductID: 3, ClientID: 10, MerchantID: 20, IsActive: true}
}

func negotiationProduct() *domain.Product {
	return &domain.Product{
		ID: 3, ShopID: 5, Name: "Sac en cuir",
		Price: decimal.RequireFromString("1000.00"), Stock: 4,
	}
}

func activeSettings() *domain.NegotiationSettings {
	return &domain.NegotiationSettings{
		ShopID:            5,
		IsActive:          true,
		MinPriceThreshold: decimal.RequireFromString("700.00"),
	}
}

// Tests

func TestHandleMessageLowOfferRejectedWithFloor(t *testing.T) {
	f := newChatFixture(t)
	conv := negotiationConversation()

	f.conversations.On("GetByID", mock.Anything, int64(7)).Return(conv, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.products.On("GetByID", mock.Anything, int64(3)).Return(negotiationProduct(), nil)
	f.shops.On("GetSettings", mock.Anything, int64(5)).Return(activeSettings(), nil)
	f.activities.On("Get", mock.Anything, int64(20)).Return(&domain.MerchantActivity{
		MerchantID: 20, IsOnline: false, LastSeen: time.Now().Add(-time.Hour),
	}, nil)
	f.messages.On("LastMerchantMessageAt", mock.Anything, int64(7), int64(20)).Return(nil, nil)
	f.messages.On("ListForConversation", mock.Anything, int64(7), mock.Anything).Return(nil, nil)
	f.users.On("GetByID", mock.Anything, int64(10)).Return(buyer, nil)
	f.users.On("GetByID", mock.Anything, int64(20)).Return(merchant, nil)

	buyerMsg, reply, err := f.svc.HandleMessage(context.Background(), buyer, 7, "je propose 650 CFA")
	assert.NoError(t, err)
	assert.NotNil(t, buyerMsg)
	assert.NotNil(t, reply)

	// The buyer's message is stored verbatim (encrypted) and unflagged.
	assert.Len(t, f.messages.created, 2)
	stored, err := f.encryptor.Decrypt(f.messages.created[0].Content)
	assert.NoError(t, err)
	assert.Equal(t, "je propose 650 CFA", stored)
	assert.False(t, f.messages.created[0].IsAIResponse)

	// The reply rejects and counter-proposes the configured floor.
	assert.True(t, reply.IsAIResponse)
	assert.Equal(t, int64(20), reply.SenderID)
	assert.Contains(t, reply.Content, "700")
	assert.True(t, f.messages.created[1].IsAIResponse)
}

func TestHandleMessageMidrangeOfferCounters(t *testing.T) {
	f := newChatFixture(t)
	conv := negotiationConversation()

	f.conversations.On("GetByID", mock.Anything, int64(7)).Return(conv, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.products.On("GetByID", mock.Anything, int64(3)).Return(negotiationProduct(), nil)
	f.shops.On("GetSettings", mock.Anything, int64(5)).Return(activeSettings(), nil)
	f.activities.On("Get", mock.Anything, int64(20)).Return(nil, nil)
	f.messages.On("LastMerchantMessageAt", mock.Anything, int64(7), int64(20)).Return(nil, nil)
	f.messages.On("ListForConversation", mock.Anything, int64(7), mock.Anything).Return(nil, nil)
	f.users.On("GetByID", mock.Anything, mock.Anything).Return(buyer, nil)

	_, reply, err := f.svc.HandleMessage(context.Background(), buyer, 7, "je propose 850 CFA")
	assert.NoError(t, err)
	assert.NotNil(t, reply)
	assert.Contains(t, reply.Content, "925.00")
}

func TestHandleMessageSuppressedWhenNegotiationInactive(t *testing.T) {
	f := newChatFixture(t)
	conv := negotiationConversation()

	f.conversations.On("GetByID", mock.Anything, int64(7)).Return(conv, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.products.On("GetByID", mock.Anything, int64(3)).Return(negotiationProduct(), nil)
	inactive := activeSettings()
	inactive.IsActive = false
	f.shops.On("GetSettings", mock.Anything, int64(5)).Return(inactive, nil)
	f.users.On("GetByID", mock.Anything, mock.Anything).Return(buyer, nil)

	buyerMsg, reply, err := f.svc.HandleMessage(context.Background(), buyer, 7, "je propose 850 CFA")
	assert.NoError(t, err)
	assert.NotNil(t, buyerMsg)
	assert.Nil(t, reply)
	assert.Len(t, f.messages.created, 1)
}

func TestHandleMessageSuppressedWhenMerchantPresent(t *testing.T) {
	f := newChatFixture(t)
	conv := negotiationConversation()

	f.conversations.On("GetByID", mock.Anything, int64(7)).Return(conv, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.products.On("GetByID", mock.Anything, int64(3)).Return(negotiationProduct(), nil)
	f.shops.On("GetSettings", mock.Anything, int64(5)).Return(activeSettings(), nil)
	f.activities.On("Get", mock.Anything, int64(20)).Return(&domain.MerchantActivity{
		MerchantID: 20, IsOnline: true, LastSeen: time.Now(),
	}, nil)
	f.users.On("GetByID", mock.Anything, mock.Anything).Return(buyer, nil)

	_, reply, err := f.svc.HandleMessage(context.Background(), buyer, 7, "je propose 850 CFA")
	assert.NoError(t, err)
	assert.Nil(t, reply)
	assert.Len(t, f.messages.created, 1)
}

func TestHandleMessageMerchantSenderNeverTriggersAssistant(t *testing.T) {
	f := newChatFixture(t)
	conv := negotiationConversation()

	f.conversations.On("GetByID", mock.Anything, int64(7)).Return(conv, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.users.On("GetByID", mock.Anything, mock.Anything).Return(merchant, nil)

	_, reply, err := f.svc.HandleMessage(context.Background(), merchant, 7, "je peux faire 900 CFA")
	assert.NoError(t, err)
	assert.Nil(t, reply)
	f.products.AssertNotCalled(t, "GetByID")
}

func TestHandleMessageGreetingGetsTemplatedWelcome(t *testing.T) {
	f := newChatFixture(t)
	conv := negotiationConversation()

	f.conversations.On("GetByID", mock.Anything, int64(7)).Return(conv, nil)
	f.messages.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.products.On("GetByID", mock.Anything, int64(3)).Return(negotiationProduct(), nil)
	f.shops.On("GetSettings", mock.Anything, int64(5)).Return(activeSettings(), nil)
	f.activities.On("Get", mock.Anything, int64(20)).Return(nil, nil)
	f.messages.On("LastMerchantMessageAt", mock.Anything, int64(7), int64(20)).Return(nil, nil)
	f.messages.On("ListForConversation", mock.Anything, int64(7), mock.Anything).Return(nil, nil)
	f.users.On("GetByID", mock.Anything, mock.Anything).Return(buyer, nil)

	_, reply, err := f.svc.HandleMessage(context.Background(), buyer, 7, "bonjour")
	assert.NoError(t, err)
	assert.NotNil(t, reply)
	assert.Contains(t, reply.Content, "Sac en cuir")
}

func TestHandleMessageRejectsNonParticipant(t *testing.T) {
	f := newChatFixture(t)
	conv := negotiationConversation()
	stranger := &domain.User{ID: 33, Username: "issa", Role: domain.RoleClient}

	f.conversations.On("GetByID", mock.Anything, int64(7)).Return(conv, nil)

	_, _, err := f.svc.HandleMessage(context.Background(), stranger, 7, "bonjour")
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestHandleMessageRejectsEmptyText(t *testing.T) {
	f := newChatFixture(t)
	_, _, err := f.svc.HandleMessage(context.Background(), buyer, 7, "")
	assert.ErrorIs(t, err, service.ErrEmptyMessage)
}

func TestStartNegotiationReusesOpenConversation(t *testing.T) {
	f := newChatFixture(t)
	existing := negotiationConversation()

	f.products.On("GetByID", mock.Anything, int64(3)).Return(negotiationProduct(), nil)
	f.shops.On("GetByID", mock.Anything, int64(5)).Return(&domain.Shop{ID: 5, MerchantID: 20}, nil)
	f.conversations.On("FindOpen", mock.Anything, int64(3), int64(10)).Return(existing, nil)

	conv, err := f.svc.StartNegotiation(context.Background(), buyer, 3)
	assert.NoError(t, err)
	assert.Equal(t, existing.ID, conv.ID)
	f.conversations.AssertNotCalled(t, "Create")
}

func TestStartNegotiationRefusesOwnProduct(t *testing.T) {
	f := newChatFixture(t)

	f.products.On("GetByID", mock.Anything, int64(3)).Return(negotiationProduct(), nil)
	f.shops.On("GetByID", mock.Anything, int64(5)).Return(&domain.Shop{ID: 5, MerchantID: 20}, nil)

	_, err := f.svc.StartNegotiation(context.Background(), merchant, 3)
	assert.ErrorIs(t, err, service.ErrOwnProduct)
}
