package domain

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ShopRepository defines persistence operations for shops and their
// negotiation settings (one-to-one with the shop).
type ShopRepository interface {
	Create(ctx context.Context, s *Shop) error
	GetByID(ctx context.Context, id int64) (*Shop, error)
	GetByMerchant(ctx context.Context, merchantID int64) (*Shop, error)
	GetSettings(ctx context.Context, shopID int64) (*NegotiationSettings, error)
	UpsertSettings(ctx context.Context, settings *NegotiationSettings) error
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	ListForShop(ctx context.Context, shopID int64) ([]*Product, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	FindOpen(ctx context.Context, productID, clientID int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64, role UserRole) ([]*Conversation, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListForConversation(ctx context.Context, conversationID int64, limit int) ([]*Message, error)
	// LastMerchantMessageAt returns the timestamp of the merchant's most
	// recent hand-written message in the conversation, nil if there is none.
	// Assistant replies do not count as merchant activity.
	LastMerchantMessageAt(ctx context.Context, conversationID, merchantID int64) (*time.Time, error)
	// RecentMerchantSenders lists merchants that authored a message in any of
	// their conversations since the given time.
	RecentMerchantSenders(ctx context.Context, since time.Time) ([]int64, error)
}

// ActivityRepository defines persistence operations for merchant presence.
type ActivityRepository interface {
	// Get returns nil, nil when no activity record exists for the merchant.
	Get(ctx context.Context, merchantID int64) (*MerchantActivity, error)
	Upsert(ctx context.Context, a *MerchantActivity) error
	// MarkOffline demotes records whose last_seen is before the given time.
	MarkOffline(ctx context.Context, staleBefore time.Time) (int64, error)
	// MarkOnline promotes records whose last_seen is at or after the given time.
	MarkOnline(ctx context.Context, activeSince time.Time) (int64, error)
	// SetChatActive flags the listed merchants as active in chat and clears
	// the flag for everyone else.
	SetChatActive(ctx context.Context, merchantIDs []int64) error
}
