package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole distinguishes the two kinds of account. It is resolved once at
// registration and carried explicitly instead of being inferred per call.
type UserRole string

const (
	RoleMerchant UserRole = "merchant"
	RoleClient   UserRole = "client"
)

// User represents an application user (merchant or client).
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Role           UserRole  `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Shop is a merchant's storefront. One shop per merchant.
type Shop struct {
	ID          int64     `db:"id" json:"id"`
	MerchantID  int64     `db:"merchant_id" json:"merchant_id"`
	Name        string    `db:"name" json:"name"`
	Category    *string   `db:"category" json:"category,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Product is an item listed in a shop.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	ShopID      int64           `db:"shop_id" json:"shop_id"`
	Name        string          `db:"name" json:"name"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Stock       int             `db:"stock" json:"stock"`
	Description *string         `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// NegotiationSettings configures the automated negotiation assistant for a
// shop. A zero MinPriceThreshold means "use the default floor" (70% of the
// product's list price). MaxDiscountPercentage is surfaced to the text
// generator; the hard floor enforced by the policy is the minimum price.
type NegotiationSettings struct {
	ShopID                int64           `db:"shop_id" json:"shop_id"`
	IsActive              bool            `db:"is_active" json:"is_active"`
	MinPriceThreshold     decimal.Decimal `db:"min_price_threshold" json:"min_price_threshold"`
	MaxDiscountPercentage decimal.Decimal `db:"max_discount_percentage" json:"max_discount_percentage"`
	UpdatedAt             time.Time       `db:"updated_at" json:"updated_at"`
}

// Conversation links one buyer, one merchant, and one product. At most one
// open conversation exists per (client, product) pair.
type Conversation struct {
	ID         int64     `db:"id" json:"id"`
	ProductID  int64     `db:"product_id" json:"product_id"`
	ClientID   int64     `db:"client_id" json:"client_id"`
	MerchantID int64     `db:"merchant_id" json:"merchant_id"`
	IsActive   bool      `db:"is_active" json:"is_active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Message is a single chat message. Assistant replies are stored under the
// merchant's identity with IsAIResponse set.
type Message struct {
	ID             int64     `db:"id"`
	ConversationID int64     `db:"conversation_id"`
	SenderID       int64     `db:"sender_id"`
	Content        string    `db:"content"` // encrypted at rest
	IsAIResponse   bool      `db:"is_ai_response"`
	CreatedAt      time.Time `db:"created_at"`
}

// MerchantActivity tracks a merchant's recent presence. Updated by the
// per-request activity middleware and a periodic reconciliation sweep;
// read by the presence gate before automation responds.
type MerchantActivity struct {
	MerchantID     int64     `db:"merchant_id" json:"merchant_id"`
	SessionKey     string    `db:"session_key" json:"-"`
	IsOnline       bool      `db:"is_online" json:"is_online"`
	IsActiveInChat bool      `db:"is_active_in_chat" json:"is_active_in_chat"`
	LastSeen       time.Time `db:"last_seen" json:"last_seen"`
	LastLogin      time.Time `db:"last_login" json:"last_login"`
}

// MinutesSinceLastSeen reports how long ago the merchant was last active.
func (a *MerchantActivity) MinutesSinceLastSeen(now time.Time) float64 {
	return now.Sub(a.LastSeen).Minutes()
}
