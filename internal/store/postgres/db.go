package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"negoshop/internal/store"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewRepositories wires the PostgreSQL-backed repositories.
func NewRepositories(db *sql.DB) *store.Repositories {
	return &store.Repositories{
		Users:         NewUserRepo(db),
		Shops:         NewShopRepo(db),
		Products:      NewProductRepo(db),
		Conversations: NewConversationRepo(db),
		Messages:      NewMessageRepo(db),
		Activities:    NewActivityRepo(db),
	}
}

// Migrate runs idempotent DDL migrations for the negoshop schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              BIGSERIAL    PRIMARY KEY,
			username        VARCHAR(50)  UNIQUE NOT NULL,
			hashed_password VARCHAR(255) NOT NULL,
			role            VARCHAR(20)  NOT NULL,
			is_active       BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS shops (
			id          BIGSERIAL    PRIMARY KEY,
			merchant_id BIGINT       UNIQUE NOT NULL REFERENCES users(id),
			name        VARCHAR(200) NOT NULL,
			category    VARCHAR(100),
			description TEXT,
			created_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id          BIGSERIAL     PRIMARY KEY,
			shop_id     BIGINT        NOT NULL REFERENCES shops(id),
			name        VARCHAR(200)  NOT NULL,
			price       NUMERIC(10,2) NOT NULL DEFAULT 0,
			stock       INTEGER       NOT NULL DEFAULT 0,
			description TEXT,
			created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS negotiation_settings (
			shop_id                 BIGINT        PRIMARY KEY REFERENCES shops(id),
			is_active               BOOLEAN       NOT NULL DEFAULT FALSE,
			min_price_threshold     NUMERIC(10,2) NOT NULL DEFAULT 0,
			max_discount_percentage NUMERIC(5,2)  NOT NULL DEFAULT 10,
			updated_at              TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id          BIGSERIAL   PRIMARY KEY,
			product_id  BIGINT      NOT NULL REFERENCES products(id),
			client_id   BIGINT      NOT NULL REFERENCES users(id),
			merchant_id BIGINT      NOT NULL REFERENCES users(id),
			is_active   BOOLEAN     NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL   PRIMARY KEY,
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id),
			sender_id       BIGINT      NOT NULL REFERENCES users(id),
			content         TEXT        NOT NULL,
			is_ai_response  BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS merchant_activity (
			merchant_id       BIGINT       PRIMARY KEY REFERENCES users(id),
			session_key       VARCHAR(100) NOT NULL DEFAULT '',
			is_online         BOOLEAN      NOT NULL DEFAULT FALSE,
			is_active_in_chat BOOLEAN      NOT NULL DEFAULT FALSE,
			last_seen         TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			last_login        TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		// One open conversation per (buyer, product) pair.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_open
			ON conversations(product_id, client_id) WHERE is_active`,

		`CREATE INDEX IF NOT EXISTS idx_products_shop ON products(shop_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_client ON conversations(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_merchant ON conversations(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_merchant_activity_last_seen ON merchant_activity(last_seen)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
