package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"negoshop/internal/store"
)

// Open opens (and creates if needed) the embedded SQLite database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent request handlers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// NewRepositories wires the SQLite-backed repositories.
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

// Migrate runs idempotent DDL migrations for the negoshop schema on SQLite.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			username        TEXT    UNIQUE NOT NULL,
			hashed_password TEXT    NOT NULL,
			role            TEXT    NOT NULL,
			is_active       BOOLEAN NOT NULL DEFAULT TRUE,
			created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS shops (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			merchant_id INTEGER UNIQUE NOT NULL REFERENCES users(id),
			name        TEXT    NOT NULL,
			category    TEXT,
			description TEXT,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			shop_id     INTEGER NOT NULL REFERENCES shops(id),
			name        TEXT    NOT NULL,
			price       TEXT    NOT NULL DEFAULT '0',
			stock       INTEGER NOT NULL DEFAULT 0,
			description TEXT,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS negotiation_settings (
			shop_id                 INTEGER PRIMARY KEY REFERENCES shops(id),
			is_active               BOOLEAN NOT NULL DEFAULT FALSE,
			min_price_threshold     TEXT    NOT NULL DEFAULT '0',
			max_discount_percentage TEXT    NOT NULL DEFAULT '10',
			updated_at              TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			product_id  INTEGER NOT NULL REFERENCES products(id),
			client_id   INTEGER NOT NULL REFERENCES users(id),
			merchant_id INTEGER NOT NULL REFERENCES users(id),
			is_active   BOOLEAN NOT NULL DEFAULT TRUE,
			created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversations(id),
			sender_id       INTEGER NOT NULL REFERENCES users(id),
			content         TEXT    NOT NULL,
			is_ai_response  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS merchant_activity (
			merchant_id       INTEGER PRIMARY KEY REFERENCES users(id),
			session_key       TEXT    NOT NULL DEFAULT '',
			is_online         BOOLEAN NOT NULL DEFAULT FALSE,
			is_active_in_chat BOOLEAN NOT NULL DEFAULT FALSE,
			last_seen         TIMESTAMP NOT NULL,
			last_login        TIMESTAMP NOT NULL
		)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_open
			ON conversations(product_id, client_id) WHERE is_active`,

		`CREATE INDEX IF NOT EXISTS idx_products_shop ON products(shop_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_client ON conversations(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_merchant ON conversations(merchant_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
		}
	}
	return nil
}
