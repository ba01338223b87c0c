package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema is shared by both dialects. {{serial}} and {{money}} are replaced
// per dialect; timestamps are fixed-width UTC text so they sort lexically.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id               {{serial}},
    name             TEXT NOT NULL UNIQUE,
    email            TEXT NOT NULL UNIQUE,
    password_hash    TEXT NOT NULL,
    cnpj             TEXT NOT NULL UNIQUE,
    phone            TEXT NOT NULL DEFAULT '',
    employee_count   TEXT NOT NULL DEFAULT '',
    monthly_revenue  TEXT NOT NULL DEFAULT '',
    role             TEXT NOT NULL DEFAULT 'user',
    created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS suppliers (
    id       TEXT PRIMARY KEY,
    name     TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    rating   DOUBLE PRECISION NOT NULL DEFAULT 0,
    reviews  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS products (
    id                  TEXT PRIMARY KEY,
    title               TEXT NOT NULL,
    description         TEXT NOT NULL DEFAULT '',
    img                 TEXT NOT NULL DEFAULT '',
    category_id         TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
    supplier_id         TEXT NOT NULL REFERENCES suppliers(id) ON DELETE CASCADE,
    shipping_from       TEXT NOT NULL DEFAULT '',
    weight              TEXT NOT NULL DEFAULT '',
    dimensions          TEXT NOT NULL DEFAULT '',
    moq                 INTEGER NOT NULL DEFAULT 1,
    tags                TEXT NOT NULL DEFAULT '[]',
    stock_quantity      INTEGER NOT NULL DEFAULT 0,
    reserved_quantity   INTEGER NOT NULL DEFAULT 0,
    low_stock_threshold INTEGER NOT NULL DEFAULT 10,
    max_order_quantity  INTEGER NOT NULL DEFAULT 0,
    user_limit_quantity INTEGER NOT NULL DEFAULT 1,
    cost_price          {{money}} NOT NULL DEFAULT '0',
    selling_price       {{money}} NOT NULL DEFAULT '0',
    discount_price      {{money}} NOT NULL DEFAULT '0',
    price_tiers         TEXT NOT NULL DEFAULT '[]',
    variations          TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);

CREATE TABLE IF NOT EXISTS carts (
    id         {{serial}},
    user_id    BIGINT NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cart_items (
    id         {{serial}},
    cart_id    BIGINT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
    product_id TEXT NOT NULL,
    quantity   INTEGER NOT NULL,
    unit_price {{money}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id);

CREATE TABLE IF NOT EXISTS orders (
    id                 TEXT PRIMARY KEY,
    user_id            BIGINT NOT NULL,
    kind               TEXT NOT NULL DEFAULT 'standard',
    status             TEXT NOT NULL DEFAULT 'Pending',
    status_step        INTEGER NOT NULL DEFAULT 1,
    status_text        TEXT NOT NULL DEFAULT '',
    status_detail_text TEXT NOT NULL DEFAULT '',
    customer_name      TEXT NOT NULL,
    total_amount       {{money}} NOT NULL,
    shipping_street    TEXT NOT NULL DEFAULT '',
    shipping_city      TEXT NOT NULL DEFAULT '',
    shipping_zipcode   TEXT NOT NULL DEFAULT '',
    payment_method     TEXT NOT NULL DEFAULT '',
    notes              TEXT NOT NULL DEFAULT '',
    reject_reason      TEXT NOT NULL DEFAULT '',
    receipt_path       TEXT NOT NULL DEFAULT '',
    stock_reserved     BOOLEAN NOT NULL DEFAULT FALSE,
    order_date         TEXT NOT NULL,
    updated_at         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, order_date);
CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status, kind);

CREATE TABLE IF NOT EXISTS order_items (
    id            {{serial}},
    order_id      TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id    TEXT NOT NULL,
    product_name  TEXT NOT NULL,
    product_image TEXT NOT NULL DEFAULT '',
    quantity      INTEGER NOT NULL,
    price         {{money}} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS sample_purchases (
    id                {{serial}},
    user_id           BIGINT NOT NULL,
    product_id        TEXT NOT NULL,
    order_id          TEXT NOT NULL DEFAULT '',
    payment_intent_id TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'purchased',
    created_at        TEXT NOT NULL,
    UNIQUE (user_id, product_id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sample_purchases_intent
    ON sample_purchases(payment_intent_id) WHERE payment_intent_id <> '';
`

func (s *Store) schema() string {
	serial, money := "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"
	if s.dialect == DialectPostgres {
		serial, money = "BIGSERIAL PRIMARY KEY", "NUMERIC(12,2)"
	}
	return strings.NewReplacer("{{serial}}", serial, "{{money}}", money).Replace(schema)
}

// Migrate applies the schema. Idempotent thanks to IF NOT EXISTS.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(s.schema(), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlstore: apply schema: %w", err)
		}
	}
	return nil
}
