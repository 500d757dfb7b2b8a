// Package dbtest opens throwaway SQLite databases carrying the settlement
// schema for repository tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS shoppers (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  shopper_id TEXT,
  total TEXT NOT NULL,
  service_fee TEXT NOT NULL,
  delivery_fee TEXT NOT NULL,
  status TEXT NOT NULL,
  combined_order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  price TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  product_price TEXT NOT NULL,
  product_final_price TEXT NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS reel_orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  reel_id TEXT NOT NULL,
  shopper_id TEXT,
  total TEXT NOT NULL,
  service_fee TEXT NOT NULL,
  delivery_fee TEXT NOT NULL,
  status TEXT NOT NULL,
  combined_order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS restaurant_orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  restaurant_id TEXT NOT NULL,
  shopper_id TEXT,
  total TEXT NOT NULL,
  delivery_fee TEXT NOT NULL,
  status TEXT NOT NULL,
  combined_order_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  shopper_id TEXT NOT NULL UNIQUE,
  available_balance TEXT NOT NULL,
  reserved_balance TEXT NOT NULL,
  last_updated DATETIME NOT NULL
);`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  amount TEXT NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL,
  related_order_id TEXT,
  related_reel_order_id TEXT,
  related_restaurant_order_id TEXT,
  description TEXT NOT NULL,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS system_configuration (
  id TEXT PRIMARY KEY,
  delivery_commission_percentage TEXT,
  updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS revenue (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  shop_id TEXT,
  shopper_id TEXT,
  order_id TEXT,
  source_order_id TEXT NOT NULL,
  order_kind TEXT NOT NULL,
  amount TEXT NOT NULL,
  products TEXT,
  commission_percentage TEXT,
  created_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_revenue_source_order_type ON revenue (source_order_id, type);`,
	`CREATE TABLE IF NOT EXISTS refunds (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  order_kind TEXT NOT NULL,
  amount TEXT NOT NULL,
  status TEXT NOT NULL,
  reason TEXT NOT NULL,
  user_id TEXT NOT NULL,
  paid INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL UNIQUE,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
);`,
}

// Open returns an isolated in-memory database with every settlement table.
// The pool is pinned to one connection so concurrent callers serialize the
// way row locks would serialize them on Postgres.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// MustCreate inserts each row or fails the test.
func MustCreate(t *testing.T, conn *gorm.DB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		if err := conn.Create(row).Error; err != nil {
			t.Fatalf("seed %T: %v", row, err)
		}
	}
}
