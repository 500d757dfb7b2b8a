package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plasa/shopper-settlement/pkg/migrate"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestRevenueMigrationEnforcesOneRecordPerOrderAndType(t *testing.T) {
	content := readMigration(t, "*_create_revenue_and_refunds.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS revenue",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_revenue_source_order_type ON revenue (source_order_id, type)",
		"CHECK (type IN ('commission','plasa_fee'))",
		"CREATE TABLE IF NOT EXISTS refunds",
		"paid boolean NOT NULL DEFAULT false",
		"DROP TABLE IF EXISTS revenue",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestWalletMigrationKeepsSingleOrderReference(t *testing.T) {
	content := readMigration(t, "*_create_wallets.sql")

	checks := []string{
		"CONSTRAINT ux_wallets_shopper_id UNIQUE (shopper_id)",
		"available_balance numeric(12,2) NOT NULL DEFAULT 0",
		"reserved_balance numeric(12,2) NOT NULL DEFAULT 0",
		"num_nonnulls(related_order_id, related_reel_order_id, related_restaurant_order_id) <= 1",
		"DROP TABLE IF EXISTS wallet_transactions",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestRestaurantOrdersCannotBeShopping(t *testing.T) {
	content := readMigration(t, "*_create_orders.sql")
	idx := strings.Index(content, "CREATE TABLE IF NOT EXISTS restaurant_orders")
	if idx < 0 {
		t.Fatal("restaurant_orders table missing")
	}
	block := content[idx:]
	end := strings.Index(block, ");")
	if end < 0 {
		t.Fatal("restaurant_orders table not terminated")
	}
	if strings.Contains(block[:end], "'shopping'") {
		t.Fatal("restaurant_orders status check must not allow shopping")
	}
}

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad-name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Payout Index")
	if err != nil {
		t.Fatalf("CreateSQLMigration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_payout_index.sql") {
		t.Fatalf("unexpected migration path %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	fsys, err := migrate.EmbeddedFS()
	if err != nil {
		t.Fatalf("EmbeddedFS: %v", err)
	}
	if err := migrate.ValidateFS(fsys); err != nil {
		t.Fatalf("ValidateFS: %v", err)
	}
}

func TestValidateDirRejectsUnbalancedStatements(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_broken.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected unbalanced statement error")
	}
}
