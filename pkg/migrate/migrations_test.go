package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no %s migration file found", suffix)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestCartMigrationEnforcesOneLinePerProduct(t *testing.T) {
	content := readMigration(t, "create_carts")
	checks := []string{
		"CREATE TABLE IF NOT EXISTS carts",
		"CONSTRAINT carts_user_id_key UNIQUE (user_id)",
		"CONSTRAINT cart_items_cart_product_key UNIQUE (cart_id, product_id)",
		"FOREIGN KEY (cart_id) REFERENCES carts(id) ON DELETE CASCADE",
		"CHECK (quantity >= 1)",
		"DROP TABLE IF EXISTS cart_items",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOrdersMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "create_orders")
	checks := []string{
		"CREATE TYPE order_status AS ENUM",
		"'OUT_FOR_DELIVERY'",
		"CREATE TYPE payment_method AS ENUM ('CASH_ON_DELIVERY', 'STRIPE', 'RAZORPAY')",
		"CREATE TABLE IF NOT EXISTS orders",
		"delivery_otp char(6) NOT NULL",
		"CHECK (total_amount = subtotal + tax + shipping_charges)",
		"CREATE TABLE IF NOT EXISTS order_items",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product_id",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateAcceptsSourceAndEmbeddedMigrations(t *testing.T) {
	if err := migrate.Validate(os.DirFS("migrations")); err != nil {
		t.Fatalf("expected source migrations to validate: %v", err)
	}
	if err := migrate.Validate(migrate.Migrations()); err != nil {
		t.Fatalf("expected embedded migrations to validate: %v", err)
	}

	source, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	embedded, err := fs.Glob(migrate.Migrations(), "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(source) != len(embedded) {
		t.Fatalf("embedded %d migrations, source has %d", len(embedded), len(source))
	}
}

func TestValidateRejectsBadMigrations(t *testing.T) {
	body := []byte("-- +goose Up\n-- +goose Down\n")
	cases := map[string]fstest.MapFS{
		"bad name": {"create_orders.sql": {Data: body}},
		"duplicate version": {
			"20250101000000_a.sql": {Data: body},
			"20250101000000_b.sql": {Data: body},
		},
		"missing down": {"20250101000000_a.sql": {Data: []byte("-- +goose Up\n")}},
	}
	for name, fsys := range cases {
		if err := migrate.Validate(fsys); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	path, err := migrate.CreateSQLMigration(dir, "Add Order Index!", at)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(path) != "20250304050607_add_order_index.sql" {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.Validate(os.DirFS(dir)); err != nil {
		t.Fatalf("created migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "add order index", at); err == nil {
		t.Fatal("expected existing migration not to be overwritten")
	}
	if _, err := migrate.CreateSQLMigration(dir, "--", at); err == nil {
		t.Fatal("expected empty slug to be rejected")
	}
}

func TestApplySQLiteSchemaIsIdempotent(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:migrate_schema_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := migrate.ApplySQLiteSchema(conn); err != nil {
			t.Fatalf("apply schema (pass %d): %v", i+1, err)
		}
	}
	for _, table := range []string{"products", "carts", "cart_items", "orders", "order_items", "outbox_events", "outbox_dlq", "notifications", "shipping_profiles"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}
}
