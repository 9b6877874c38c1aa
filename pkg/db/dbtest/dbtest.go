// Package dbtest opens isolated in-memory sqlite databases carrying the
// application schema, for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/migrate"
)

// Open returns a fresh database unique to the calling test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate.ApplySQLiteSchema(conn); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// SeedProduct inserts a product owned by ownerID.
func SeedProduct(t testing.TB, conn *gorm.DB, ownerID uuid.UUID, name, price string, stock int) models.Product {
	t.Helper()

	product := models.Product{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Name:    name,
		Price:   decimal.RequireFromString(price),
		Stock:   stock,
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

// Stock reads the current stock of a product.
func Stock(t testing.TB, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()

	var product models.Product
	if err := conn.Select("stock").Where("id = ?", productID).Take(&product).Error; err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return product.Stock
}
