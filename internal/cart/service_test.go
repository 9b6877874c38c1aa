package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/internal/inventory"
	product "github.com/angelmondragon/orderflow-backend/internal/products"
	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), product.NewRepository(conn), db.Wrap(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, nil, nil); err == nil {
		t.Fatal("expected error for missing repository")
	}
}

func TestAddItemCreatesCartAndCapturesPrice(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	p := dbtest.SeedProduct(t, conn, uuid.New(), "A", "100.00", 5)

	view, err := svc.AddItem(ctx, user, p.ID, 2)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if view.CartID == nil {
		t.Fatal("expected cart to be created")
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items: %+v", view.Items)
	}
	if !view.Items[0].PriceAtAdd.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("expected price at add 100, got %s", view.Items[0].PriceAtAdd)
	}
	if view.TotalItems != 2 || !view.TotalPrice.Equal(decimal.RequireFromString("200")) {
		t.Fatalf("unexpected totals: %d %s", view.TotalItems, view.TotalPrice)
	}
	if got := dbtest.Stock(t, conn, p.ID); got != 5 {
		t.Fatalf("adding to cart must not touch stock, got %d", got)
	}
}

func TestAddItemSumsExistingLineAndRevalidates(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	p := dbtest.SeedProduct(t, conn, uuid.New(), "A", "100.00", 5)

	if _, err := svc.AddItem(ctx, user, p.ID, 3); err != nil {
		t.Fatalf("add item: %v", err)
	}
	view, err := svc.AddItem(ctx, user, p.ID, 2)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 5 {
		t.Fatalf("expected one line with qty 5, got %+v", view.Items)
	}

	_, err = svc.AddItem(ctx, user, p.ID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	details, ok := typed.Details().(inventory.ShortageDetails)
	if !ok || details.Requested != 6 || details.Available != 5 {
		t.Fatalf("unexpected details: %+v", typed.Details())
	}
}

func TestAddItemKeepsOriginalPriceAfterPriceChange(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	p := dbtest.SeedProduct(t, conn, uuid.New(), "A", "100.00", 5)

	if _, err := svc.AddItem(ctx, user, p.ID, 1); err != nil {
		t.Fatalf("add item: %v", err)
	}
	if err := conn.Exec("UPDATE products SET price = ? WHERE id = ?", "150.00", p.ID).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}
	view, err := svc.AddItem(ctx, user, p.ID, 1)
	if err != nil {
		t.Fatalf("add again: %v", err)
	}
	line := view.Items[0]
	if !line.PriceAtAdd.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("price at add drifted to %s", line.PriceAtAdd)
	}
	if !line.CurrentPrice.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected current price 150, got %s", line.CurrentPrice)
	}
}

func TestAddItemErrors(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	p := dbtest.SeedProduct(t, conn, uuid.New(), "A", "100.00", 1)

	if _, err := svc.AddItem(ctx, user, uuid.New(), 1); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.AddItem(ctx, user, p.ID, 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
	if _, err := svc.AddItem(ctx, user, p.ID, 2); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateAndRemoveAreScopedToOwner(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	p := dbtest.SeedProduct(t, conn, uuid.New(), "A", "100.00", 10)

	view, err := svc.AddItem(ctx, owner, p.ID, 1)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := view.Items[0].ItemID

	if _, err := svc.UpdateItemQuantity(ctx, intruder, itemID, 2); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if _, err := svc.RemoveItem(ctx, intruder, itemID); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}

	view, err = svc.UpdateItemQuantity(ctx, owner, itemID, 4)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Items[0].Quantity != 4 || !view.Items[0].PriceAtAdd.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unexpected line after update: %+v", view.Items[0])
	}
	if _, err := svc.UpdateItemQuantity(ctx, owner, itemID, 11); !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict over stock, got %v", err)
	}

	view, err = svc.RemoveItem(ctx, owner, itemID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Items) != 0 || view.TotalItems != 0 || !view.TotalPrice.IsZero() {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestClearAndItemCount(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	owner := uuid.New()
	a := dbtest.SeedProduct(t, conn, owner, "A", "100.00", 5)
	b := dbtest.SeedProduct(t, conn, owner, "B", "50.00", 5)

	if count, err := svc.ItemCount(ctx, user); err != nil || count != 0 {
		t.Fatalf("expected zero count without cart, got %d %v", count, err)
	}
	if err := svc.Clear(ctx, user); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found clearing missing cart, got %v", err)
	}

	if _, err := svc.AddItem(ctx, user, a.ID, 2); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := svc.AddItem(ctx, user, b.ID, 3); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if count, err := svc.ItemCount(ctx, user); err != nil || count != 5 {
		t.Fatalf("expected count 5, got %d %v", count, err)
	}

	if err := svc.Clear(ctx, user); err != nil {
		t.Fatalf("clear: %v", err)
	}
	view, err := svc.GetCart(ctx, user)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if view.CartID == nil || len(view.Items) != 0 {
		t.Fatalf("expected retained empty cart, got %+v", view)
	}
}

func TestGetCartWithoutCartIsEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	view, err := svc.GetCart(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if view.CartID != nil || len(view.Items) != 0 || !view.TotalPrice.IsZero() {
		t.Fatalf("expected empty view, got %+v", view)
	}
}

func TestGetOrCreateCartIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	first, err := svc.GetOrCreateCart(ctx, user)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.GetOrCreateCart(ctx, user)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.CartID == nil || second.CartID == nil || *first.CartID != *second.CartID {
		t.Fatalf("expected same cart, got %v and %v", first.CartID, second.CartID)
	}
}

// concurrentLine inserts the product's line on the first lookup and reports
// it missing, as if another add committed between the lookup and the insert.
type concurrentLine struct {
	CartRepository
	tx       *gorm.DB
	qty      int
	inserted *bool
}

func (c concurrentLine) WithTx(tx *gorm.DB) CartRepository {
	return concurrentLine{CartRepository: c.CartRepository.WithTx(tx), tx: tx, qty: c.qty, inserted: c.inserted}
}

func (c concurrentLine) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	if !*c.inserted {
		*c.inserted = true
		err := c.tx.Omit("Product").Create(&models.CartItem{
			ID:         uuid.New(),
			CartID:     cartID,
			ProductID:  productID,
			Quantity:   c.qty,
			PriceAtAdd: decimal.NewFromInt(100),
		}).Error
		if err != nil {
			return nil, err
		}
		return nil, gorm.ErrRecordNotFound
	}
	return c.CartRepository.FindItemByProduct(ctx, cartID, productID)
}

func TestAddItemSumsIntoConcurrentlyInsertedLine(t *testing.T) {
	conn := dbtest.Open(t)
	inserted := false
	repo := concurrentLine{CartRepository: NewRepository(conn), qty: 2, inserted: &inserted}
	svc, err := NewService(repo, product.NewRepository(conn), db.Wrap(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	p := dbtest.SeedProduct(t, conn, uuid.New(), "A", "100.00", 5)

	view, err := svc.AddItem(ctx, uuid.New(), p.ID, 3)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if !inserted {
		t.Fatal("expected the competing line to be inserted")
	}
	if len(view.Items) != 1 || view.Items[0].Quantity != 5 {
		t.Fatalf("expected one line with qty 5, got %+v", view.Items)
	}

	_, err = svc.AddItem(ctx, view.UserID, p.ID, 1)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict past stock, got %v", err)
	}
}
