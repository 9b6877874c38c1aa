package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

// Ledger mutates products.stock. Every call must run on a transaction handle
// owned by the caller so reservation commits or rolls back with the rest of
// the unit of work.
type Ledger struct{}

// NewLedger returns the stock ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// ShortageDetails names the product that could not be reserved.
type ShortageDetails struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Requested   int       `json:"requested"`
	Available   int       `json:"available"`
}

// Reserve decrements stock by qty only if enough is available. The check and
// the write are a single conditional UPDATE so concurrent reservations cannot
// drive stock below zero.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := checkArgs(tx, productID, qty); err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve stock")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var product models.Product
	err := tx.WithContext(ctx).Select("id", "name", "stock").First(&product, "id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock for "+product.Name).WithDetails(ShortageDetails{
		ProductID:   product.ID,
		ProductName: product.Name,
		Requested:   qty,
		Available:   product.Stock,
	})
}

// Restore returns qty units to the product. It is the compensating write for
// Reserve and is used when an order is cancelled.
func (l *Ledger) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if err := checkArgs(tx, productID, qty); err != nil {
		return err
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restore stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func checkArgs(tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock ledger requires a transaction")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}
