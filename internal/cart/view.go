package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
)

// CartView is the read model returned to callers. Totals are derived from the
// lines on every read and never stored.
type CartView struct {
	CartID     *uuid.UUID      `json:"cart_id"`
	UserID     uuid.UUID       `json:"user_id"`
	Items      []ItemView      `json:"items"`
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	UpdatedAt  *time.Time      `json:"updated_at"`
}

// ItemView is one cart line with the live product data alongside the captured price.
type ItemView struct {
	ItemID         uuid.UUID       `json:"cart_item_id"`
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	ImageURL       *string         `json:"image_url,omitempty"`
	AvailableStock int             `json:"available_stock"`
	CurrentPrice   decimal.Decimal `json:"current_price"`
	Quantity       int             `json:"quantity"`
	PriceAtAdd     decimal.Decimal `json:"price_at_add"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// LineSubtotal is priceAtAdd multiplied by quantity.
func LineSubtotal(item models.CartItem) decimal.Decimal {
	return item.PriceAtAdd.Mul(decimal.NewFromInt(int64(item.Quantity)))
}

func emptyView(userID uuid.UUID) *CartView {
	return &CartView{
		UserID:     userID,
		Items:      []ItemView{},
		TotalPrice: decimal.Zero,
	}
}

func newView(cart *models.Cart) *CartView {
	id := cart.ID
	updated := cart.UpdatedAt
	view := &CartView{
		CartID:     &id,
		UserID:     cart.UserID,
		Items:      make([]ItemView, 0, len(cart.Items)),
		TotalPrice: decimal.Zero,
		UpdatedAt:  &updated,
	}
	for _, item := range cart.Items {
		line := ItemView{
			ItemID:     item.ID,
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			PriceAtAdd: item.PriceAtAdd,
			Subtotal:   LineSubtotal(item),
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.ImageURL = item.Product.ImageURL
			line.AvailableStock = item.Product.Stock
			line.CurrentPrice = item.Product.Price
		}
		view.Items = append(view.Items, line)
		view.TotalItems += item.Quantity
		view.TotalPrice = view.TotalPrice.Add(line.Subtotal)
	}
	return view
}
