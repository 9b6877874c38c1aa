package cart

import "github.com/google/uuid"

// AddItemRequest adds a product line to the cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

// UpdateItemRequest replaces the quantity of an existing line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=1000"`
}
