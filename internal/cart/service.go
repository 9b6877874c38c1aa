package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/internal/inventory"
	product "github.com/angelmondragon/orderflow-backend/internal/products"
	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the cart aggregate operations.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	ItemCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type service struct {
	repo     CartRepository
	products product.Reader
	tx       txRunner
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, products product.Reader, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product reader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		products: products,
		tx:       tx,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// GetCart returns the user's cart without creating one.
func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyView(userID), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return newView(cart), nil
}

func (s *service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cart, err := s.ensureCart(ctx, s.repo.WithTx(tx), userID)
		if err != nil {
			return err
		}
		view = newView(cart)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// AddItem puts qty units of the product in the cart. An existing line for the
// product is summed and the combined quantity re-checked against live stock;
// a new line captures the product price at this instant.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, qty int) (*CartView, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		prod, err := s.loadProduct(ctx, tx, productID)
		if err != nil {
			return err
		}
		if err := checkStock(prod, qty); err != nil {
			return err
		}

		cart, err := s.ensureCart(ctx, repo, userID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByProduct(ctx, cart.ID, productID)
		switch {
		case err == nil:
			if err := s.increment(ctx, repo, prod, existing, qty); err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.insertLine(ctx, tx, repo, cart.ID, prod, qty); err != nil {
				return err
			}
		default:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
		}

		if err := repo.Touch(ctx, cart.ID, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		view, err = s.reload(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateItemQuantity sets the line quantity. priceAtAdd is left as captured.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int) (*CartView, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.findOwnedItem(ctx, repo, itemID, userID)
		if err != nil {
			return err
		}
		prod, err := s.loadProduct(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}
		if err := checkStock(prod, qty); err != nil {
			return err
		}
		if err := repo.UpdateItemQuantity(ctx, item.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
		}
		if err := repo.Touch(ctx, item.CartID, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		view, err = s.reload(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartView, error) {
	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and item id are required")
	}

	var view *CartView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.findOwnedItem(ctx, repo, itemID, userID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, item.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
		}
		if err := repo.Touch(ctx, item.CartID, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		view, err = s.reload(ctx, repo, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Clear empties the cart and keeps the cart row.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUser(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if _, err := repo.ClearItems(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		if err := repo.Touch(ctx, cart.ID, s.now()); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
		}
		return nil
	})
}

// ItemCount returns the total units in the cart, zero when there is no cart.
func (s *service) ItemCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	count, err := s.repo.SumQuantity(ctx, cart.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	return count, nil
}

func (s *service) ensureCart(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := repo.Create(ctx, &models.Cart{UserID: userID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	cart, err = repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return cart, nil
}

// insertLine creates the line inside a savepoint. If a concurrent add won the
// (cart, product) unique constraint, the quantity is summed into that line.
func (s *service) insertLine(ctx context.Context, tx *gorm.DB, repo CartRepository, cartID uuid.UUID, prod *models.Product, qty int) error {
	err := tx.Transaction(func(sp *gorm.DB) error {
		return repo.WithTx(sp).CreateItem(ctx, &models.CartItem{
			CartID:     cartID,
			ProductID:  prod.ID,
			Quantity:   qty,
			PriceAtAdd: prod.Price,
		})
	})
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart item")
	}
	existing, ferr := repo.FindItemByProduct(ctx, cartID, prod.ID)
	if ferr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ferr, "reload cart item")
	}
	return s.increment(ctx, repo, prod, existing, qty)
}

func (s *service) increment(ctx context.Context, repo CartRepository, prod *models.Product, item *models.CartItem, qty int) error {
	combined := item.Quantity + qty
	if err := checkStock(prod, combined); err != nil {
		return err
	}
	if err := repo.UpdateItemQuantity(ctx, item.ID, combined); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	return nil
}

func (s *service) findOwnedItem(ctx context.Context, repo CartRepository, itemID, userID uuid.UUID) (*models.CartItem, error) {
	item, err := repo.FindItemForUser(ctx, itemID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return item, nil
}

func (s *service) loadProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	prod, err := s.products.WithTx(tx).FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return prod, nil
}

func (s *service) reload(ctx context.Context, repo CartRepository, userID uuid.UUID) (*CartView, error) {
	cart, err := repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return newView(cart), nil
}

// checkStock compares against live stock only; nothing is reserved until checkout.
func checkStock(prod *models.Product, qty int) error {
	if qty <= prod.Stock {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("insufficient stock, available: %d", prod.Stock)).
		WithDetails(inventory.ShortageDetails{
			ProductID:   prod.ID,
			ProductName: prod.Name,
			Requested:   qty,
			Available:   prod.Stock,
		})
}
