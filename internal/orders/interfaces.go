package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

// Repository defines the order persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, params userListParams) ([]models.Order, *pagination.Cursor, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	IsOwnedBy(ctx context.Context, orderID, vendorID uuid.UUID) (bool, error)
	ListForAdmin(ctx context.Context, vendorID uuid.UUID, filter adminFilter, page pagination.PageParams) ([]models.Order, int64, error)
	StatsForAdmin(ctx context.Context, vendorID uuid.UUID) (*Stats, error)
	ListStalePaymentIDs(ctx context.Context, cutoff time.Time, methods []enums.PaymentMethod, limit int) ([]uuid.UUID, error)
}

type userListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

type adminFilter struct {
	Status  *enums.OrderStatus
	Keyword string
	Sort    sortSpec
}
