package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at ASC, id ASC")
	})
}

// Create inserts the order and its lines.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	return db.Create(&order.Items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Scopes(preloadItems).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUpdate loads the order holding a row lock until the transaction ends.
// Concurrent cancels and verifications of the same order serialize here.
func (r *repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC, id ASC").
		Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindForUser resolves an order only for its owner.
func (r *repository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Scopes(preloadItems).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListForUser(ctx context.Context, params userListParams) ([]models.Order, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(preloadItems).
		Where("user_id = ?", params.UserID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		last := rows[normalized-1]
		return rows[:normalized], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *repository) IsOwnedBy(ctx context.Context, orderID, vendorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(scopeOwnedBy(vendorID)).
		Where("orders.id = ?", orderID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListForAdmin(ctx context.Context, vendorID uuid.UUID, filter adminFilter, page pagination.PageParams) ([]models.Order, int64, error) {
	page = page.Normalize()
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).
			Model(&models.Order{}).
			Scopes(scopeOwnedBy(vendorID), keywordScope(filter.Keyword))
		if filter.Status != nil {
			q = q.Where("orders.status = ?", *filter.Status)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Order
	err := filter.Sort.apply(base().Scopes(preloadItems)).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

type statsRow struct {
	Total          int64
	Pending        int64
	Confirmed      int64
	Shipped        int64
	Delivered      int64
	Cancelled      int64
	TotalRevenue   decimal.Decimal
	PendingRevenue decimal.Decimal
}

// StatsForAdmin aggregates counts and revenue over the vendor's orders in one pass.
func (r *repository) StatsForAdmin(ctx context.Context, vendorID uuid.UUID) (*Stats, error) {
	var row statsRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Scopes(scopeOwnedBy(vendorID)).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN orders.status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN orders.status = ? THEN 1 ELSE 0 END), 0) AS confirmed,
			COALESCE(SUM(CASE WHEN orders.status = ? THEN 1 ELSE 0 END), 0) AS shipped,
			COALESCE(SUM(CASE WHEN orders.status = ? THEN 1 ELSE 0 END), 0) AS delivered,
			COALESCE(SUM(CASE WHEN orders.status = ? THEN 1 ELSE 0 END), 0) AS cancelled,
			COALESCE(SUM(CASE WHEN orders.status = ? THEN orders.total_amount ELSE 0 END), 0) AS total_revenue,
			COALESCE(SUM(CASE WHEN orders.status IN ? THEN orders.total_amount ELSE 0 END), 0) AS pending_revenue`,
			enums.OrderStatusPending,
			enums.OrderStatusConfirmed,
			enums.OrderStatusShipped,
			enums.OrderStatusDelivered,
			enums.OrderStatusCancelled,
			enums.OrderStatusDelivered,
			enums.OpenOrderStatuses(),
		).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalOrders:     row.Total,
		PendingOrders:   row.Pending,
		ConfirmedOrders: row.Confirmed,
		ShippedOrders:   row.Shipped,
		DeliveredOrders: row.Delivered,
		CancelledOrders: row.Cancelled,
		TotalRevenue:    row.TotalRevenue,
		PendingRevenue:  row.PendingRevenue,
	}, nil
}

// ListStalePaymentIDs returns pending orders paid through one of methods whose
// payment never completed before cutoff, oldest first.
func (r *repository) ListStalePaymentIDs(ctx context.Context, cutoff time.Time, methods []enums.PaymentMethod, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(methods) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ? AND payment_status = ?", enums.OrderStatusPending, enums.PaymentStatusPending).
		Where("payment_method IN ?", methods).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}
