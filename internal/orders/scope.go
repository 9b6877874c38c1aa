package orders

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

// scopeOwnedBy restricts a query over orders to those holding at least one
// line whose product is owned by vendorID. Every vendor-facing read and write
// goes through this predicate.
func scopeOwnedBy(vendorID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(`EXISTS (
			SELECT 1 FROM order_items oi
			JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = orders.id AND p.owner_id = ?
		)`, vendorID)
	}
}

// sortColumns maps the public sort keys to columns. Caller input never reaches SQL directly.
var sortColumns = map[string]string{
	"createdAt":   "created_at",
	"updatedAt":   "updated_at",
	"totalAmount": "total_amount",
	"status":      "status",
	"orderId":     "id",
}

const (
	defaultSortField = "createdAt"
	defaultSortDir   = "desc"
)

type sortSpec struct {
	Column string
	Desc   bool
}

// parseSort validates the caller's sort field and direction against the allow-list.
func parseSort(field, direction string) (sortSpec, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		field = defaultSortField
	}
	column, ok := sortColumns[field]
	if !ok {
		return sortSpec{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort field").
			WithDetails(map[string]any{"sort_field": field, "allowed": sortFieldNames()})
	}

	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction == "" {
		direction = defaultSortDir
	}
	if direction != "asc" && direction != "desc" {
		return sortSpec{}, pkgerrors.New(pkgerrors.CodeValidation, "sort direction must be asc or desc")
	}
	return sortSpec{Column: column, Desc: direction == "desc"}, nil
}

func (s sortSpec) apply(db *gorm.DB) *gorm.DB {
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: "orders", Name: s.Column}, Desc: s.Desc})
	if s.Column != "id" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Table: "orders", Name: "id"}, Desc: s.Desc})
	}
	return db
}

func sortFieldNames() []string {
	return []string{"createdAt", "updatedAt", "totalAmount", "status", "orderId"}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// keywordScope matches the shipping name, city or phone, or a prefix of the order id.
func keywordScope(keyword string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if kw == "" {
			return db
		}
		contains := "%" + likeEscaper.Replace(kw) + "%"
		prefix := likeEscaper.Replace(kw) + "%"
		return db.Where(`(LOWER(orders.shipping_full_name) LIKE ? ESCAPE '\'
			OR LOWER(orders.shipping_city) LIKE ? ESCAPE '\'
			OR orders.shipping_phone LIKE ? ESCAPE '\'
			OR LOWER(CAST(orders.id AS TEXT)) LIKE ? ESCAPE '\')`,
			contains, contains, contains, prefix)
	}
}
