package models

import (
	"time"

	"github.com/google/uuid"
)

// ShippingAddress is the delivery contact block. It is embedded in orders as
// an immutable snapshot and in profiles as the user's default.
type ShippingAddress struct {
	FullName string  `gorm:"column:full_name"`
	Address  string  `gorm:"column:address"`
	City     string  `gorm:"column:city"`
	State    string  `gorm:"column:state"`
	Pincode  string  `gorm:"column:pincode"`
	Phone    string  `gorm:"column:phone"`
	Landmark *string `gorm:"column:landmark"`
	AltPhone *string `gorm:"column:alt_phone"`
}

// ShippingProfile stores the default shipping address of a user.
type ShippingProfile struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	Address   ShippingAddress `gorm:"embedded"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
