package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one cart row per (owner, purchasable) pair. Ownership is either
// an authenticated user id or the anonymous cookie id minted for a visitor;
// the cookie id is always present so guest carts can be torn down wholesale.
type CartItem struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	UserID          *uuid.UUID `gorm:"column:user_id;type:uuid;index:cart_items_user_id_idx"`
	CookieID        string     `gorm:"column:cookie_id;type:text;not null;index:cart_items_cookie_id_idx"`
	PurchasableType string     `gorm:"column:purchasable_type;type:text;not null"`
	PurchasableKey  string     `gorm:"column:purchasable_key;type:text;not null"`
	Quantity        int        `gorm:"column:quantity;not null;default:1"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (CartItem) TableName() string {
	return "cart_items"
}
