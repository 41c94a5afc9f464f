package model

import (
	"time"
)

// CartItem is one product+quantity line belonging to exactly one identity.
// UserID and SessionID are never both set: authenticated carts carry a user
// id, guest carts carry the opaque session token minted on first add.
type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    *uint     `gorm:"index:idx_cart_items_user_product" json:"user_id,omitempty"`
	SessionID *string   `gorm:"index:idx_cart_items_session_product" json:"session_id,omitempty"`
	ProductID uint      `gorm:"not null;index:idx_cart_items_user_product;index:idx_cart_items_session_product" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	User    *User   `gorm:"foreignKey:UserID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// Identity returns the owning identity of the line
func (ci *CartItem) Identity() CartIdentity {
	if ci.UserID != nil {
		return UserIdentity(*ci.UserID)
	}
	if ci.SessionID != nil {
		return GuestIdentity(*ci.SessionID)
	}
	return CartIdentity{}
}

// BelongsTo reports whether the line is owned by the given identity
func (ci *CartItem) BelongsTo(identity CartIdentity) bool {
	return ci.Identity() == identity
}
