package model

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment is the local record of a gateway payment attempt, one per order.
// Status only ever changes from gateway confirmation, never client input.
type Payment struct {
	ID            uint          `gorm:"primarykey" json:"id"`
	OrderID       uint          `gorm:"not null;uniqueIndex" json:"order_id"`
	PaymentType   string        `gorm:"type:varchar(50);not null" json:"payment_type"`
	Status        PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	TransactionID string        `gorm:"type:varchar(255);index" json:"transaction_id"`
	Amount        float64       `gorm:"not null" json:"amount"`
	Currency      string        `gorm:"type:varchar(10);not null" json:"currency"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Order Order `gorm:"foreignKey:OrderID" json:"-"`
}

func (Payment) TableName() string {
	return "payments"
}
