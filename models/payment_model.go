package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
	OrderStatusRefunded  = "refunded"
)

// PaymentOrder correlates one PayPal checkout order to one booking. It is the
// ephemeral half of the payment: once captured or failed, Booking.PaymentStatus
// is the record that matters.
type PaymentOrder struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingID       uuid.UUID `gorm:"not null;unique"`
	ProviderOrderID *string   `gorm:"size:255;unique"`
	Amount          float64   `gorm:"type:numeric(10,2);not null"`
	Currency        string    `gorm:"size:3;not null;default:'GBP'"`
	Status          string    `gorm:"size:20;not null;default:'pending'"`
	ProviderTxnID   *string   `gorm:"size:255;unique"`
	CapturedAt      *time.Time
	RefundedAt      *time.Time

	Booking Booking `gorm:"foreignkey:BookingID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
