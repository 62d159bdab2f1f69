package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCompleted = "completed"
	BookingStatusCancelled = "cancelled"

	AssignmentUnassigned = "unassigned"
	AssignmentAccepted   = "accepted"
	AssignmentRejected   = "rejected"

	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"

	PayoutStatusPending   = "pending"
	PayoutStatusProcessed = "processed"
)

type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"bookingId"`
	Reference  string    `gorm:"size:12;not null;unique" json:"reference"`
	ServiceID  uuid.UUID `gorm:"not null" json:"serviceId"`
	CustomerID uuid.UUID `gorm:"not null" json:"-"`

	BookingDate *time.Time `json:"bookingDate,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	StartTime   string     `gorm:"size:5;not null" json:"startTime"`
	EndTime     string     `gorm:"size:5;not null" json:"endTime"`

	CustomerName  string `gorm:"size:255;not null" json:"customerName"`
	CustomerEmail string `gorm:"size:255;not null" json:"customerEmail"`
	CustomerPhone string `gorm:"size:30;not null" json:"customerPhone"`

	Address    string `gorm:"size:255;not null" json:"address"`
	City       string `gorm:"size:100;not null" json:"city"`
	PostalCode string `gorm:"size:20;not null" json:"postalCode"`

	SpecialRequests string  `gorm:"type:text" json:"specialRequests"`
	PaymentMethod   string  `gorm:"size:20;not null;default:'paypal'" json:"paymentMethod"`
	TotalPrice      float64 `gorm:"type:numeric(10,2);not null" json:"totalPrice"`

	Status             string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	AssignmentStatus   string     `gorm:"size:20;not null;default:'unassigned'" json:"assignmentStatus"`
	AssignedProviderID *uuid.UUID `json:"assignedProviderId,omitempty"`
	PaymentStatus      string     `gorm:"size:20;not null;default:'pending'" json:"paymentStatus"`

	ProviderMarkedCompleted bool       `gorm:"not null;default:false" json:"providerMarkedCompleted"`
	CustomerConfirmed       bool       `gorm:"not null;default:false" json:"customerConfirmed"`
	CompletionDate          *time.Time `json:"completionDate,omitempty"`

	PayoutStatus      string     `gorm:"size:20;not null;default:'pending'" json:"payoutStatus"`
	PayoutProcessedAt *time.Time `json:"payoutProcessedAt,omitempty"`

	RefundedAt *time.Time `json:"refundedAt,omitempty"`

	Service          Service `gorm:"foreignkey:ServiceID" json:"service,omitempty"`
	Customer         User    `gorm:"foreignkey:CustomerID" json:"-"`
	AssignedProvider *User   `gorm:"foreignkey:AssignedProviderID" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingRejection hides a booking from the provider who rejected it without
// touching the assignment exclusivity other providers race for.
type BookingRejection struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingID  uuid.UUID `gorm:"not null;uniqueIndex:idx_rejection_booking_provider"`
	ProviderID uuid.UUID `gorm:"not null;uniqueIndex:idx_rejection_booking_provider"`
	Reason     string    `gorm:"type:text;not null"`

	Booking  Booking `gorm:"foreignkey:BookingID"`
	Provider User    `gorm:"foreignkey:ProviderID"`

	CreatedAt time.Time
}

// BookingAvailability is a provider's claim that a paid booking is "available
// to take". The row here is authoritative; the client only mirrors it.
type BookingAvailability struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	BookingID   uuid.UUID `gorm:"not null;uniqueIndex:idx_availability_booking_provider"`
	ProviderID  uuid.UUID `gorm:"not null;uniqueIndex:idx_availability_booking_provider"`
	IsAvailable bool      `gorm:"not null;default:false"`

	Booking  Booking `gorm:"foreignkey:BookingID"`
	Provider User    `gorm:"foreignkey:ProviderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
