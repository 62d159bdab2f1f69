package client

import "time"

// Booking mirrors the server's booking JSON. Fields the client never acts on
// are omitted.
type Booking struct {
	BookingID        string     `json:"bookingId"`
	Reference        string     `json:"reference"`
	ServiceID        string     `json:"serviceId"`
	BookingDate      *time.Time `json:"bookingDate,omitempty"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	StartTime        string     `json:"startTime"`
	EndTime          string     `json:"endTime"`
	CustomerName     string     `json:"customerName"`
	Address          string     `json:"address"`
	City             string     `json:"city"`
	PostalCode       string     `json:"postalCode"`
	SpecialRequests  string     `json:"specialRequests"`
	TotalPrice       float64    `json:"totalPrice"`
	Status           string     `json:"status"`
	AssignmentStatus string     `json:"assignmentStatus"`
	PaymentStatus    string     `json:"paymentStatus"`

	ProviderMarkedCompleted bool       `json:"providerMarkedCompleted"`
	CustomerConfirmed       bool       `json:"customerConfirmed"`
	CompletionDate          *time.Time `json:"completionDate,omitempty"`

	PayoutStatus      string     `json:"payoutStatus"`
	PayoutProcessedAt *time.Time `json:"payoutProcessedAt,omitempty"`

	Service struct {
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Price    float64 `json:"price"`
	} `json:"service"`

	IsAvailable bool `json:"isAvailable"`

	CreatedAt time.Time `json:"createdAt"`
}

// ActionRequired reports whether the booking still needs something from the
// provider looking at it: either nobody holds it yet, or they hold it and
// have not completed it.
func (b *Booking) ActionRequired() bool {
	return b.Status != "completed" && b.Status != "cancelled"
}

// PaymentStatusInfo is the reconciliation pre-check snapshot.
type PaymentStatusInfo struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	PaymentIDs    struct {
		OrderID            string     `json:"orderId"`
		PaymentCompletedAt *time.Time `json:"paymentCompletedAt"`
	} `json:"paymentIds"`
}

// BookingReceipt is the outcome of a successful booking submission.
type BookingReceipt struct {
	BookingID    string  `json:"bookingId"`
	Reference    string  `json:"reference"`
	TotalPrice   float64 `json:"totalPrice"`
	PaymentOrder struct {
		OrderID      string `json:"orderId"`
		ApprovalLink string `json:"approvalLink"`
	} `json:"paymentOrder"`
}
