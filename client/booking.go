package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// createBookingPayload is the wire shape of a booking submission.
type createBookingPayload struct {
	ServiceID   string `json:"serviceId"`
	BookingDate string `json:"bookingDate,omitempty"`
	DateRange   *struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"dateRange,omitempty"`
	TimeSlot struct {
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
	} `json:"timeSlot"`
	CustomerDetails struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	} `json:"customerDetails"`
	ServiceLocation struct {
		Address    string `json:"address"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
	} `json:"serviceLocation"`
	SpecialRequests string `json:"specialRequests"`
	PaymentMethod   string `json:"paymentMethod"`
}

func (c *Client) createBooking(ctx context.Context, payload *createBookingPayload) (*BookingReceipt, error) {
	envelope, err := c.do(ctx, http.MethodPost, "/api/booking/create", payload)
	if err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("booking rejected: %s", envelope.Message)
	}

	var receipt BookingReceipt
	if err := json.Unmarshal(envelope.Data, &receipt); err != nil {
		return nil, fmt.Errorf("malformed booking receipt: %w", err)
	}
	return &receipt, nil
}

// MyBookings returns the customer's booking history, newest first.
func (c *Client) MyBookings(ctx context.Context) ([]Booking, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/api/booking/user/bookings", nil)
	if err != nil {
		return nil, err
	}

	var bookings []Booking
	if err := json.Unmarshal(envelope.Data, &bookings); err != nil {
		return nil, fmt.Errorf("malformed bookings list: %w", err)
	}
	return bookings, nil
}

// PaymentStatus fetches the reconciliation pre-check snapshot for a booking.
func (c *Client) PaymentStatus(ctx context.Context, bookingID string) (*PaymentStatusInfo, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/api/payment/status/"+bookingID, nil)
	if err != nil {
		return nil, err
	}

	var info PaymentStatusInfo
	if err := json.Unmarshal(envelope.Data, &info); err != nil {
		return nil, fmt.Errorf("malformed payment status: %w", err)
	}
	return &info, nil
}
