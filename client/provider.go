package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Provider-side operations. None of them mutate local state: every method
// returns only what the server acknowledged, so retrying after a network
// failure is always safe — the operations are idempotent by bookingId.

// AssignedBookings lists the page of bookings visible to the provider,
// actionable items first, newest first within each group. The sort is applied
// locally as well so callers see the ordering even against an older server.
func (c *Client) AssignedBookings(ctx context.Context, page int) ([]Booking, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	envelope, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/booking/provider/assigned?page=%d", page), nil)
	if err != nil {
		return nil, nil, err
	}

	var bookings []Booking
	if err := json.Unmarshal(envelope.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("malformed bookings list: %w", err)
	}

	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := &bookings[i], &bookings[j]
		if a.ActionRequired() != b.ActionRequired() {
			return a.ActionRequired()
		}
		return a.CreatedAt.After(b.CreatedAt)
	})

	return bookings, envelope.Pagination, nil
}

// PaidBookings lists paid bookings the provider could claim, including the
// provider's own availability flag per booking.
func (c *Client) PaidBookings(ctx context.Context) ([]Booking, error) {
	envelope, err := c.do(ctx, http.MethodGet, "/api/booking/provider/bookings/paid", nil)
	if err != nil {
		return nil, err
	}

	var bookings []Booking
	if err := json.Unmarshal(envelope.Data, &bookings); err != nil {
		return nil, fmt.Errorf("malformed bookings list: %w", err)
	}
	return bookings, nil
}

// ToggleAvailability claims or releases a booking as available to take. The
// server decides; a booking held by another provider comes back as a
// conflict (IsConflict), never a silent success.
func (c *Client) ToggleAvailability(ctx context.Context, bookingID string, desired bool) error {
	_, err := c.do(ctx, http.MethodPost, "/api/booking/provider/bookings/availability", map[string]interface{}{
		"bookingId":   bookingID,
		"isAvailable": desired,
	})
	return err
}

// AcceptBooking races for the exclusive assignment. At most one provider
// wins; losers get a conflict error.
func (c *Client) AcceptBooking(ctx context.Context, bookingID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/booking/provider/bookings/accept-booking", map[string]string{
		"bookingId": bookingID,
	})
	return err
}

// RejectBooking removes the booking from this provider's visible set. The
// reason is mandatory; the check runs locally before anything is sent.
func (c *Client) RejectBooking(ctx context.Context, bookingID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return errors.New("a rejection reason is required")
	}
	_, err := c.do(ctx, http.MethodPost, "/api/booking/provider/bookings/reject-booking", map[string]string{
		"bookingId":       bookingID,
		"rejectionReason": reason,
	})
	return err
}

// MarkCompleted is the provider half of the completion handshake.
func (c *Client) MarkCompleted(ctx context.Context, bookingID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/booking/provider/bookings/complete", map[string]string{
		"bookingId": bookingID,
	})
	return err
}

// ConfirmCompletion is the customer half; it can only succeed after
// MarkCompleted and is what releases the provider's payout.
func (c *Client) ConfirmCompletion(ctx context.Context, bookingID string) error {
	_, err := c.do(ctx, http.MethodPost, "/api/booking/provider/bookings/confirm", map[string]string{
		"bookingId": bookingID,
	})
	return err
}
