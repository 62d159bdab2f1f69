package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
)

// VerificationStatus is the outcome bucket of a verification run.
type VerificationStatus string

const (
	VerificationVerifying       VerificationStatus = "verifying"
	VerificationSuccess         VerificationStatus = "success"
	VerificationFailed          VerificationStatus = "failed"
	VerificationUnauthenticated VerificationStatus = "unauthenticated"
	VerificationTimedOut        VerificationStatus = "timed_out"
)

const (
	defaultVerifyInterval    = 5 * time.Second
	defaultVerifyMaxAttempts = 12
	refundRetryCooldown      = 5 * time.Minute
)

// VerificationResult is the terminal state of a run. RetryBlocked means a
// marker was written and re-running with the same identifiers will fail
// immediately for the rest of the session.
type VerificationResult struct {
	Status       VerificationStatus
	Message      string
	Booking      *Booking
	RetryBlocked bool
}

// PaymentVerifier reconciles one (booking, order) pair against the payment
// processor by polling the verify endpoint a bounded number of times. Each
// run makes at most MaxAttempts calls, then gives up as timed out; the
// server side is authoritative, the verifier only reports.
type PaymentVerifier struct {
	client    *Client
	BookingID string
	OrderID   string

	// Interval and MaxAttempts default to 5s and 12 when zero.
	Interval    time.Duration
	MaxAttempts int
}

func NewPaymentVerifier(c *Client, bookingID, orderID string) *PaymentVerifier {
	return &PaymentVerifier{
		client:      c,
		BookingID:   bookingID,
		OrderID:     orderID,
		Interval:    defaultVerifyInterval,
		MaxAttempts: defaultVerifyMaxAttempts,
	}
}

// Run polls until the payment settles, fails terminally, or the attempt
// budget runs out. Cancelling ctx stops the run between attempts and
// returns the context error. A non-nil VerificationResult always describes
// a terminal state.
func (v *PaymentVerifier) Run(ctx context.Context) (*VerificationResult, error) {
	if !v.client.session.Authenticated() {
		return &VerificationResult{
			Status:  VerificationUnauthenticated,
			Message: "Please log in to verify your payment",
		}, nil
	}
	if v.BookingID == "" || v.OrderID == "" {
		return &VerificationResult{
			Status:  VerificationFailed,
			Message: "Missing booking or payment details",
		}, nil
	}
	if v.client.session.verificationBlocked(v.BookingID, v.OrderID) {
		return &VerificationResult{
			Status:       VerificationFailed,
			Message:      "Verification already failed for this payment",
			RetryBlocked: true,
		}, nil
	}

	interval := v.Interval
	if interval <= 0 {
		interval = defaultVerifyInterval
	}
	maxAttempts := v.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultVerifyMaxAttempts
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Pre-check: a refund that landed since the last attempt ends the
		// run without another verify call. Pre-check errors are not
		// terminal, the verify call decides.
		if result := v.precheck(ctx); result != nil {
			return result, nil
		}

		result, err := v.verifyOnce(ctx)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	v.client.session.blockVerification(v.BookingID, v.OrderID)
	return &VerificationResult{
		Status:       VerificationTimedOut,
		Message:      "Payment verification timed out. If you were charged, the booking will update shortly.",
		RetryBlocked: true,
	}, nil
}

func (v *PaymentVerifier) precheck(ctx context.Context) *VerificationResult {
	info, err := v.client.PaymentStatus(ctx, v.BookingID)
	if err != nil {
		return nil
	}
	if info.Status == "cancelled" && info.PaymentStatus == "refunded" &&
		info.PaymentIDs.PaymentCompletedAt != nil &&
		time.Since(*info.PaymentIDs.PaymentCompletedAt) < refundRetryCooldown {
		v.client.session.blockVerification(v.BookingID, v.OrderID)
		return &VerificationResult{
			Status:       VerificationFailed,
			Message:      "This booking was recently refunded. Please wait before retrying.",
			RetryBlocked: true,
		}
	}
	return nil
}

// verifyOnce makes one verify call. A nil result with a nil error means the
// outcome was pending or transient and the caller should poll again; a
// non-nil error aborts the run (context cancelled).
func (v *PaymentVerifier) verifyOnce(ctx context.Context) (*VerificationResult, error) {
	envelope, err := v.client.do(ctx, http.MethodPost, "/api/payments/verify-paypal", map[string]string{
		"bookingId": v.BookingID,
		"orderId":   v.OrderID,
	})

	switch {
	case err == nil:
	case errors.Is(err, ErrReauthRequired):
		return &VerificationResult{
			Status:  VerificationUnauthenticated,
			Message: "Your session expired. Please log in again to verify your payment.",
		}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	default:
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return v.terminalFailure(apiErr.Message), nil
		}
		// Server errors and transport failures are transient.
		return nil, nil
	}

	if envelope.Success {
		result := &VerificationResult{
			Status:  VerificationSuccess,
			Message: "Payment confirmed",
		}
		var booking Booking
		if len(envelope.Data) > 0 && json.Unmarshal(envelope.Data, &booking) == nil {
			result.Booking = &booking
		}
		return result, nil
	}
	if envelope.Status == "pending" {
		return nil, nil
	}
	return v.terminalFailure(envelope.Message), nil
}

func (v *PaymentVerifier) terminalFailure(message string) *VerificationResult {
	result := &VerificationResult{
		Status:  VerificationFailed,
		Message: message,
	}
	if result.Message == "" {
		result.Message = "Payment verification failed"
	}
	if strings.Contains(strings.ToLower(message), "recently refunded") {
		v.client.session.blockVerification(v.BookingID, v.OrderID)
		result.RetryBlocked = true
	}
	return result
}
