package client

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// verifyFixture scripts the payment endpoints: each verify call pops the
// next response from the queue, and the status pre-check serves a fixed
// snapshot.
type verifyFixture struct {
	mu          sync.Mutex
	statusBody  map[string]interface{}
	statusCode  int
	verifyQueue []scriptedResponse
	verifyCalls int
	statusCalls int
}

type scriptedResponse struct {
	code int
	body map[string]interface{}
}

func (fx *verifyFixture) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/payment/status/", func(w http.ResponseWriter, r *http.Request) {
		fx.mu.Lock()
		fx.statusCalls++
		code := fx.statusCode
		body := fx.statusBody
		fx.mu.Unlock()
		if code == 0 {
			code = http.StatusOK
		}
		if body == nil {
			body = map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"status": "pending", "paymentStatus": "pending"},
			}
		}
		writeJSON(w, code, body)
	})
	mux.HandleFunc("/api/payments/verify-paypal", func(w http.ResponseWriter, r *http.Request) {
		fx.mu.Lock()
		fx.verifyCalls++
		next := scriptedResponse{code: http.StatusOK, body: map[string]interface{}{"success": false, "status": "pending"}}
		if len(fx.verifyQueue) > 0 {
			next = fx.verifyQueue[0]
			fx.verifyQueue = fx.verifyQueue[1:]
		}
		fx.mu.Unlock()
		writeJSON(w, next.code, next.body)
	})
	return mux
}

func (fx *verifyFixture) verifyCount() int {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return fx.verifyCalls
}

func (fx *verifyFixture) statusCount() int {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return fx.statusCalls
}

func newTestVerifier(t *testing.T, fx *verifyFixture) *PaymentVerifier {
	t.Helper()
	c, _ := newTestClient(t, fx.handler(), "good-token")
	v := NewPaymentVerifier(c, "booking-1", "order-1")
	v.Interval = time.Millisecond
	return v
}

func TestVerifierUnauthenticatedWithoutToken(t *testing.T) {
	fx := &verifyFixture{}
	c, _ := newTestClient(t, fx.handler(), "")
	v := NewPaymentVerifier(c, "booking-1", "order-1")

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationUnauthenticated, result.Status)
	assert.Equal(t, 0, fx.verifyCount())
	assert.Equal(t, 0, fx.statusCount())
}

func TestVerifierFailsFastOnMissingIdentifiers(t *testing.T) {
	fx := &verifyFixture{}
	c, _ := newTestClient(t, fx.handler(), "good-token")
	v := NewPaymentVerifier(c, "booking-1", "")

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationFailed, result.Status)
	assert.False(t, result.RetryBlocked)
	assert.Equal(t, 0, fx.verifyCount(), "missing identifiers must never reach the network")
}

func TestVerifierSucceedsAfterPending(t *testing.T) {
	fx := &verifyFixture{
		verifyQueue: []scriptedResponse{
			{code: http.StatusOK, body: map[string]interface{}{"success": false, "status": "pending"}},
			{code: http.StatusOK, body: map[string]interface{}{"success": false, "status": "pending"}},
			{code: http.StatusOK, body: map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"bookingId": "booking-1", "status": "pending", "paymentStatus": "paid"},
			}},
		},
	}
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationSuccess, result.Status)
	require.NotNil(t, result.Booking)
	assert.Equal(t, "paid", result.Booking.PaymentStatus)
	assert.Equal(t, 3, fx.verifyCount())
}

func TestVerifierTimesOutAtAttemptCap(t *testing.T) {
	fx := &verifyFixture{} // every verify call answers pending
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationTimedOut, result.Status)
	assert.True(t, result.RetryBlocked)
	assert.Equal(t, 12, fx.verifyCount(), "the attempt budget is exactly twelve calls")

	// The marker makes a re-run fail immediately with zero calls.
	result, err = v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationFailed, result.Status)
	assert.True(t, result.RetryBlocked)
	assert.Equal(t, 12, fx.verifyCount())
}

func TestVerifierPrecheckCatchesFreshRefund(t *testing.T) {
	refundedAt := time.Now().Add(-time.Minute)
	fx := &verifyFixture{
		statusBody: map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"status":        "cancelled",
				"paymentStatus": "refunded",
				"paymentIds": map[string]interface{}{
					"orderId":            "order-1",
					"paymentCompletedAt": refundedAt.Format(time.RFC3339),
				},
			},
		},
	}
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationFailed, result.Status)
	assert.True(t, result.RetryBlocked)
	assert.Equal(t, 0, fx.verifyCount(), "a fresh refund must end the run before any verify call")
}

func TestVerifierOldRefundGoesToVerify(t *testing.T) {
	refundedAt := time.Now().Add(-10 * time.Minute)
	fx := &verifyFixture{
		statusBody: map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"status":        "cancelled",
				"paymentStatus": "refunded",
				"paymentIds": map[string]interface{}{
					"orderId":            "order-1",
					"paymentCompletedAt": refundedAt.Format(time.RFC3339),
				},
			},
		},
		verifyQueue: []scriptedResponse{
			{code: http.StatusOK, body: map[string]interface{}{"success": false, "message": "Payment was not completed by PayPal"}},
		},
	}
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationFailed, result.Status)
	assert.False(t, result.RetryBlocked, "a refund older than the cooldown does not block retries")
	assert.Equal(t, 1, fx.verifyCount())
}

func TestVerifierPrecheckErrorsAreNotTerminal(t *testing.T) {
	fx := &verifyFixture{
		statusCode: http.StatusInternalServerError,
		statusBody: map[string]interface{}{"success": false, "message": "boom"},
		verifyQueue: []scriptedResponse{
			{code: http.StatusOK, body: map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"bookingId": "booking-1", "paymentStatus": "paid"},
			}},
		},
	}
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationSuccess, result.Status)
}

func TestVerifierRefundMessageBlocksRetry(t *testing.T) {
	fx := &verifyFixture{
		verifyQueue: []scriptedResponse{
			{code: http.StatusBadRequest, body: map[string]interface{}{
				"success": false,
				"message": "This booking was recently refunded. Please wait 5 minutes before retrying.",
			}},
		},
	}
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationFailed, result.Status)
	assert.True(t, result.RetryBlocked)
	assert.Equal(t, 1, fx.verifyCount())

	result, err = v.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.RetryBlocked)
	assert.Equal(t, 1, fx.verifyCount(), "the session marker must stop further calls")
}

func TestVerifierRetriesThroughServerErrors(t *testing.T) {
	fx := &verifyFixture{
		verifyQueue: []scriptedResponse{
			{code: http.StatusBadGateway, body: map[string]interface{}{"success": false, "message": "Payment processor unavailable"}},
			{code: http.StatusOK, body: map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"bookingId": "booking-1", "paymentStatus": "paid"},
			}},
		},
	}
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationSuccess, result.Status)
	assert.Equal(t, 2, fx.verifyCount())
}

func TestVerifierTerminalOnClientError(t *testing.T) {
	fx := &verifyFixture{
		verifyQueue: []scriptedResponse{
			{code: http.StatusForbidden, body: map[string]interface{}{"success": false, "message": "This is not your booking"}},
		},
	}
	v := newTestVerifier(t, fx)

	result, err := v.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerificationFailed, result.Status)
	assert.False(t, result.RetryBlocked)
	assert.Equal(t, 1, fx.verifyCount())
}

func TestVerifierCancellation(t *testing.T) {
	fx := &verifyFixture{} // always pending
	v := newTestVerifier(t, fx)
	v.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var result *VerificationResult
	var runErr error
	go func() {
		defer close(done)
		result, runErr = v.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond) // first attempt completes, run parks on the timer
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.Nil(t, result)
	assert.ErrorIs(t, runErr, context.Canceled)
	assert.Equal(t, 1, fx.verifyCount())
}
