package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, NewSession(token)), srv
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestDoRefreshesOnceAndRetries(t *testing.T) {
	var refreshCalls, bookingCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		assert.Equal(t, "Bearer stale-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": "fresh-token"})
	})
	mux.HandleFunc("/api/booking/user/bookings", func(w http.ResponseWriter, r *http.Request) {
		bookingCalls++
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": []Booking{{BookingID: "b1"}}})
	})

	c, _ := newTestClient(t, mux, "stale-token")

	bookings, err := c.MyBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "b1", bookings[0].BookingID)

	assert.Equal(t, 1, refreshCalls)
	assert.Equal(t, 2, bookingCalls)
	assert.Equal(t, "fresh-token", c.Session().Token())
}

func TestDoFailedRefreshClearsSession(t *testing.T) {
	var refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "token too old"})
	})
	mux.HandleFunc("/api/booking/user/bookings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "expired"})
	})

	c, _ := newTestClient(t, mux, "dead-token")

	_, err := c.MyBookings(context.Background())
	assert.ErrorIs(t, err, ErrReauthRequired)
	assert.Equal(t, 1, refreshCalls)
	assert.False(t, c.Session().Authenticated())
}

func TestDoNeverRefreshesTwice(t *testing.T) {
	var refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": "fresh-token"})
	})
	mux.HandleFunc("/api/booking/user/bookings", func(w http.ResponseWriter, r *http.Request) {
		// Rejects even the refreshed token.
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "expired"})
	})

	c, _ := newTestClient(t, mux, "stale-token")

	_, err := c.MyBookings(context.Background())
	assert.ErrorIs(t, err, ErrReauthRequired)
	assert.Equal(t, 1, refreshCalls)
	assert.False(t, c.Session().Authenticated())
}

func TestDoPassesThroughNon401Errors(t *testing.T) {
	var refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
	})
	mux.HandleFunc("/api/booking/provider/bookings/accept-booking", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]interface{}{"success": false, "message": "Booking already assigned to another provider"})
	})

	c, _ := newTestClient(t, mux, "good-token")

	err := c.AcceptBooking(context.Background(), "b1")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Contains(t, err.Error(), "already assigned")
	assert.Equal(t, 0, refreshCalls, "a 409 must not trigger a refresh")
}

func TestLoginStoresTokenAndBypassesRefresh(t *testing.T) {
	var refreshCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
	})
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds["password"] != "correct" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "token": "issued-token", "role": "customer"})
	})

	c, _ := newTestClient(t, mux, "")

	err := c.Login(context.Background(), "jane@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, 0, refreshCalls, "bad credentials must not trigger a refresh")
	assert.False(t, c.Session().Authenticated())

	require.NoError(t, c.Login(context.Background(), "jane@example.com", "correct"))
	assert.Equal(t, "issued-token", c.Session().Token())
}

func TestAssignedBookingsSortsActionableFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/booking/provider/assigned", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"bookingId": "done", "status": "completed", "createdAt": "2024-06-03T10:00:00Z"},
				{"bookingId": "old-open", "status": "confirmed", "createdAt": "2024-06-01T10:00:00Z"},
				{"bookingId": "new-open", "status": "pending", "createdAt": "2024-06-02T10:00:00Z"},
			},
			"pagination": map[string]interface{}{"page": 2, "totalPages": 5, "total": 42},
		})
	})

	c, _ := newTestClient(t, mux, "good-token")

	bookings, pagination, err := c.AssignedBookings(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, bookings, 3)
	assert.Equal(t, "new-open", bookings[0].BookingID)
	assert.Equal(t, "old-open", bookings[1].BookingID)
	assert.Equal(t, "done", bookings[2].BookingID)
	require.NotNil(t, pagination)
	assert.Equal(t, 5, pagination.TotalPages)
}

func TestRejectBookingRequiresReason(t *testing.T) {
	var calls int
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { calls++ })

	c, _ := newTestClient(t, mux, "good-token")

	err := c.RejectBooking(context.Background(), "b1", "   ")
	require.Error(t, err)
	assert.Equal(t, 0, calls, "an empty reason must be rejected before any request is sent")
}
