package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func validRequest() CreateBookingRequest {
	return CreateBookingRequest{
		ServiceID:   "4b2a63de-9a4f-4c4d-8d2f-1f1a9a0f0001",
		BookingDate: "2024-06-20",
		TimeSlot:    TimeSlot{StartTime: "10:00", EndTime: "12:30"},
		CustomerDetails: CustomerDetails{
			Name:  "Jane Smith",
			Email: "jane@example.com",
			Phone: "+44 7700 900123",
		},
		ServiceLocation: ServiceLocation{
			Address:    "10 High Street",
			City:       "London",
			PostalCode: "SW1A 1AA",
		},
	}
}

func TestCreateBookingRequestValidate(t *testing.T) {
	t.Run("valid single date", func(t *testing.T) {
		req := validRequest()
		sched, err := req.Validate(testNow)
		require.NoError(t, err)
		require.NotNil(t, sched.BookingDate)
		assert.False(t, sched.IsRange())
		assert.Equal(t, "paypal", req.PaymentMethod)
	})

	t.Run("valid date range", func(t *testing.T) {
		req := validRequest()
		req.BookingDate = ""
		req.DateRange = &DateRange{StartDate: "2024-06-20", EndDate: "2024-06-22"}
		sched, err := req.Validate(testNow)
		require.NoError(t, err)
		assert.True(t, sched.IsRange())
		require.NotNil(t, sched.EndDate)
	})

	t.Run("booking today is allowed", func(t *testing.T) {
		req := validRequest()
		req.BookingDate = "2024-06-15"
		_, err := req.Validate(testNow)
		assert.NoError(t, err)
	})

	tests := []struct {
		name    string
		mutate  func(*CreateBookingRequest)
		wantErr string
	}{
		{
			name:    "missing service",
			mutate:  func(r *CreateBookingRequest) { r.ServiceID = "" },
			wantErr: "serviceId is required",
		},
		{
			name:    "no date at all",
			mutate:  func(r *CreateBookingRequest) { r.BookingDate = "" },
			wantErr: "either bookingDate or dateRange is required",
		},
		{
			name:    "date in the past",
			mutate:  func(r *CreateBookingRequest) { r.BookingDate = "2024-06-14" },
			wantErr: "booking date cannot be in the past",
		},
		{
			name:    "malformed date",
			mutate:  func(r *CreateBookingRequest) { r.BookingDate = "20/06/2024" },
			wantErr: "invalid booking date",
		},
		{
			name: "range ends before it starts",
			mutate: func(r *CreateBookingRequest) {
				r.BookingDate = ""
				r.DateRange = &DateRange{StartDate: "2024-06-22", EndDate: "2024-06-20"}
			},
			wantErr: "end date cannot be before start date",
		},
		{
			name: "range starting in the past",
			mutate: func(r *CreateBookingRequest) {
				r.BookingDate = ""
				r.DateRange = &DateRange{StartDate: "2024-06-10", EndDate: "2024-06-20"}
			},
			wantErr: "start date cannot be in the past",
		},
		{
			name:    "inverted time slot",
			mutate:  func(r *CreateBookingRequest) { r.TimeSlot = TimeSlot{StartTime: "12:30", EndTime: "10:00"} },
			wantErr: "end time must be after start time",
		},
		{
			name:    "zero length time slot",
			mutate:  func(r *CreateBookingRequest) { r.TimeSlot = TimeSlot{StartTime: "10:00", EndTime: "10:00"} },
			wantErr: "end time must be after start time",
		},
		{
			name:    "bad email",
			mutate:  func(r *CreateBookingRequest) { r.CustomerDetails.Email = "not-an-email" },
			wantErr: "invalid email address",
		},
		{
			name:    "email with spaces",
			mutate:  func(r *CreateBookingRequest) { r.CustomerDetails.Email = "jane smith@example.com" },
			wantErr: "invalid email address",
		},
		{
			name:    "phone too short",
			mutate:  func(r *CreateBookingRequest) { r.CustomerDetails.Phone = "12345" },
			wantErr: "invalid phone number",
		},
		{
			name:    "phone padded to length but under ten digits",
			mutate:  func(r *CreateBookingRequest) { r.CustomerDetails.Phone = "123-456 78" },
			wantErr: "invalid phone number",
		},
		{
			name:    "missing name",
			mutate:  func(r *CreateBookingRequest) { r.CustomerDetails.Name = "   " },
			wantErr: "all customer details and service location fields are required",
		},
		{
			name:    "missing address",
			mutate:  func(r *CreateBookingRequest) { r.ServiceLocation.Address = "" },
			wantErr: "all customer details and service location fields are required",
		},
		{
			name:    "postal code too short",
			mutate:  func(r *CreateBookingRequest) { r.ServiceLocation.PostalCode = "SW1" },
			wantErr: "invalid postal code",
		},
		{
			name:    "unsupported payment method",
			mutate:  func(r *CreateBookingRequest) { r.PaymentMethod = "cheque" },
			wantErr: "unsupported payment method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := req.Validate(testNow)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
