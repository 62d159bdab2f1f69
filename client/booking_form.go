package client

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dmutua254/home_services/services"
)

// FormStage identifies the step a BookingForm is on.
type FormStage int

const (
	StageSchedule FormStage = iota
	StageDetails
	StageConfirm
)

func (s FormStage) String() string {
	switch s {
	case StageSchedule:
		return "schedule"
	case StageDetails:
		return "details"
	case StageConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

const formDateLayout = "2006-01-02"

var (
	formEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	formPhonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
)

// BookingForm walks a booking submission through schedule, details and
// confirm stages. Advancing validates only the current stage; going back
// never re-validates, so earlier input is preserved as typed. Field edits
// and stage moves are not safe for concurrent use; only the Submit guard
// tolerates overlapping calls.
type BookingForm struct {
	ServiceID  string
	HourlyRate float64

	// Schedule stage. Either BookingDate or both range dates are set.
	BookingDate string
	StartDate   string
	EndDate     string
	StartTime   string
	EndTime     string

	// Details stage.
	Name            string
	Email           string
	Phone           string
	Address         string
	City            string
	PostalCode      string
	SpecialRequests string

	stage      FormStage
	submitting atomic.Bool

	// now is swapped in tests to pin the date boundary.
	now func() time.Time
}

// NewBookingForm starts a form at the schedule stage for one service.
func NewBookingForm(serviceID string, hourlyRate float64) *BookingForm {
	return &BookingForm{
		ServiceID:  serviceID,
		HourlyRate: hourlyRate,
		stage:      StageSchedule,
		now:        time.Now,
	}
}

// Stage reports the current step.
func (f *BookingForm) Stage() FormStage { return f.stage }

// Next validates the current stage and, if it passes, advances. On the
// confirm stage it is a no-op.
func (f *BookingForm) Next() error {
	switch f.stage {
	case StageSchedule:
		if err := f.validateSchedule(); err != nil {
			return err
		}
		f.stage = StageDetails
	case StageDetails:
		if err := f.validateDetails(); err != nil {
			return err
		}
		f.stage = StageConfirm
	}
	return nil
}

// Prev steps back without validating anything.
func (f *BookingForm) Prev() {
	if f.stage > StageSchedule {
		f.stage--
	}
}

func (f *BookingForm) validateSchedule() error {
	today := f.now().Truncate(24 * time.Hour)

	isRange := f.StartDate != "" || f.EndDate != ""
	if isRange {
		if f.BookingDate != "" {
			return errors.New("choose either a single date or a date range, not both")
		}
		start, err := time.Parse(formDateLayout, f.StartDate)
		if err != nil {
			return errors.New("start date must be in YYYY-MM-DD format")
		}
		end, err := time.Parse(formDateLayout, f.EndDate)
		if err != nil {
			return errors.New("end date must be in YYYY-MM-DD format")
		}
		if start.Before(today) {
			return errors.New("start date cannot be in the past")
		}
		if end.Before(start) {
			return errors.New("end date cannot be before the start date")
		}
	} else {
		if f.BookingDate == "" {
			return errors.New("a booking date is required")
		}
		date, err := time.Parse(formDateLayout, f.BookingDate)
		if err != nil {
			return errors.New("booking date must be in YYYY-MM-DD format")
		}
		if date.Before(today) {
			return errors.New("booking date cannot be in the past")
		}
	}

	if _, err := services.DurationMinutes(f.StartTime, f.EndTime); err != nil {
		if errors.Is(err, services.ErrInvalidDuration) {
			return errors.New("end time must be after start time")
		}
		return errors.New("times must be in HH:MM format")
	}
	return nil
}

func (f *BookingForm) validateDetails() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("name is required")
	}
	if !formEmailPattern.MatchString(f.Email) {
		return errors.New("a valid email address is required")
	}
	if !formPhonePattern.MatchString(f.Phone) || digitCount(f.Phone) < 10 {
		return errors.New("a valid phone number is required")
	}
	if strings.TrimSpace(f.Address) == "" {
		return errors.New("address is required")
	}
	if strings.TrimSpace(f.City) == "" {
		return errors.New("city is required")
	}
	if len(strings.TrimSpace(f.PostalCode)) < 5 {
		return errors.New("a valid postal code is required")
	}
	return nil
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// PricePreview quotes the form's current schedule. It is only meaningful
// once the schedule stage validates.
func (f *BookingForm) PricePreview() (services.Quote, error) {
	if f.StartDate != "" || f.EndDate != "" {
		start, err := time.Parse(formDateLayout, f.StartDate)
		if err != nil {
			return services.Quote{}, fmt.Errorf("invalid start date: %w", err)
		}
		end, err := time.Parse(formDateLayout, f.EndDate)
		if err != nil {
			return services.Quote{}, fmt.Errorf("invalid end date: %w", err)
		}
		return services.QuoteRange(f.HourlyRate, f.StartTime, f.EndTime, start, end)
	}
	return services.QuoteSingle(f.HourlyRate, f.StartTime, f.EndTime)
}

// Submit sends the booking. It only works from the confirm stage, and a
// second call while one is in flight is rejected rather than queued, so a
// double tap cannot create two bookings.
func (f *BookingForm) Submit(ctx context.Context, c *Client) (*BookingReceipt, error) {
	if f.stage != StageConfirm {
		return nil, fmt.Errorf("cannot submit from the %s stage", f.stage)
	}
	if !f.submitting.CompareAndSwap(false, true) {
		return nil, errors.New("submission already in progress")
	}
	defer f.submitting.Store(false)

	payload := &createBookingPayload{
		ServiceID:       f.ServiceID,
		SpecialRequests: f.SpecialRequests,
		PaymentMethod:   "paypal",
	}
	if f.StartDate != "" || f.EndDate != "" {
		payload.DateRange = &struct {
			StartDate string `json:"startDate"`
			EndDate   string `json:"endDate"`
		}{StartDate: f.StartDate, EndDate: f.EndDate}
	} else {
		payload.BookingDate = f.BookingDate
	}
	payload.TimeSlot.StartTime = f.StartTime
	payload.TimeSlot.EndTime = f.EndTime
	payload.CustomerDetails.Name = strings.TrimSpace(f.Name)
	payload.CustomerDetails.Email = strings.TrimSpace(f.Email)
	payload.CustomerDetails.Phone = strings.TrimSpace(f.Phone)
	payload.ServiceLocation.Address = strings.TrimSpace(f.Address)
	payload.ServiceLocation.City = strings.TrimSpace(f.City)
	payload.ServiceLocation.PostalCode = strings.TrimSpace(f.PostalCode)

	return c.createBooking(ctx, payload)
}
