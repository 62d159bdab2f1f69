package handlers

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/dmutua254/home_services/services"
)

const dateLayout = "2006-01-02"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)
	digitPattern = regexp.MustCompile(`\d`)
)

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type TimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

type CustomerDetails struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ServiceLocation struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

type CreateBookingRequest struct {
	ServiceID       string          `json:"serviceId"`
	BookingDate     string          `json:"bookingDate,omitempty"`
	DateRange       *DateRange      `json:"dateRange,omitempty"`
	TimeSlot        TimeSlot        `json:"timeSlot"`
	CustomerDetails CustomerDetails `json:"customerDetails"`
	ServiceLocation ServiceLocation `json:"serviceLocation"`
	SpecialRequests string          `json:"specialRequests"`
	PaymentMethod   string          `json:"paymentMethod"`
}

// bookingSchedule is the parsed, validated scheduling half of a request.
type bookingSchedule struct {
	BookingDate *time.Time
	StartDate   *time.Time
	EndDate     *time.Time
	StartTime   string
	EndTime     string
}

func (s *bookingSchedule) IsRange() bool {
	return s.StartDate != nil
}

// Validate re-checks everything the client form gates on. The server cannot
// trust the form: malformed dates, inverted ranges and bad contact details
// must all die here too.
func (r *CreateBookingRequest) Validate(now time.Time) (*bookingSchedule, error) {
	if r.ServiceID == "" {
		return nil, errors.New("serviceId is required")
	}

	sched := &bookingSchedule{StartTime: r.TimeSlot.StartTime, EndTime: r.TimeSlot.EndTime}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case r.DateRange != nil:
		start, err := time.ParseInLocation(dateLayout, r.DateRange.StartDate, now.Location())
		if err != nil {
			return nil, errors.New("invalid start date")
		}
		end, err := time.ParseInLocation(dateLayout, r.DateRange.EndDate, now.Location())
		if err != nil {
			return nil, errors.New("invalid end date")
		}
		if start.Before(today) {
			return nil, errors.New("start date cannot be in the past")
		}
		if end.Before(start) {
			return nil, errors.New("end date cannot be before start date")
		}
		sched.StartDate = &start
		sched.EndDate = &end
	case r.BookingDate != "":
		date, err := time.ParseInLocation(dateLayout, r.BookingDate, now.Location())
		if err != nil {
			return nil, errors.New("invalid booking date")
		}
		if date.Before(today) {
			return nil, errors.New("booking date cannot be in the past")
		}
		sched.BookingDate = &date
	default:
		return nil, errors.New("either bookingDate or dateRange is required")
	}

	if _, err := services.DurationMinutes(r.TimeSlot.StartTime, r.TimeSlot.EndTime); err != nil {
		return nil, err
	}

	if err := r.validateContact(); err != nil {
		return nil, err
	}

	if r.PaymentMethod == "" {
		r.PaymentMethod = "paypal"
	}
	if r.PaymentMethod != "paypal" {
		return nil, errors.New("unsupported payment method")
	}

	return sched, nil
}

func (r *CreateBookingRequest) validateContact() error {
	d := r.CustomerDetails
	l := r.ServiceLocation

	if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.Phone) == "" ||
		strings.TrimSpace(l.Address) == "" || strings.TrimSpace(l.City) == "" ||
		strings.TrimSpace(l.PostalCode) == "" {
		return errors.New("all customer details and service location fields are required")
	}
	if !emailPattern.MatchString(d.Email) {
		return errors.New("invalid email address")
	}
	if !phonePattern.MatchString(d.Phone) || len(digitPattern.FindAllString(d.Phone, -1)) < 10 {
		return errors.New("invalid phone number")
	}
	if len(l.PostalCode) < 5 {
		return errors.New("invalid postal code")
	}
	return nil
}
