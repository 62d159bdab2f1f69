package services

import (
	"errors"
	"math"
	"time"
)

// Price and duration arithmetic for a booking request. Pure: the same inputs
// always produce the same quote, and nothing here touches the database.

const timeLayout = "15:04"

var (
	ErrInvalidTime      = errors.New("invalid time of day, expected HH:MM")
	ErrInvalidDuration  = errors.New("end time must be after start time")
	ErrInvalidDateRange = errors.New("end date cannot be before start date")
)

type Quote struct {
	DurationMinutes int     `json:"durationMinutes"`
	NumberOfDays    int     `json:"numberOfDays"`
	TotalPrice      float64 `json:"totalPrice"`
}

// ParseTimeOfDay parses "HH:MM" against a fixed reference date so only the
// time-of-day component takes part in duration arithmetic.
func ParseTimeOfDay(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return t, nil
}

// DurationMinutes returns the booked minutes per day. Zero-length and
// inverted windows are rejected.
func DurationMinutes(startTime, endTime string) (int, error) {
	start, err := ParseTimeOfDay(startTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseTimeOfDay(endTime)
	if err != nil {
		return 0, err
	}
	minutes := int(end.Sub(start).Minutes())
	if minutes <= 0 {
		return 0, ErrInvalidDuration
	}
	return minutes, nil
}

// NumberOfDays counts the days in a range inclusive of both endpoints, so a
// range of a single day yields 1.
func NumberOfDays(startDate, endDate time.Time) (int, error) {
	if endDate.Before(startDate) {
		return 0, ErrInvalidDateRange
	}
	return int(math.Ceil(endDate.Sub(startDate).Hours()/24)) + 1, nil
}

// QuoteSingle prices a single-date booking: rate × hours.
func QuoteSingle(rate float64, startTime, endTime string) (Quote, error) {
	minutes, err := DurationMinutes(startTime, endTime)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		DurationMinutes: minutes,
		NumberOfDays:    1,
		TotalPrice:      roundPence(rate * float64(minutes) / 60),
	}, nil
}

// QuoteRange prices a date-range booking: the single-day price multiplied by
// the inclusive day count.
func QuoteRange(rate float64, startTime, endTime string, startDate, endDate time.Time) (Quote, error) {
	minutes, err := DurationMinutes(startTime, endTime)
	if err != nil {
		return Quote{}, err
	}
	days, err := NumberOfDays(startDate, endDate)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		DurationMinutes: minutes,
		NumberOfDays:    days,
		TotalPrice:      roundPence(rate * float64(minutes) / 60 * float64(days)),
	}, nil
}

func roundPence(v float64) float64 {
	return math.Round(v*100) / 100
}
