package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDurationMinutes(t *testing.T) {
	tests := []struct {
		name      string
		startTime string
		endTime   string
		want      int
		wantErr   error
	}{
		{name: "two and a half hours", startTime: "10:00", endTime: "12:30", want: 150},
		{name: "one minute", startTime: "09:00", endTime: "09:01", want: 1},
		{name: "full day", startTime: "00:00", endTime: "23:59", want: 1439},
		{name: "zero length rejected", startTime: "10:00", endTime: "10:00", wantErr: ErrInvalidDuration},
		{name: "inverted rejected", startTime: "12:30", endTime: "10:00", wantErr: ErrInvalidDuration},
		{name: "garbage start", startTime: "ten", endTime: "12:00", wantErr: ErrInvalidTime},
		{name: "garbage end", startTime: "10:00", endTime: "noon", wantErr: ErrInvalidTime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationMinutes(tt.startTime, tt.endTime)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberOfDays(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    int
		wantErr error
	}{
		{name: "same day counts as one", start: "2024-01-01", end: "2024-01-01", want: 1},
		{name: "three day range", start: "2024-01-01", end: "2024-01-03", want: 3},
		{name: "across a month boundary", start: "2024-01-30", end: "2024-02-02", want: 4},
		{name: "inverted range rejected", start: "2024-01-03", end: "2024-01-01", wantErr: ErrInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NumberOfDays(date(tt.start), date(tt.end))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuoteSingle(t *testing.T) {
	// £20/hr for 10:00-12:30 is 2.5 hours, £50.
	quote, err := QuoteSingle(20, "10:00", "12:30")
	require.NoError(t, err)
	assert.Equal(t, 150, quote.DurationMinutes)
	assert.Equal(t, 1, quote.NumberOfDays)
	assert.Equal(t, 50.0, quote.TotalPrice)
}

func TestQuoteSingleRoundsToPence(t *testing.T) {
	// £19.99/hr for 50 minutes is 16.658..., rounded to 16.66.
	quote, err := QuoteSingle(19.99, "10:00", "10:50")
	require.NoError(t, err)
	assert.Equal(t, 16.66, quote.TotalPrice)
}

func TestQuoteRange(t *testing.T) {
	// The single-day price multiplied by the inclusive day count:
	// £50/day across 2024-01-01..2024-01-03 is £150.
	quote, err := QuoteRange(20, "10:00", "12:30", date("2024-01-01"), date("2024-01-03"))
	require.NoError(t, err)
	assert.Equal(t, 150, quote.DurationMinutes)
	assert.Equal(t, 3, quote.NumberOfDays)
	assert.Equal(t, 150.0, quote.TotalPrice)
}

func TestQuoteRangePropagatesTimeErrors(t *testing.T) {
	_, err := QuoteRange(20, "12:30", "10:00", date("2024-01-01"), date("2024-01-03"))
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = QuoteRange(20, "10:00", "12:30", date("2024-01-03"), date("2024-01-01"))
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
