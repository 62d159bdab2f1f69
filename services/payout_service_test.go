package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderEarnings(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		rate  float64
		want  float64
	}{
		{name: "fifteen percent commission", price: 100, rate: 0.15, want: 85},
		{name: "rounds to pence", price: 50, rate: 0.15, want: 42.5},
		{name: "odd pence rounds half up", price: 33.33, rate: 0.1, want: 30},
		{name: "zero commission pays full price", price: 80, rate: 0, want: 80},
		{name: "negative rate treated as zero", price: 80, rate: -0.2, want: 80},
		{name: "rate of one or more treated as zero", price: 80, rate: 1, want: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderEarnings(tt.price, tt.rate))
		})
	}
}
