package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFahrenheitToCelsius(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{in: 50, want: 10},
		{in: 68, want: 20},
		{in: 32, want: 0},
		{in: 212, want: 100},
		{in: -40, want: -40},
		{in: 20, want: -6},
		{in: 0, want: -17},
		{in: 99.9, want: 37},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FahrenheitToCelsius(tt.in), "FahrenheitToCelsius(%v)", tt.in)
	}
}

func TestConvertTemp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "50", want: "10"},
		{in: "68", want: "20"},
		{in: " 72 ", want: "22"},
		{in: "-4", want: "-20"},
		{in: "50.5", want: "10"},
		{in: "75F", want: "23"},
		{in: "", want: "-17"},
		{in: "n/a", want: "-17"},
		{in: "-", want: "-17"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvertTemp(tt.in), "ConvertTemp(%q)", tt.in)
	}
}
