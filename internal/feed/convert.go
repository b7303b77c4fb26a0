package feed

import (
	"math"
	"strconv"
	"strings"
)

// FahrenheitToCelsius converts with integer truncation toward zero.
func FahrenheitToCelsius(f float64) int {
	return int(math.Trunc((f - 32) * 5 / 9))
}

// ConvertTemp converts a Fahrenheit value in feed text form to truncated Celsius text.
// Leading numeric text is honored ("50F" -> 50); text with no numeric prefix counts as 0.
func ConvertTemp(s string) string {
	return strconv.Itoa(FahrenheitToCelsius(leadingNumber(s)))
}

func leadingNumber(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit, seenDot := false, false
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			end = i + 1
		case (r == '-' || r == '+') && i == 0:
		case r == '.' && !seenDot:
			seenDot = true
		default:
			break scan
		}
	}
	if !seenDigit {
		return 0
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}
