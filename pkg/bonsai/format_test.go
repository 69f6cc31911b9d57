package bonsai

import (
	"math"
	"testing"
)

func TestFormatBid(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"typical", 0.2, "0.2000"},
		{"zero", 0, "0.0000"},
		{"rounding", 0.123456, "0.1235"},
		{"above one", 1.5, "1.5000"},
		{"tiny", 0.00004, "0.0000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatBid(tt.in)
			if err != nil {
				t.Fatalf("FormatBid(%v) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("FormatBid(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBid_NotFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := FormatBid(v); err == nil {
			t.Errorf("FormatBid(%v) = nil error, want *FormatError", v)
		}
	}
}

func TestFormatBound(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{20, "20"},
		{20.5, "20.5"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := formatBound(tt.in); got != tt.want {
			t.Errorf("formatBound(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
