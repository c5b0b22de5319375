package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMinor(t *testing.T) {
	cases := []struct {
		input string
		want  int64
		err   error
	}{
		{"2500.00", 250000, nil},
		{"2500", 250000, nil},
		{"0.5", 50, nil},
		{"-50.00", -5000, nil},
		{".99", 99, nil},
		{"10.123", 0, ErrTooManyDecimals},
		{"", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"10.x1", 0, ErrInvalidAmount},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.input)
		if err != tc.err {
			t.Errorf("ParseMinor(%q) error = %v, want %v", tc.input, err, tc.err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseMinor(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatMinor(t *testing.T) {
	if got := FormatMinor(250000); got != "2500.00" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMinor(-5); got != "-0.05" {
		t.Fatalf("got %q", got)
	}
}

func TestPercentOf(t *testing.T) {
	fee := PercentOf(250000, decimal.RequireFromString("5"))
	if fee != 12500 {
		t.Fatalf("expected 12500, got %d", fee)
	}
}

func TestApplyGrowth(t *testing.T) {
	grown := ApplyGrowth(1000000, decimal.RequireFromString("10"))
	if grown != 1100000 {
		t.Fatalf("expected 1100000, got %d", grown)
	}
}
