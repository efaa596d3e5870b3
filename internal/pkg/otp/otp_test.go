package otp

import (
	"testing"

	"github.com/pquerna/otp"
)

func TestNumericGenerateRange(t *testing.T) {
	gen := NewNumeric(otp.DigitsSix)

	for range 1000 {
		code, err := gen.Generate()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if code < 0 || code > 999999 {
			t.Fatalf("code %d outside six digit range", code)
		}
	}
}

func TestNumericFormatPadsZeroes(t *testing.T) {
	tests := []struct {
		digits otp.Digits
		code   int32
		want   string
	}{
		{otp.DigitsSix, 482913, "482913"},
		{otp.DigitsSix, 7, "000007"},
		{otp.DigitsSix, 0, "000000"},
		{otp.DigitsEight, 7, "00000007"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			gen := NewNumeric(tt.digits)
			if got := gen.Format(tt.code); got != tt.want {
				t.Errorf("Format(%d) = %q, want %q", tt.code, got, tt.want)
			}
		})
	}
}

func TestNumericFallsBackToSixDigits(t *testing.T) {
	gen := NewNumeric(otp.Digits(13))

	if got := gen.Format(7); got != "000007" {
		t.Errorf("Format(7) = %q, want six digit fallback", got)
	}

	code, err := gen.Generate()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if code > 999999 {
		t.Errorf("code %d outside fallback range", code)
	}
}
