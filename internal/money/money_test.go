package money

import (
	"errors"
	"testing"
)

func TestParseMinor(t *testing.T) {
	cases := []struct {
		in      string
		out     int64
		wantErr error
	}{
		{"1234", 1234, nil},
		{" 90 ", 90, nil},
		{"1234.0", 1234, nil},
		{"-30", -30, nil},
		{"12.5", 0, ErrNotIntegral},
		{"0.001", 0, ErrNotIntegral},
		{"abc", 0, ErrInvalidFormat},
		{"", 0, ErrInvalidFormat},
		{"99999999999999999999", 0, ErrOutOfRange},
	}
	for _, tc := range cases {
		got, err := ParseMinor(tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%q: expected error %v, got %v", tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.out {
			t.Fatalf("%q: expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestParseMajor(t *testing.T) {
	cases := []struct {
		in      string
		out     int64
		wantErr error
	}{
		{"12.34", 1234, nil},
		{"12,34", 1234, nil},
		{"12.5", 1250, nil},
		{"90", 9000, nil},
		{"0.01", 1, nil},
		{"12.345", 0, ErrNotIntegral},
		{"1.2.3", 0, ErrInvalidFormat},
	}
	for _, tc := range cases {
		got, err := ParseMajor(tc.in, DefaultExponent)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("%q: expected error %v, got %v", tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.out {
			t.Fatalf("%q: expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
	}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		minor int64
		exp   int32
		want  string
	}{
		{1234, 2, "12.34"},
		{-5, 2, "-0.05"},
		{0, 2, "0.00"},
		{7, 0, "7"},
	}
	for _, tc := range cases {
		if got := Format(tc.minor, tc.exp); got != tc.want {
			t.Errorf("Format(%d, %d) = %q, want %q", tc.minor, tc.exp, got, tc.want)
		}
	}
}
