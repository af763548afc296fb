package utils

import (
	"testing"
)

func TestParseDateISO(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   string
		wantOK bool
	}{
		{"plain date", "2026-02-22", "2026-02-22", true},
		{"datetime", "2026-02-22T10:30:00+07:00", "2026-02-22", true},
		{"record with date field", map[string]interface{}{"date": "2026-01-05"}, "2026-01-05", true},
		{"embedded in text", "นัดวันที่ 2026-03-01 ค่ะ", "2026-03-01", true},
		{"garbage", "พรุ่งนี้", "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDateISO(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseDateISO(%v) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("ParseDateISO(%v) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseTimeHHMM(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   string
		wantOK bool
	}{
		{"colon", "9:30", "09:30", true},
		{"padded", "09:00", "09:00", true},
		{"dot separator", "14.30", "14:30", true},
		{"datetime", "2026-02-22T16:00:00+07:00", "16:00", true},
		{"out of range wraps", "25:70", "01:10", true},
		{"no digits", "เช้า", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimeHHMM(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseTimeHHMM(%v) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveTime(t *testing.T) {
	// Explicit time wins over time-of-day.
	if got := ResolveTime("10:15", "เช้า"); got != "10:15" {
		t.Errorf("ResolveTime explicit = %q, want 10:15", got)
	}
	if got := ResolveTime(nil, "บ่าย"); got != "14:00" {
		t.Errorf("ResolveTime(บ่าย) = %q, want 14:00", got)
	}
	if got := ResolveTime(nil, "in the morning"); got != "09:00" {
		t.Errorf("ResolveTime(fuzzy morning) = %q, want 09:00", got)
	}
	if got := ResolveTime(nil, nil); got != "" {
		t.Errorf("ResolveTime(nil, nil) = %q, want empty", got)
	}
}

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+66812345678", "0812345678"},
		{"66812345678", "0812345678"},
		{"081-234-5678", "0812345678"},
		{"081 234 5678", "0812345678"},
		{"0812345678", "0812345678"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhoneNumber(tt.in); got != tt.want {
			t.Errorf("NormalizePhoneNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsValidThaiMobile(t *testing.T) {
	valid := []string{"0812345678", "0998765432", "0611111111"}
	for _, s := range valid {
		if !IsValidThaiMobile(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	invalid := []string{"081234567", "08123456789", "1812345678", "0212345678", "08123456a8", ""}
	for _, s := range invalid {
		if IsValidThaiMobile(s) {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}
