package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	isoDateRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
	hhmmRe    = regexp.MustCompile(`(\d{1,2})[:.]\s*(\d{2})`)
	nonPhone  = regexp.MustCompile(`[^\d+]`)
)

// TimeOfDayMap maps spoken time-of-day phrases (Thai and English) to a
// default clock time.
var TimeOfDayMap = map[string]string{
	"morning":      "09:00",
	"late_morning": "10:30",
	"noon":         "12:00",
	"afternoon":    "14:00",
	"evening":      "18:00",
	"night":        "20:00",
	"เช้า":         "09:00",
	"สาย":          "10:30",
	"เที่ยง":       "12:00",
	"บ่าย":         "14:00",
	"เย็น":         "18:00",
	"กลางคืน":      "20:00",
}

// ParseDateISO parses a date parameter into a calendar date. It accepts
// "2026-02-22", "2026-02-22T00:00:00Z", records carrying a date field, and
// free text containing an embedded ISO date. Unparsable input returns ok=false.
func ParseDateISO(v interface{}) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	s := ""
	if rec, isRec := v.(map[string]interface{}); isRec {
		for _, key := range []string{"date", "value", "original"} {
			if str, ok := rec[key].(string); ok && str != "" {
				s = str
				break
			}
		}
		if s == "" {
			s = DisplayString(rec)
		}
	} else {
		s = DisplayString(v)
	}
	if s == "" {
		return time.Time{}, false
	}

	datePart := strings.TrimSpace(strings.SplitN(s, "T", 2)[0])
	if d, err := time.Parse("2006-01-02", datePart); err == nil {
		return d, true
	}
	if m := isoDateRe.FindString(s); m != "" {
		if d, err := time.Parse("2006-01-02", m); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

// ParseTimeHHMM normalizes assorted time shapes into "HH:MM". Hours and
// minutes are wrapped into range rather than rejected, matching the lenient
// upstream contract. Unparsable input returns ok=false.
func ParseTimeHHMM(v interface{}) (string, bool) {
	s := DisplayString(v)
	if s == "" {
		return "", false
	}
	if strings.Contains(s, "T") {
		parts := strings.Split(s, "T")
		s = parts[len(parts)-1]
	}
	if m := hhmmRe.FindStringSubmatch(s); m != nil {
		h := atoiOrZero(m[1]) % 24
		min := atoiOrZero(m[2]) % 60
		return fmt.Sprintf("%02d:%02d", h, min), true
	}
	return "", false
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// ResolveTime prefers an explicit time parameter and falls back to a
// time-of-day phrase. Returns "" when neither resolves.
func ResolveTime(timeParam, timeOfDayParam interface{}) string {
	if t, ok := ParseTimeHHMM(timeParam); ok {
		return t
	}
	key := strings.ToLower(DisplayString(timeOfDayParam))
	if key == "" {
		return ""
	}
	if t, ok := TimeOfDayMap[key]; ok {
		return t
	}
	// Fuzzy fallbacks for phrases embedding a time-of-day word.
	switch {
	case strings.Contains(key, "morning") || strings.Contains(key, "เช้า"):
		return TimeOfDayMap["morning"]
	case strings.Contains(key, "afternoon") || strings.Contains(key, "บ่าย") || strings.Contains(key, "pm"):
		return TimeOfDayMap["afternoon"]
	case strings.Contains(key, "evening") || strings.Contains(key, "เย็น"):
		return TimeOfDayMap["evening"]
	case strings.Contains(key, "noon") || strings.Contains(key, "เที่ยง"):
		return TimeOfDayMap["noon"]
	}
	return ""
}

// NormalizePhoneNumber normalizes phone formats (+66..., 66..., dashed) to
// the local "0xxxxxxxxx" form, or returns the bare digits when unknown.
func NormalizePhoneNumber(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = nonPhone.ReplaceAllString(s, "")
	switch {
	case strings.HasPrefix(s, "+66"):
		s = "0" + s[3:]
	case strings.HasPrefix(s, "+"):
		s = strings.TrimLeft(s, "+")
	case strings.HasPrefix(s, "66") && len(s) > 2:
		s = "0" + s[2:]
	}
	return s
}

// IsValidThaiMobile reports whether s looks like a Thai mobile number:
// 10 digits, leading 0, second digit 6-9.
func IsValidThaiMobile(s string) bool {
	if len(s) != 10 || s[0] != '0' {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s[1] >= '6' && s[1] <= '9'
}
