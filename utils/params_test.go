package utils

import (
	"testing"
)

func TestDisplayString(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "  เบาหวาน ", "เบาหวาน"},
		{"integer float", float64(7), "7"},
		{"fractional float", 7.5, "7.5"},
		{"record with name", map[string]interface{}{"name": "ความดัน"}, "ความดัน"},
		{"record prefers name over value", map[string]interface{}{"value": "x", "name": "y"}, "y"},
		{"record with original", map[string]interface{}{"original": "dm"}, "dm"},
		{"list uses first element", []interface{}{"หัวใจ", "ไต"}, "หัวใจ"},
		{"empty list", []interface{}{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayString(tt.in); got != tt.want {
				t.Errorf("DisplayString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		name   string
		in     interface{}
		want   int
		wantOK bool
	}{
		{"plain int string", "8", 8, true},
		{"json number", float64(8), 8, true},
		{"nlu decimal", "7.0", 7, true},
		{"blank", "", 0, false},
		{"nil", nil, 0, false},
		{"text", "มาก", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseIntParam(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseIntParam(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAsList(t *testing.T) {
	if got := AsList(nil); got != nil {
		t.Errorf("AsList(nil) = %v, want nil", got)
	}
	if got := AsList("เบาหวาน"); len(got) != 1 {
		t.Errorf("AsList(scalar) length = %d, want 1", len(got))
	}
	if got := AsList([]interface{}{"a", "b"}); len(got) != 2 {
		t.Errorf("AsList(list) length = %d, want 2", len(got))
	}
}

func TestIsBlankParam(t *testing.T) {
	if !IsBlankParam(nil) || !IsBlankParam("") || !IsBlankParam("   ") {
		t.Error("expected nil/empty/whitespace to be blank")
	}
	if IsBlankParam("0") {
		t.Error("expected \"0\" to be non-blank")
	}
}
