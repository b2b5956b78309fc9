package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeGuestName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "Alice Smith", "Alice Smith"},
		{"leading and trailing spaces", "  Alice Smith  ", "Alice Smith"},
		{"internal whitespace collapsed", "Alice \t  Smith", "Alice Smith"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n ", ""},
		{"unicode preserved", "José  Álvarez", "José Álvarez"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeGuestName(tt.input); got != tt.expected {
				t.Errorf("NormalizeGuestName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeGuestName_Idempotent(t *testing.T) {
	input := "  Alice \t Smith "
	once := NormalizeGuestName(input)
	twice := NormalizeGuestName(once)
	if once != twice {
		t.Errorf("normalization not idempotent: %q != %q", once, twice)
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{" Alice@Example.COM ", "alice@example.com"},
		{"bob@hotel.io", "bob@hotel.io"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.expected {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalizeAmenities(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "lowercased and deduplicated",
			input:    []string{"WiFi", "wifi", " TV ", "AC"},
			expected: []string{"wifi", "tv", "ac"},
		},
		{
			name:     "empties dropped",
			input:    []string{"", "  ", "minibar"},
			expected: []string{"minibar"},
		},
		{
			name:     "nil input",
			input:    nil,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAmenities(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("NormalizeAmenities(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
