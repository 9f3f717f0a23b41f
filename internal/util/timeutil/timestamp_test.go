package timeutil

import (
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input    string
		expected bool // whether parsing should succeed
	}{
		{"2024-12-20T10:30:45Z", true},
		{"2024-12-20T10:30:45.123456789Z", true},
		{"2024-12-20 10:30:45", true},
		{"2024-12-20", true},
		{"10:30:45", true},
		{"invalid", false},
	}

	for _, test := range tests {
		_, err := ParseTimestamp(test.input)
		success := err == nil

		if success != test.expected {
			t.Errorf("ParseTimestamp(%q): expected success=%v, got success=%v, err=%v",
				test.input, test.expected, success, err)
		}
	}
}

func TestNowOverride(t *testing.T) {
	fixed := time.Date(2024, 12, 20, 10, 30, 45, 0, time.UTC)
	original := Now
	defer func() { Now = original }()

	Now = func() time.Time { return fixed }
	if !Now().Equal(fixed) {
		t.Errorf("Now override not applied: got %v", Now())
	}
}
