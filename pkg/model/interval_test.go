package model

import (
	"testing"
	"time"
)

func at(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 0, 0, 0, time.UTC)
}

func mustInterval(t *testing.T, start, end time.Time) Interval {
	t.Helper()
	i, err := NewInterval(start, end)
	if err != nil {
		t.Fatalf("NewInterval(%v, %v) returned error: %v", start, end, err)
	}
	return i
}

func TestNewInterval_RejectsNonPositive(t *testing.T) {
	if _, err := NewInterval(at(10), at(10)); err != ErrInvalidInterval {
		t.Errorf("start == end: expected ErrInvalidInterval, got %v", err)
	}
	if _, err := NewInterval(at(14), at(10)); err != ErrInvalidInterval {
		t.Errorf("start > end: expected ErrInvalidInterval, got %v", err)
	}
	if _, err := NewInterval(at(10), at(14)); err != nil {
		t.Errorf("valid interval: unexpected error: %v", err)
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Interval
		expected bool
	}{
		{
			name:     "partial overlap",
			a:        Interval{at(10), at(14)},
			b:        Interval{at(13), at(18)},
			expected: true,
		},
		{
			name:     "identical intervals",
			a:        Interval{at(10), at(14)},
			b:        Interval{at(10), at(14)},
			expected: true,
		},
		{
			name:     "contained interval",
			a:        Interval{at(10), at(18)},
			b:        Interval{at(12), at(14)},
			expected: true,
		},
		{
			name:     "adjacent back-to-back",
			a:        Interval{at(10), at(14)},
			b:        Interval{at(14), at(18)},
			expected: false,
		},
		{
			name:     "disjoint",
			a:        Interval{at(8), at(9)},
			b:        Interval{at(14), at(18)},
			expected: false,
		},
		{
			name:     "one minute overlap",
			a:        Interval{at(10), at(14).Add(time.Minute)},
			b:        Interval{at(14), at(18)},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.expected {
				t.Errorf("a.Overlaps(b) = %v, want %v", got, tt.expected)
			}
			// Overlap is symmetric
			if got := tt.b.Overlaps(tt.a); got != tt.expected {
				t.Errorf("b.Overlaps(a) = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestContains(t *testing.T) {
	i := mustInterval(t, at(10), at(14))

	if !i.Contains(at(10)) {
		t.Error("start should be contained (closed lower bound)")
	}
	if i.Contains(at(14)) {
		t.Error("end should not be contained (open upper bound)")
	}
	if !i.Contains(at(12)) {
		t.Error("interior point should be contained")
	}
	if i.Contains(at(9)) {
		t.Error("point before start should not be contained")
	}
}

func TestDuration(t *testing.T) {
	i := mustInterval(t, at(10), at(14))
	if got := i.Duration(); got != 4*time.Hour {
		t.Errorf("Duration() = %v, want 4h", got)
	}
}
