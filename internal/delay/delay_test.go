package delay

import (
	"testing"
	"time"
)

func TestFixedReturnsSameDelayForEveryAttempt(t *testing.T) {
	f := NewFixed(2 * time.Second)
	for attempt := 1; attempt <= 5; attempt++ {
		if got := f.Next(attempt); got != 2*time.Second {
			t.Errorf("attempt %d: got %v, want 2s", attempt, got)
		}
	}
}

func TestFixedClampsNegative(t *testing.T) {
	f := NewFixed(-time.Second)
	if got := f.Next(1); got != 0 {
		t.Errorf("negative delay should clamp to zero, got %v", got)
	}
}

func TestFixedZero(t *testing.T) {
	f := NewFixed(0)
	if got := f.Next(3); got != 0 {
		t.Errorf("zero delay strategy returned %v", got)
	}
}
