package slots

import (
	"errors"
	"testing"

	"slotbook/internal/models"
	"slotbook/pkg/response"
)

func mustTime(t *testing.T, s string) models.TimeOfDay {
	t.Helper()
	tod, err := models.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tod
}

func TestGenerateFullDay(t *testing.T) {
	windows, err := Generate(mustTime(t, "09:00"), mustTime(t, "17:00"), 60)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(windows) != 8 {
		t.Fatalf("expected 8 windows, got %d", len(windows))
	}
	if windows[0].Start.String() != "09:00" || windows[0].End.String() != "10:00" {
		t.Errorf("first window = %s-%s, want 09:00-10:00", windows[0].Start, windows[0].End)
	}
	last := windows[len(windows)-1]
	if last.Start.String() != "16:00" || last.End.String() != "17:00" {
		t.Errorf("last window = %s-%s, want 16:00-17:00", last.Start, last.End)
	}
}

func TestGenerateNoPartialTrailingSlot(t *testing.T) {
	windows, err := Generate(mustTime(t, "09:00"), mustTime(t, "09:45"), 60)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("expected empty sequence, got %d windows", len(windows))
	}
}

func TestGenerateDegenerateWindow(t *testing.T) {
	windows, err := Generate(mustTime(t, "09:00"), mustTime(t, "09:00"), 60)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(windows) != 0 {
		t.Errorf("open == close should yield no windows, got %d", len(windows))
	}
}

func TestGenerateInvalidDuration(t *testing.T) {
	for _, dur := range []int{0, -30} {
		_, err := Generate(mustTime(t, "09:00"), mustTime(t, "17:00"), dur)
		if !errors.Is(err, response.ErrConfiguration) {
			t.Errorf("duration %d: expected ErrConfiguration, got %v", dur, err)
		}
	}
}

func TestGenerateInvertedWindow(t *testing.T) {
	_, err := Generate(mustTime(t, "17:00"), mustTime(t, "09:00"), 60)
	if !errors.Is(err, response.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestGenerateWindowProperties(t *testing.T) {
	tests := []struct {
		name     string
		open     string
		close    string
		duration int
	}{
		{"hour slots", "08:00", "20:00", 60},
		{"half hour slots", "10:00", "13:30", 30},
		{"odd duration leaves tail", "09:00", "17:10", 45},
		{"quarter hours", "00:00", "01:00", 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			windows, err := Generate(mustTime(t, tt.open), mustTime(t, tt.close), tt.duration)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}

			close := mustTime(t, tt.close)
			prevEnd := mustTime(t, tt.open)
			for i, w := range windows {
				if int(w.End-w.Start) != tt.duration {
					t.Errorf("window %d is %d minutes, want %d", i, w.End-w.Start, tt.duration)
				}
				if w.Start != prevEnd {
					t.Errorf("window %d starts at %s, want %s (no gaps, no overlap)", i, w.Start, prevEnd)
				}
				if w.End > close {
					t.Errorf("window %d ends at %s past close %s", i, w.End, close)
				}
				prevEnd = w.End
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(mustTime(t, "09:00"), mustTime(t, "18:00"), 45)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(mustTime(t, "09:00"), mustTime(t, "18:00"), 45)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("window %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}
