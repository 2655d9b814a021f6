// Package slots generates fixed-length candidate booking windows from an
// open/close window. Generation is pure: identical inputs always produce the
// identical sequence.
package slots

import (
	"fmt"

	"slotbook/internal/models"
	"slotbook/pkg/response"
)

// Window is one candidate time window on some date.
type Window struct {
	Start models.TimeOfDay
	End   models.TimeOfDay
}

// Generate produces the ordered sequence of non-overlapping windows of
// exactly durationMinutes each, starting at open and stepping by the
// duration. No partial trailing window is emitted; open == close yields an
// empty sequence.
func Generate(open, close models.TimeOfDay, durationMinutes int) ([]Window, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d: %w",
			durationMinutes, response.ErrConfiguration)
	}
	if close < open {
		return nil, fmt.Errorf("window end %s before start %s: %w",
			close, open, response.ErrConfiguration)
	}

	var windows []Window
	for cur := open; !(cur.Add(durationMinutes) > close); cur = cur.Add(durationMinutes) {
		windows = append(windows, Window{
			Start: cur,
			End:   cur.Add(durationMinutes),
		})
	}

	return windows, nil
}
