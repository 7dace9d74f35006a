package service

import (
	"fmt"
	"math"
	"time"

	"clubevents/internal/model"
)

// maxDelaySeconds is the longest delay the delayed-message exchange accepts
// (x-delay is a signed 32-bit millisecond count).
const maxDelaySeconds = math.MaxInt32 / 1000

// CheckRegistrationGate returns nil when e accepts registrations at now.
// Each window bound is applied on its own; the window is [start, end).
func CheckRegistrationGate(e *model.Event, now time.Time) error {
	if e.Status != model.StatusUpcoming {
		return fmt.Errorf("%w: event is %s", ErrRegistrationClosed, e.Status)
	}
	if start := e.RegistrationStartDate; start != nil && now.Before(*start) {
		return fmt.Errorf("%w: registration opens at %s", ErrRegistrationClosed, start.Format(time.RFC3339))
	}
	if end := e.RegistrationEndDate; end != nil && !now.Before(*end) {
		return fmt.Errorf("%w: registration ended at %s", ErrRegistrationClosed, end.Format(time.RFC3339))
	}
	return nil
}

// closeDelay returns the whole seconds to wait until closeAt, capped at
// maxDelaySeconds. Longer waits are covered by republishing on arrival.
func closeDelay(closeAt, now time.Time) int {
	d := closeAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(math.Ceil(d.Seconds()))
	if secs > maxDelaySeconds {
		return maxDelaySeconds
	}
	return secs
}
