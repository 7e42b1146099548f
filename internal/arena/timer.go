package arena

import "time"

// Two single-shot timers exist per room: the per-question deadline and the
// reconnection grace period. Both are time.AfterFunc firings whose handlers
// re-acquire the room lock and bail out when the timer's premise no longer
// holds. On top of the state recheck, each armed timer captures a generation
// counter; every superseding transition (both answered, finalize, reconnect)
// bumps the generation, so cancellation is explicit and testable rather than
// relying on the recheck alone.

// TimerStatus is a stateless view of the current question deadline, computed
// from the stored start timestamp and the fixed duration. It is idempotent
// and immune to client clock drift; clients poll it via sync-timer.
type TimerStatus struct {
	Remaining  time.Duration
	Percentage float64
}

// ComputeTimer derives the remaining time and percentage for a question that
// started at startedAt with the given limit, as of now.
func ComputeTimer(startedAt time.Time, limit time.Duration, now time.Time) TimerStatus {
	if limit <= 0 || startedAt.IsZero() {
		return TimerStatus{}
	}
	remaining := limit - now.Sub(startedAt)
	if remaining < 0 {
		remaining = 0
	}
	return TimerStatus{
		Remaining:  remaining,
		Percentage: float64(remaining) / float64(limit) * 100,
	}
}
