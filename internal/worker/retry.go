package worker

import "time"

// RetryPolicy задает расписание повторов фоновых задач.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// Backoff returns the wait before the given attempt, 1-based. The delay grows
// by BackoffFactor per attempt and never exceeds MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	initial := p.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	delay := float64(initial)
	for i := 1; i < attempt; i++ {
		delay *= factor
		if p.MaxDelay > 0 && delay >= float64(p.MaxDelay) {
			return p.MaxDelay
		}
	}
	return time.Duration(delay)
}
