package session

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	tea "github.com/charmbracelet/bubbletea"
)

// reconnectMsg fires when a retry delay for generation has elapsed.
type reconnectMsg struct {
	generation uint64
	attempt    int
}

// newRetryPolicy doubles from base up to max and stops after maxAttempts
// retries. Delays are exact so the schedule is predictable.
func newRetryPolicy(maxAttempts int, base, max time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(base),
		backoff.WithMultiplier(2),
		backoff.WithRandomizationFactor(0),
		backoff.WithMaxInterval(max),
		backoff.WithMaxElapsedTime(0),
	)
	if maxAttempts < 0 {
		maxAttempts = 0
	}
	return backoff.WithMaxRetries(b, uint64(maxAttempts))
}

func scheduleReconnect(delay time.Duration, generation uint64, attempt int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return reconnectMsg{generation: generation, attempt: attempt}
	})
}
