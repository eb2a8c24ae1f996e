package checks

import (
	"context"
	"time"

	"github.com/charlesng35/sessionkit/internal/monitoring"
	"github.com/charlesng35/sessionkit/internal/session"
)

// staleSweepFactor is how many missed sweep intervals mark the sweeper stale.
const staleSweepFactor = 3

// SessionStatusSource reports the session manager's lifecycle state.
type SessionStatusSource interface {
	Status() session.Status
}

// Sessions verifies that the session manager accepts sessions and that its
// sweeper ran within the expected interval.
func Sessions(src SessionStatusSource, interval time.Duration) monitoring.Check {
	return sessionsAt(src, interval, time.Now)
}

func sessionsAt(src SessionStatusSource, interval time.Duration, now func() time.Time) monitoring.Check {
	return monitoring.NewCheck("sessions", func(ctx context.Context) monitoring.ProbeResult {
		st := src.Status()
		if st.Closed {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "session manager shut down"}
		}

		last := st.LastSweepAt
		if last.IsZero() {
			last = st.StartedAt
		}
		if interval > 0 && now().Sub(last) > staleSweepFactor*interval {
			return monitoring.ProbeResult{
				Status:  monitoring.StatusDegraded,
				Details: "stale sweep " + last.UTC().Format(time.RFC3339),
			}
		}

		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	})
}
