package monitoring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sessionkit/internal/monitoring"
)

func TestHealthManagerEvaluate(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.RegisterReadiness(monitoring.NewCheck("sessions", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusUp}
	}))
	manager.RegisterReadiness(monitoring.NewCheck("sweeper", func(ctx context.Context) monitoring.ProbeResult {
		return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "stale"}
	}))

	report := manager.EvaluateReadiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "sweeper", report.Checks[1].Component)

	live := manager.EvaluateLiveness(context.Background())
	require.True(t, live.Success)
	require.Empty(t, live.Checks)
}

func TestHealthManagerRecoversPanickingProbe(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager()
	manager.RegisterLiveness(monitoring.NewCheck("boom", func(ctx context.Context) monitoring.ProbeResult {
		panic("probe exploded")
	}))
	manager.RegisterLiveness(monitoring.NewCheck("", nil))

	report := manager.EvaluateLiveness(context.Background())
	require.Len(t, report.Checks, 1)
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "probe exploded", report.Checks[0].Details)
	require.Equal(t, "boom", report.Checks[0].Component)
}
