package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpdesk-triage-go/internal/config"
	"helpdesk-triage-go/internal/pipeline"
)

// A long interval keeps the cron entry from firing during the test
func newTestScheduler() *Scheduler {
	cfg := &config.SchedulerConfig{IntervalSeconds: 3600}
	return NewScheduler(cfg, &pipeline.Pipeline{})
}

func TestSchedulerStartStop(t *testing.T) {
	s := newTestScheduler()

	assert.False(t, s.IsRunning())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.False(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.True(t, s.GetNextRun().IsZero())
}

func TestSchedulerDoubleStart(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.Start())
}

func TestSchedulerStopWhenStopped(t *testing.T) {
	s := newTestScheduler()
	assert.NoError(t, s.Stop())
}

func TestSchedulerRestart(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())

	// A stopped scheduler can be started again with a fresh context
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Stop())
}
