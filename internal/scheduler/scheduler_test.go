package scheduler

import (
	"errors"
	"testing"

	"github.com/hartfield/compass/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func newTestScheduler() *Scheduler {
	return New(logger.New(logger.Config{Level: "error", Pretty: false}))
}

func TestAddJob_RegistersJob(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob("0 0 4 * * *", &countingJob{name: "nightly"})
	require.NoError(t, err)
	assert.Equal(t, []string{"nightly"}, s.Jobs())
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := newTestScheduler()

	err := s.AddJob("not a schedule", &countingJob{name: "broken"})
	require.Error(t, err)
	assert.Empty(t, s.Jobs())
}

func TestJobs_Sorted(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "zulu"}))
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "alpha"}))

	assert.Equal(t, []string{"alpha", "zulu"}, s.Jobs())
}

func TestRunNow_ExecutesImmediately(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "manual"}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)
}

func TestRunNow_PropagatesError(t *testing.T) {
	s := newTestScheduler()
	job := &countingJob{name: "failing", err: errors.New("boom")}

	assert.Error(t, s.RunNow(job))
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "idle"}))

	s.Start()
	s.Stop()
}
