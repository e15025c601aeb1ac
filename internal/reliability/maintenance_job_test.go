package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hartfield/compass/internal/observations"
	testingpkg "github.com/hartfield/compass/internal/testing"
	"github.com/hartfield/compass/pkg/logger"
)

func TestMaintenanceJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	testingpkg.SeedObservations(t, db, testingpkg.NewObservationRowFixtures(time.Now().Unix()))

	repo := observations.NewRepository(db.Conn())
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	job := NewMaintenanceJob(db, repo, t.TempDir(), log)

	require.NoError(t, job.Run())
	assert.Equal(t, "daily_maintenance", job.Name())
}

func TestMaintenanceJob_RunWithoutHistory(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	job := NewMaintenanceJob(db, nil, t.TempDir(), log)

	assert.NoError(t, job.Run())
}

func TestVacuumJob_Run(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	testingpkg.SeedObservations(t, db, testingpkg.NewObservationRowFixtures(time.Now().Unix()))
	testingpkg.MustExec(t, db, "DELETE FROM observations")

	log := logger.New(logger.Config{Level: "error", Pretty: false})
	job := NewVacuumJob(db, log)

	require.NoError(t, job.Run())
	assert.Equal(t, "weekly_vacuum", job.Name())
}
