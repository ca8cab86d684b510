package services

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwelr/minevault/internal/database"
	"github.com/dwelr/minevault/internal/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestCreateSchedule(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, NewEventService(db))

	tests := []struct {
		name        string
		schedule    models.Schedule
		expectError string
	}{
		{
			name: "valid backup schedule",
			schedule: models.Schedule{
				Name:           "nightly",
				CronExpression: "0 4 * * *",
				TaskType:       models.TaskBackup,
				Payload:        []byte(`{"name":"Nightly","folders":["saves"]}`),
				IsActive:       true,
			},
		},
		{
			name: "valid prune schedule",
			schedule: models.Schedule{
				Name:           "retention",
				CronExpression: "30 5 * * 0",
				TaskType:       models.TaskPrune,
				Payload:        []byte(`{"maxAgeDays":14}`),
				IsActive:       true,
			},
		},
		{
			name: "invalid cron expression",
			schedule: models.Schedule{
				Name:           "broken",
				CronExpression: "every day at dawn",
				TaskType:       models.TaskBackup,
			},
			expectError: "invalid cron expression",
		},
		{
			name: "unknown task type",
			schedule: models.Schedule{
				Name:           "mystery",
				CronExpression: "0 4 * * *",
				TaskType:       "defrag",
			},
			expectError: "unknown task type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.schedule.ID = uuid.New().String()
			created, err := svc.CreateSchedule(tt.schedule)
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.schedule.Name, created.Name)
			require.NotNil(t, created.NextRunAt)
			assert.True(t, created.NextRunAt.After(time.Now()))
			if tt.schedule.Payload != nil {
				assert.JSONEq(t, string(tt.schedule.Payload), string(created.Payload))
			}
		})
	}
}

func TestUpdateScheduleRunTimes(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, NewEventService(db))

	created, err := svc.CreateSchedule(models.Schedule{
		ID:             uuid.New().String(),
		Name:           "nightly",
		CronExpression: "0 4 * * *",
		TaskType:       models.TaskBackup,
		IsActive:       true,
	})
	require.NoError(t, err)

	lastRun := time.Now()
	nextRun := lastRun.Add(24 * time.Hour)
	require.NoError(t, svc.UpdateScheduleRunTimes(created.ID, lastRun, nextRun))

	updated, err := svc.GetScheduleByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.LastRunAt)
	require.NotNil(t, updated.NextRunAt)
	assert.WithinDuration(t, lastRun, *updated.LastRunAt, time.Second)
	assert.WithinDuration(t, nextRun, *updated.NextRunAt, time.Second)
}

func TestGetAllActiveSchedules(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, NewEventService(db))

	for _, s := range []models.Schedule{
		{ID: uuid.New().String(), Name: "on", CronExpression: "0 4 * * *", TaskType: models.TaskBackup, IsActive: true},
		{ID: uuid.New().String(), Name: "off", CronExpression: "0 5 * * *", TaskType: models.TaskPrune, IsActive: false},
	} {
		_, err := svc.CreateSchedule(s)
		require.NoError(t, err)
	}

	active, err := svc.GetAllActiveSchedules()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "on", active[0].Name)
}

func TestDeleteSchedule(t *testing.T) {
	db := newTestDB(t)
	svc := NewScheduleService(db, NewEventService(db))

	created, err := svc.CreateSchedule(models.Schedule{
		ID:             uuid.New().String(),
		Name:           "doomed",
		CronExpression: "0 4 * * *",
		TaskType:       models.TaskBackup,
		IsActive:       true,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSchedule(created.ID))
	_, err = svc.GetScheduleByID(created.ID)
	require.Error(t, err)
}
