package monitoring

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/dwelr/minevault/internal/models"
	"github.com/dwelr/minevault/internal/services"
)

// Scheduler checks for and executes scheduled backup and prune tasks.
type Scheduler struct {
	scheduleSvc services.ScheduleServiceProvider
	backupSvc   services.BackupServiceProvider
	eventSvc    services.EventServiceProvider
	ticker      *time.Ticker
	done        chan bool
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(scheduleSvc services.ScheduleServiceProvider, backupSvc services.BackupServiceProvider, eventSvc services.EventServiceProvider) *Scheduler {
	return &Scheduler{
		scheduleSvc: scheduleSvc,
		backupSvc:   backupSvc,
		eventSvc:    eventSvc,
		done:        make(chan bool),
	}
}

// Run starts the scheduler's ticking loop.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	s.ticker = time.NewTicker(1 * time.Minute)
	defer s.ticker.Stop()

	// Run once immediately on start
	s.checkAndRunSchedules()

	for {
		select {
		case <-s.done:
			log.Info().Msg("Stopping background scheduler.")
			return
		case <-s.ticker.C:
			s.checkAndRunSchedules()
		}
	}
}

// Stop halts the scheduler.
func (s *Scheduler) Stop() {
	s.done <- true
}

// checkAndRunSchedules queries for due tasks and executes them.
func (s *Scheduler) checkAndRunSchedules() {
	schedules, err := s.scheduleSvc.GetAllActiveSchedules()
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to retrieve active schedules")
		return
	}

	for _, schedule := range schedules {
		cronSchedule, err := cron.ParseStandard(schedule.CronExpression)
		if err != nil {
			log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Invalid cron expression")
			continue
		}

		now := time.Now()
		// If NextRunAt is in the past, it's time to run
		if schedule.NextRunAt != nil && now.After(*schedule.NextRunAt) {
			go s.executeTask(schedule)

			lastRun := now
			nextRun := cronSchedule.Next(now)
			s.scheduleSvc.UpdateScheduleRunTimes(schedule.ID, lastRun, nextRun)
		}
	}
}

// backupPayload is the payload shape for "backup" tasks. Missing fields fall
// back to a full compressed backup of every catalog folder.
type backupPayload struct {
	Name               string   `json:"name"`
	Folders            []string `json:"folders"`
	Compress           *bool    `json:"compress"`
	ExcludedExtensions []string `json:"excludedExtensions"`
}

// prunePayload is the payload shape for "prune" tasks.
type prunePayload struct {
	MaxAgeDays int `json:"maxAgeDays"`
}

// executeTask performs the action defined by the schedule.
func (s *Scheduler) executeTask(schedule models.Schedule) {
	log.Info().Str("schedule_name", schedule.Name).Str("task_type", schedule.TaskType).Msg("Scheduler: Executing task")
	var err error

	switch schedule.TaskType {
	case models.TaskBackup:
		req := s.buildBackupRequest(schedule)
		_, err = s.backupSvc.CreateBackup(req)
	case models.TaskPrune:
		payload := prunePayload{MaxAgeDays: 30}
		if schedule.Payload != nil {
			json.Unmarshal(schedule.Payload, &payload)
		}
		if payload.MaxAgeDays <= 0 {
			payload.MaxAgeDays = 30
		}
		var pruned int
		pruned, err = s.backupSvc.PruneOlderThan(time.Duration(payload.MaxAgeDays) * 24 * time.Hour)
		if err == nil {
			log.Info().Int("pruned", pruned).Str("schedule_name", schedule.Name).Msg("Scheduler: Prune complete")
		}
	default:
		err = fmt.Errorf("unknown task type '%s' for schedule %s", schedule.TaskType, schedule.ID)
	}

	if err != nil {
		log.Error().Err(err).Str("schedule_id", schedule.ID).Msg("Scheduler: Error executing task")
		msg := fmt.Sprintf("Scheduled task '%s' failed to execute: %v", schedule.Name, err)
		s.eventSvc.CreateEvent("schedule.execute.fail", "error", msg, nil)
	} else {
		msg := fmt.Sprintf("Scheduled task '%s' executed successfully.", schedule.Name)
		s.eventSvc.CreateEvent("schedule.execute.success", "info", msg, nil)
	}
}

func (s *Scheduler) buildBackupRequest(schedule models.Schedule) services.BackupRequest {
	payload := backupPayload{}
	if schedule.Payload != nil {
		if json.Unmarshal(schedule.Payload, &payload) != nil {
			payload = backupPayload{}
		}
	}
	req := services.BackupRequest{
		Name:               payload.Name,
		Folders:            payload.Folders,
		Compress:           true,
		ExcludedExtensions: payload.ExcludedExtensions,
	}
	if req.Name == "" {
		req.Name = "Scheduled Backup"
	}
	if len(req.Folders) == 0 {
		// Everything except previous backup output.
		req.Folders = []string{"saves", "mods", "config", "logs", "screenshots"}
	}
	if payload.Compress != nil {
		req.Compress = *payload.Compress
	}
	return req
}
