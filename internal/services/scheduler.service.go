package services

import (
	"context"
	"time"

	"policybook/internal/logger"

	"github.com/robfig/cron/v3"
)

type TaskPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SchedulerService runs background housekeeping. Task purging also happens
// lazily on read, so a missed run only delays cleanup.
type SchedulerService struct {
	cron   *cron.Cron
	purger TaskPurger
	log    logger.Logger
}

func NewSchedulerService(purger TaskPurger) *SchedulerService {
	return &SchedulerService{
		cron:   cron.New(),
		purger: purger,
		log:    logger.New("SchedulerService"),
	}
}

func (s *SchedulerService) Start(schedule string) error {
	log := s.log.Function("Start")

	if _, err := s.cron.AddFunc(schedule, s.purgeTasks); err != nil {
		return log.Err("failed to schedule task purge", err, "schedule", schedule)
	}

	s.cron.Start()
	log.Info("Scheduler started", "taskPurgeSchedule", schedule)
	return nil
}

func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *SchedulerService) purgeTasks() {
	log := s.log.Function("purgeTasks")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	purged, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		log.Er("failed to purge completed tasks", err)
		return
	}

	if purged > 0 {
		log.Info("Purged completed tasks", "count", purged)
	}
}
