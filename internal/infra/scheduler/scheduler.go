package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"daily_revelation_bot/internal/app"
	"daily_revelation_bot/internal/infra/config"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// CycleRunner is the delivery action fired by the schedule.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*app.CycleReport, error)
}

// DailySpec turns an HH:MM wall-clock time into a 5-field cron expression.
func DailySpec(clock string) (string, error) {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

type DeliveryScheduler struct {
	cronEngine *cron.Cron
	runner     CycleRunner
	logger     *logrus.Entry
	cronSpec   string
	timeout    time.Duration

	// runCtx parents every cycle; Stop cancels it so shutdown is not held
	// for a full delivery timeout.
	runCtx    context.Context
	cancelRun context.CancelFunc
	startup   sync.WaitGroup
}

func NewDeliveryScheduler(
	runner CycleRunner,
	logger *logrus.Entry,
	sendTime string, // e.g. "06:00"
	location *time.Location,
	timeout time.Duration,
) (*DeliveryScheduler, error) {
	spec, err := DailySpec(sendTime)
	if err != nil {
		return nil, fmt.Errorf("invalid daily send time: %w", err)
	}
	if location == nil {
		location = time.Local
	}
	cronLogger := cron.PrintfLogger(logger.WithField("source", "cron"))
	runCtx, cancelRun := context.WithCancel(context.Background())
	return &DeliveryScheduler{
		cronEngine: cron.New(
			cron.WithLocation(location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner:    runner,
		logger:    logger.WithFields(logrus.Fields{"cron_spec": spec, "timezone": location.String()}),
		cronSpec:  spec,
		timeout:   timeout,
		runCtx:    runCtx,
		cancelRun: cancelRun,
	}, nil
}

// Start registers the daily job, starts the engine and fires one cycle
// right away in the background.
func (s *DeliveryScheduler) Start() error {
	s.logger.Info("Starting delivery scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily delivery.")
		s.executeCycle("daily")
	})
	if err != nil {
		return fmt.Errorf("could not add daily delivery cron job: %w", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Delivery scheduler started.")

	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.executeCycle("startup")
	}()
	return nil
}

// executeCycle runs one delivery and logs the outcome; errors never escape.
func (s *DeliveryScheduler) executeCycle(trigger string) {
	ctx, cancel := context.WithTimeout(s.runCtx, s.timeout)
	defer cancel()

	log := s.logger.WithField("trigger", trigger)
	report, err := s.runner.RunCycle(ctx)
	switch {
	case errors.Is(err, app.ErrCycleInProgress):
		log.Warn("Delivery cycle already running, trigger ignored.")
	case err != nil:
		log.WithError(err).Error("Delivery cycle finished with an error.")
	case !report.Advanced:
		log.Info("Delivery cycle sent nothing.")
	default:
		log.WithFields(logrus.Fields{
			"index":      report.Index,
			"next_index": report.NextIndex,
			"delivered":  report.Delivered,
			"failed":     len(report.Failed),
		}).Info("Delivery cycle completed.")
	}
}

// Next returns when the daily job fires next; zero before Start.
func (s *DeliveryScheduler) Next() time.Time {
	entries := s.cronEngine.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *DeliveryScheduler) Stop() {
	s.logger.Info("Stopping delivery scheduler...")
	s.cancelRun()
	ctx := s.cronEngine.Stop() // Stops the scheduler from adding new jobs, waits for running jobs.
	<-ctx.Done()
	s.startup.Wait()
	s.logger.Info("Delivery scheduler gracefully stopped.")
}
