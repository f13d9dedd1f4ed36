package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockbook/internal/domain/models"
	"github.com/mamadbah2/stockbook/internal/repository/mongodb"
	"github.com/mamadbah2/stockbook/internal/service/reporting"
)

const runTimeout = 2 * time.Minute

// ReportBuilder produces the daily closing report.
type ReportBuilder interface {
	Today() time.Time
	DailyReport(date time.Time) models.DailyReport
}

// Notifier delivers the closing summary to the shop owner.
type Notifier interface {
	NotifyOwner(ctx context.Context, text string) error
}

// RunRecorder observes the outcome of each scheduled run.
type RunRecorder interface {
	ReportRun(err error)
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithArchive stores every closing report.
func WithArchive(archive mongodb.Repository) Option {
	return func(s *Scheduler) { s.archive = archive }
}

// WithNotifier sends every closing summary.
func WithNotifier(n Notifier) Option {
	return func(s *Scheduler) { s.notifier = n }
}

// WithRunRecorder reports run outcomes, typically to metrics.
func WithRunRecorder(r RunRecorder) Option {
	return func(s *Scheduler) { s.recorder = r }
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reports  ReportBuilder
	archive  mongodb.Repository
	notifier Notifier
	recorder RunRecorder
	logger   *zap.Logger
}

// NewScheduler creates a scheduler whose standard five-field cron schedule is evaluated in loc.
func NewScheduler(schedule string, loc *time.Location, reports ReportBuilder, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		reports:  reports,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the daily closing report and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := s.RunDailyReport(ctx); err != nil {
		s.logger.Error("daily report run failed", zap.Error(err))
	}
}

// RunDailyReport builds today's report, archives it and sends the summary.
// Archive and notification failures are both attempted and joined.
func (s *Scheduler) RunDailyReport(ctx context.Context) error {
	report := s.reports.DailyReport(s.reports.Today())
	s.logger.Info("generating daily report",
		zap.String("date", mongodb.DocumentID(report)),
		zap.Int("transactions", report.Totals.TransactionCount))

	var errs []error
	if s.archive != nil {
		if err := s.archive.SaveDailyReport(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("archive: %w", err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyOwner(ctx, reporting.FormatDailySummary(report)); err != nil {
			errs = append(errs, fmt.Errorf("notify: %w", err))
		} else {
			s.logger.Info("daily report sent successfully")
		}
	}

	err := errors.Join(errs...)
	if s.recorder != nil {
		s.recorder.ReportRun(err)
	}
	return err
}
