package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

// MonthCloser closes the payroll of one month.
type MonthCloser interface {
	CloseMonth(ctx context.Context, month model.Month) (*model.CommissionReport, error)
}

// PayrollScheduler closes the previous month on a cron schedule evaluated in
// the practice timezone.
type PayrollScheduler struct {
	closer   MonthCloser
	settings settings.Provider
	schedule string
	logger   *logger.Logger
	now      func() time.Time
}

func NewPayrollScheduler(closer MonthCloser, sp settings.Provider, schedule string, logger *logger.Logger) *PayrollScheduler {
	return &PayrollScheduler{
		closer:   closer,
		settings: sp,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the job and blocks until ctx is cancelled.
func (s *PayrollScheduler) Start(ctx context.Context) error {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	c := cron.New(cron.WithLocation(cfg.Location()))
	if _, err := c.AddFunc(s.schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error(err, "Payroll close failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid payroll schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("Starting payroll scheduler", "schedule", s.schedule, "timezone", cfg.Timezone)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// RunOnce closes the month before the current one.
func (s *PayrollScheduler) RunOnce(ctx context.Context) (*model.CommissionReport, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	month := model.MonthOf(s.now().In(cfg.Location())).Previous()

	report, err := s.closer.CloseMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to close %s: %w", month, err)
	}
	return report, nil
}
