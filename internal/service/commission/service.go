package commission

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/event"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/money"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// Payout is the commission on payments at pct percent, rounded to a whole
// currency unit.
func Payout(payments, pct float64) int64 {
	return money.Percent(payments, pct)
}

type Service struct {
	store     repository.Store
	settings  settings.Provider
	validator validator.Validator
	metrics   *metrics.Metrics
}

func NewService(store repository.Store, sp settings.Provider, v validator.Validator, m *metrics.Metrics) *Service {
	return &Service{
		store:     store,
		settings:  sp,
		validator: v,
		metrics:   m,
	}
}

// ComputeMonthlyCommission builds one row per doctor for month. An empty
// doctorIDs selects every doctor.
//
// Payments are attributed by appointment date within the month's calendar
// days; bonuses by creation time within the month in the practice timezone.
func (s *Service) ComputeMonthlyCommission(ctx context.Context, month model.Month, doctorIDs []uuid.UUID) ([]model.CommissionRow, error) {
	cfg, err := settings.Resolve(ctx, s.settings)
	if err != nil {
		return nil, err
	}

	doctors, err := s.doctors(ctx, doctorIDs)
	if err != nil {
		return nil, err
	}

	firstDay, lastDay := month.FirstDay(), month.LastDay()
	windowStart, windowEnd := month.Window(cfg.Location())

	rows := make([]model.CommissionRow, 0, len(doctors))
	for _, d := range doctors {
		payments, err := s.store.Payments().SumForDoctor(ctx, d.ID, firstDay, lastDay)
		if err != nil {
			return nil, fmt.Errorf("failed to sum payments for doctor %s: %w", d.ID, err)
		}
		bonus, err := s.store.Bonuses().SumForDoctor(ctx, d.ID, windowStart, windowEnd)
		if err != nil {
			return nil, fmt.Errorf("failed to sum bonuses for doctor %s: %w", d.ID, err)
		}

		pct := d.Percentage()
		payout := Payout(payments, pct)
		rows = append(rows, model.CommissionRow{
			DoctorID:   d.ID,
			Name:       d.DisplayName(),
			Percentage: pct,
			Payments:   payments,
			Payout:     payout,
			Bonus:      bonus,
			Total:      float64(payout) + bonus,
		})
	}
	return rows, nil
}

// Report wraps ComputeMonthlyCommission with the month label and currency.
func (s *Service) Report(ctx context.Context, month model.Month, doctorIDs []uuid.UUID) (*model.CommissionReport, error) {
	cfg, err := settings.Resolve(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	rows, err := s.ComputeMonthlyCommission(settings.NewContext(ctx, cfg), month, doctorIDs)
	if err != nil {
		return nil, err
	}
	return &model.CommissionReport{Month: month.String(), Currency: cfg.Currency, Rows: rows}, nil
}

// CloseMonth computes the month's rows and records them as a
// payroll.month_closed event.
func (s *Service) CloseMonth(ctx context.Context, month model.Month) (*model.CommissionReport, error) {
	report, err := s.Report(ctx, month, nil)
	if err != nil {
		s.metrics.PayrollRun("error")
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		return event.Emit(ctx, tx.Outbox(), model.EventPayrollMonthClosed, event.PayrollPayload{
			Month:    report.Month,
			Currency: report.Currency,
			Rows:     report.Rows,
		})
	})
	if err != nil {
		s.metrics.PayrollRun("error")
		return nil, err
	}

	s.metrics.PayrollRun("ok")
	log.Info().Str("month", report.Month).Int("doctors", len(report.Rows)).Msg("payroll month closed")
	return report, nil
}

// AddDoctorBonus records an ad hoc bonus for the doctor.
func (s *Service) AddDoctorBonus(ctx context.Context, doctorID uuid.UUID, req *model.AddBonusRequest) (*model.DoctorBonus, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	bonus := &model.DoctorBonus{
		DoctorID: doctorID,
		Amount:   money.Round2(req.Amount),
		Note:     strings.TrimSpace(req.Note),
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Doctors().Get(ctx, doctorID); err != nil {
			return err
		}
		if err := tx.Bonuses().Create(ctx, bonus); err != nil {
			return err
		}
		return event.Emit(ctx, tx.Outbox(), model.EventBonusAdded, event.BonusPayload{
			BonusID:  bonus.ID,
			DoctorID: doctorID,
			Amount:   bonus.Amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return bonus, nil
}

// ListBonuses returns the doctor's bonuses created within month.
func (s *Service) ListBonuses(ctx context.Context, doctorID uuid.UUID, month model.Month) ([]*model.DoctorBonus, error) {
	if _, err := s.store.Doctors().Get(ctx, doctorID); err != nil {
		return nil, err
	}
	cfg, err := settings.Resolve(ctx, s.settings)
	if err != nil {
		return nil, err
	}
	from, to := month.Window(cfg.Location())
	return s.store.Bonuses().ListForDoctor(ctx, doctorID, from, to)
}

func (s *Service) doctors(ctx context.Context, ids []uuid.UUID) ([]*model.Doctor, error) {
	if len(ids) == 0 {
		doctors, err := s.store.Doctors().List(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list doctors: %w", err)
		}
		return doctors, nil
	}

	doctors := make([]*model.Doctor, 0, len(ids))
	for _, id := range ids {
		d, err := s.store.Doctors().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}

// ParseMonth validates a YYYY-MM query value.
func ParseMonth(raw string) (model.Month, error) {
	m, err := model.ParseMonth(raw)
	if err != nil {
		return model.Month{}, apperrors.Field("month", "must be a month in YYYY-MM format")
	}
	return m, nil
}
