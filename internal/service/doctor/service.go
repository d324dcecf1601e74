package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Service struct {
	store     repository.Store
	validator validator.Validator
}

func NewService(store repository.Store, v validator.Validator) *Service {
	return &Service{
		store:     store,
		validator: v,
	}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	doctor := &model.Doctor{
		Name:              strings.TrimSpace(req.Name),
		Specialization:    req.Specialization,
		Bio:               req.Bio,
		PaymentPercentage: req.PaymentPercentage,
	}

	if req.ClinicID != "" {
		id := uuid.MustParse(req.ClinicID)
		if _, err := s.store.Clinics().Get(ctx, id); err != nil {
			return nil, err
		}
		doctor.ClinicID = &id
	}
	if req.UserID != "" {
		id := uuid.MustParse(req.UserID)
		if _, err := s.store.Users().Get(ctx, id); err != nil {
			return nil, err
		}
		doctor.UserID = &id
	}

	if err := s.store.Doctors().Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return s.store.Doctors().Get(ctx, doctor.ID)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.store.Doctors().Get(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, clinicID *uuid.UUID) ([]*model.Doctor, error) {
	return s.store.Doctors().List(ctx, clinicID)
}

// SetAvailability replaces the doctor's weekly windows.
func (s *Service) SetAvailability(ctx context.Context, doctorID uuid.UUID, req *model.SetAvailabilityRequest) ([]*model.DoctorAvailability, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	windows := make([]*model.DoctorAvailability, 0, len(req.Windows))
	for i, w := range req.Windows {
		starts, err := model.ParseClock(w.StartsAt)
		if err != nil {
			return nil, apperrors.Field(fmt.Sprintf("windows[%d].starts_at", i), "must be a time in HH:MM format")
		}
		ends, err := model.ParseClock(w.EndsAt)
		if err != nil {
			return nil, apperrors.Field(fmt.Sprintf("windows[%d].ends_at", i), "must be a time in HH:MM format")
		}
		if starts >= ends {
			return nil, apperrors.Field(fmt.Sprintf("windows[%d].ends_at", i), "must be after starts_at")
		}
		windows = append(windows, &model.DoctorAvailability{Weekday: w.Weekday, StartsAt: starts, EndsAt: ends})
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Doctors().Get(ctx, doctorID); err != nil {
			return err
		}
		return tx.Doctors().ReplaceAvailability(ctx, doctorID, windows)
	})
	if err != nil {
		return nil, err
	}
	return s.store.Doctors().ListAvailability(ctx, doctorID, nil)
}

func (s *Service) GetAvailability(ctx context.Context, doctorID uuid.UUID) ([]*model.DoctorAvailability, error) {
	if _, err := s.store.Doctors().Get(ctx, doctorID); err != nil {
		return nil, err
	}
	return s.store.Doctors().ListAvailability(ctx, doctorID, nil)
}
