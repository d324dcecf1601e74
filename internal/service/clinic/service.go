package clinic

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

const defaultSlotMinutes = 30

type Service struct {
	repo      repository.ClinicRepository
	validator validator.Validator
}

func NewService(repo repository.ClinicRepository, v validator.Validator) *Service {
	return &Service{
		repo:      repo,
		validator: v,
	}
}

func (s *Service) CreateClinic(ctx context.Context, req *model.CreateClinicRequest) (*model.Clinic, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	opens, closes, err := parseHours(req.OpensAt, req.ClosesAt)
	if err != nil {
		return nil, err
	}

	clinic := &model.Clinic{
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		Phone:       req.Phone,
		OpensAt:     opens,
		ClosesAt:    closes,
		SlotMinutes: req.SlotMinutes,
		Status:      "active",
	}
	if clinic.SlotMinutes == 0 {
		clinic.SlotMinutes = defaultSlotMinutes
	}

	if err := s.repo.Create(ctx, clinic); err != nil {
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListClinics(ctx context.Context) ([]*model.Clinic, error) {
	return s.repo.List(ctx)
}

func (s *Service) UpdateClinic(ctx context.Context, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		clinic.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		clinic.Address = *req.Address
	}
	if req.Phone != nil {
		clinic.Phone = *req.Phone
	}
	if req.SlotMinutes != nil {
		clinic.SlotMinutes = *req.SlotMinutes
	}
	if req.Status != nil {
		clinic.Status = *req.Status
	}

	opens, closes := clinic.OpensAt.String(), clinic.ClosesAt.String()
	if req.OpensAt != nil {
		opens = *req.OpensAt
	}
	if req.ClosesAt != nil {
		closes = *req.ClosesAt
	}
	if clinic.OpensAt, clinic.ClosesAt, err = parseHours(opens, closes); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, clinic); err != nil {
		return nil, err
	}
	return clinic, nil
}

func (s *Service) CreateService(ctx context.Context, clinicID uuid.UUID, req *model.CreateServiceRequest) (*model.Service, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, clinicID); err != nil {
		return nil, err
	}

	service := &model.Service{
		ClinicID:        clinicID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		Status:          "active",
	}
	if err := s.repo.CreateService(ctx, service); err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return service, nil
}

func (s *Service) GetService(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *Service) ListServices(ctx context.Context, clinicID uuid.UUID) ([]*model.Service, error) {
	if _, err := s.repo.Get(ctx, clinicID); err != nil {
		return nil, err
	}
	return s.repo.ListServices(ctx, clinicID)
}

func parseHours(opens, closes string) (model.ClockTime, model.ClockTime, error) {
	o, err := model.ParseClock(opens)
	if err != nil {
		return 0, 0, apperrors.Field("opens_at", "must be a time in HH:MM format")
	}
	c, err := model.ParseClock(closes)
	if err != nil {
		return 0, 0, apperrors.Field("closes_at", "must be a time in HH:MM format")
	}
	if o >= c {
		return 0, 0, apperrors.Field("closes_at", "must be after opens_at")
	}
	return o, c, nil
}
