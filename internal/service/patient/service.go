package patient

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

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patient := &model.Patient{
		Name:   strings.TrimSpace(req.Name),
		Email:  optional(req.Email),
		Phone:  optional(req.Phone),
		Status: model.PatientStatusActive,
	}
	if req.ClinicID != "" {
		id := uuid.MustParse(req.ClinicID)
		if _, err := s.store.Clinics().Get(ctx, id); err != nil {
			return nil, err
		}
		patient.ClinicID = &id
	}
	if req.DateOfBirth != "" {
		dob, err := model.ParseDate(req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Field("date_of_birth", "must be a date in YYYY-MM-DD format")
		}
		patient.DateOfBirth = &dob
	}

	if err := s.store.Patients().Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	return s.store.Patients().Get(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.store.Patients().List(ctx, filters)
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	patient, err := s.store.Patients().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		patient.Email = optional(*req.Email)
	}
	if req.Phone != nil {
		patient.Phone = optional(*req.Phone)
	}
	if req.Status != nil {
		patient.Status = model.PatientStatus(*req.Status)
	}
	if req.DateOfBirth != nil {
		dob, err := model.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, apperrors.Field("date_of_birth", "must be a date in YYYY-MM-DD format")
		}
		patient.DateOfBirth = &dob
	}

	if err := s.store.Patients().Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

// MedicalHistory lists the patient's records, newest first.
func (s *Service) MedicalHistory(ctx context.Context, id uuid.UUID) ([]*model.MedicalRecord, error) {
	if _, err := s.store.Patients().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.MedicalRecords().ListByPatient(ctx, id)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
