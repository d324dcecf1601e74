package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Service struct {
	store     repository.Store
	hasher    security.PasswordHasher
	validator validator.Validator
}

func NewService(store repository.Store, hasher security.PasswordHasher, v validator.Validator) *Service {
	return &Service{
		store:     store,
		hasher:    hasher,
		validator: v,
	}
}

// CreateUser registers a login. Doctor logins must reference an existing
// doctor; receptionists may be scoped to a clinic.
func (s *Service) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var doctorID, clinicID *uuid.UUID
	if req.DoctorID != "" {
		id := uuid.MustParse(req.DoctorID)
		doctorID = &id
	}
	if req.ClinicID != "" {
		id := uuid.MustParse(req.ClinicID)
		clinicID = &id
	}

	kind := model.RoleKind(req.Role)
	role, err := model.NewRole(kind, doctorID, clinicID)
	if err != nil {
		return nil, apperrors.Field("doctor_id", "is required for the doctor role")
	}

	switch r := role.(type) {
	case model.DoctorRole:
		if _, err := s.store.Doctors().Get(ctx, r.DoctorID); err != nil {
			return nil, err
		}
	case model.ReceptionistRole:
		if r.ClinicID != nil {
			if _, err := s.store.Clinics().Get(ctx, *r.ClinicID); err != nil {
				return nil, err
			}
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if err == security.ErrPasswordTooShort {
			return nil, apperrors.Field("password", fmt.Sprintf("must be at least %d characters", security.MinPasswordLen))
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Status:       model.UserStatusActive,
		Role:         role,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.store.Users().Get(ctx, id)
}
