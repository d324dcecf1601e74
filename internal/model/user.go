package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// RoleKind names one variant of Role.
type RoleKind string

const (
	RoleKindAdmin        RoleKind = "admin"
	RoleKindDoctor       RoleKind = "doctor"
	RoleKindReceptionist RoleKind = "receptionist"
)

// Role is a closed set of user roles. Each variant carries only the data
// that role needs.
type Role interface {
	Kind() RoleKind
	isRole()
}

type AdminRole struct{}

type DoctorRole struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

type ReceptionistRole struct {
	ClinicID *uuid.UUID `json:"clinic_id,omitempty"`
}

func (AdminRole) Kind() RoleKind        { return RoleKindAdmin }
func (DoctorRole) Kind() RoleKind       { return RoleKindDoctor }
func (ReceptionistRole) Kind() RoleKind { return RoleKindReceptionist }

func (AdminRole) isRole()        {}
func (DoctorRole) isRole()       {}
func (ReceptionistRole) isRole() {}

// NewRole assembles a Role from its flattened storage form.
func NewRole(kind RoleKind, doctorID, clinicID *uuid.UUID) (Role, error) {
	switch kind {
	case RoleKindAdmin:
		return AdminRole{}, nil
	case RoleKindDoctor:
		if doctorID == nil || *doctorID == uuid.Nil {
			return nil, fmt.Errorf("doctor role requires a doctor id")
		}
		return DoctorRole{DoctorID: *doctorID}, nil
	case RoleKindReceptionist:
		return ReceptionistRole{ClinicID: clinicID}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", kind)
	}
}

// FlattenRole is the inverse of NewRole.
func FlattenRole(r Role) (kind RoleKind, doctorID, clinicID *uuid.UUID) {
	switch v := r.(type) {
	case DoctorRole:
		id := v.DoctorID
		return RoleKindDoctor, &id, nil
	case ReceptionistRole:
		return RoleKindReceptionist, nil, v.ClinicID
	case AdminRole:
		return RoleKindAdmin, nil, nil
	}
	return "", nil, nil
}

// User represents a login identity.
type User struct {
	Base
	Email        string `json:"email" db:"email"`
	Name         string `json:"name" db:"name"`
	PasswordHash string `json:"-" db:"password_hash"`
	Status       string `json:"status" db:"status"`
	Role         Role   `json:"-" db:"-"`
}

func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	kind, doctorID, clinicID := FlattenRole(u.Role)
	return json.Marshal(struct {
		alias
		Role     RoleKind   `json:"role"`
		DoctorID *uuid.UUID `json:"doctor_id,omitempty"`
		ClinicID *uuid.UUID `json:"clinic_id,omitempty"`
	}{alias(u), kind, doctorID, clinicID})
}

type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=200"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin doctor receptionist"`
	DoctorID string `json:"doctor_id" validate:"omitempty,uuid"`
	ClinicID string `json:"clinic_id" validate:"omitempty,uuid"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *User     `json:"user"`
}
