package model

import (
	"github.com/google/uuid"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

type Patient struct {
	Base
	ClinicID    *uuid.UUID    `db:"clinic_id" json:"clinic_id,omitempty"`
	Name        string        `db:"name" json:"name"`
	Email       *string       `db:"email" json:"email,omitempty"`
	Phone       *string       `db:"phone" json:"phone,omitempty"`
	DateOfBirth *Date         `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Status      PatientStatus `db:"status" json:"status"`
}

type CreatePatientRequest struct {
	ClinicID    string `json:"clinic_id" validate:"omitempty,uuid"`
	Name        string `json:"name" validate:"required,max=200"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"max=50"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,date"`
}

type UpdatePatientRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	DateOfBirth *string `json:"date_of_birth" validate:"omitempty,date"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type PatientFilters struct {
	ClinicID *uuid.UUID
	Search   string
	Pagination
}
