package model

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	Base
	ClinicID          *uuid.UUID `db:"clinic_id" json:"clinic_id,omitempty"`
	UserID            *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Name              string     `db:"name" json:"name"`
	UserName          *string    `db:"user_name" json:"-"`
	Specialization    string     `db:"specialization" json:"specialization"`
	Bio               string     `db:"bio" json:"bio"`
	PaymentPercentage *float64   `db:"payment_percentage" json:"payment_percentage"`
}

// DisplayName prefers the linked user's name and falls back to the raw name.
func (d *Doctor) DisplayName() string {
	if d.UserName != nil && *d.UserName != "" {
		return *d.UserName
	}
	return d.Name
}

// Percentage returns the commission rate, 0 when unset.
func (d *Doctor) Percentage() float64 {
	if d.PaymentPercentage == nil {
		return 0
	}
	return *d.PaymentPercentage
}

type CreateDoctorRequest struct {
	ClinicID          string   `json:"clinic_id" validate:"omitempty,uuid"`
	UserID            string   `json:"user_id" validate:"omitempty,uuid"`
	Name              string   `json:"name" validate:"required,max=200"`
	Specialization    string   `json:"specialization" validate:"max=200"`
	Bio               string   `json:"bio" validate:"max=4000"`
	PaymentPercentage *float64 `json:"payment_percentage" validate:"omitempty,gte=0,lte=100"`
}

// DoctorAvailability is a weekly working window.
type DoctorAvailability struct {
	ID       uuid.UUID `db:"id" json:"id"`
	DoctorID uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Weekday  int       `db:"weekday" json:"weekday"`
	StartsAt ClockTime `db:"starts_at" json:"starts_at"`
	EndsAt   ClockTime `db:"ends_at" json:"ends_at"`
}

type AvailabilityWindow struct {
	Weekday  int    `json:"weekday" validate:"gte=0,lte=6"`
	StartsAt string `json:"starts_at" validate:"required,clock"`
	EndsAt   string `json:"ends_at" validate:"required,clock"`
}

type SetAvailabilityRequest struct {
	Windows []AvailabilityWindow `json:"windows" validate:"dive"`
}

// DoctorBonus is ad hoc compensation scoped to the month of CreatedAt.
type DoctorBonus struct {
	ID        uuid.UUID `db:"id" json:"id"`
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Amount    float64   `db:"amount" json:"amount"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type AddBonusRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Note   string  `json:"note" validate:"max=500"`
}

// CommissionRow is one line of the monthly salary report.
type CommissionRow struct {
	DoctorID   uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Percentage float64   `json:"percentage"`
	Payments   float64   `json:"payments"`
	Payout     int64     `json:"payout"`
	Bonus      float64   `json:"bonus"`
	Total      float64   `json:"total"`
}

// CommissionReport groups the rows of one month.
type CommissionReport struct {
	Month    string          `json:"month"`
	Currency string          `json:"currency"`
	Rows     []CommissionRow `json:"rows"`
}
