package model

import (
	"github.com/google/uuid"
)

type Clinic struct {
	Base
	Name        string    `db:"name" json:"name"`
	Address     string    `db:"address" json:"address"`
	Phone       string    `db:"phone" json:"phone"`
	OpensAt     ClockTime `db:"opens_at" json:"opens_at"`
	ClosesAt    ClockTime `db:"closes_at" json:"closes_at"`
	SlotMinutes int       `db:"slot_minutes" json:"slot_minutes"`
	Status      string    `db:"status" json:"status"`
}

// IsOpenAt reports whether a slot starting at c and lasting minutes fits in
// the working day.
func (c *Clinic) IsOpenAt(start ClockTime, minutes int) bool {
	return start >= c.OpensAt && start+ClockTime(minutes) <= c.ClosesAt
}

type CreateClinicRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Address     string `json:"address" validate:"max=500"`
	Phone       string `json:"phone" validate:"max=50"`
	OpensAt     string `json:"opens_at" validate:"required,clock"`
	ClosesAt    string `json:"closes_at" validate:"required,clock"`
	SlotMinutes int    `json:"slot_minutes" validate:"omitempty,gte=5,lte=480"`
}

type UpdateClinicRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Address     *string `json:"address" validate:"omitempty,max=500"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	OpensAt     *string `json:"opens_at" validate:"omitempty,clock"`
	ClosesAt    *string `json:"closes_at" validate:"omitempty,clock"`
	SlotMinutes *int    `json:"slot_minutes" validate:"omitempty,gte=5,lte=480"`
	Status      *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

type Service struct {
	Base
	ClinicID        uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Name            string    `db:"name" json:"name"`
	Description     string    `db:"description" json:"description"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Price           float64   `db:"price" json:"price"`
	Status          string    `db:"status" json:"status"`
}

type CreateServiceRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Description     string  `json:"description" validate:"max=2000"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gte=5,lte=480"`
	Price           float64 `json:"price" validate:"gte=0"`
}
