package model

import (
	"fmt"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCompleted ||
		s == AppointmentStatusCancelled ||
		s == AppointmentStatusNoShow
}

// CanTransitionTo reports whether s -> next is allowed. Only scheduled
// appointments move, and only into a terminal state.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	return s == AppointmentStatusScheduled && next.IsTerminal()
}

// HoldsSlot reports whether an appointment in status s blocks its slot.
func (s AppointmentStatus) HoldsSlot() bool {
	return s != AppointmentStatusCancelled
}

type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ServiceID    uuid.UUID         `db:"service_id" json:"service_id"`
	ClinicID     uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	Date         Date              `db:"appointment_date" json:"date"`
	Time         ClockTime         `db:"appointment_time" json:"time"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Cost         float64           `db:"cost" json:"cost"`
	Discount     float64           `db:"discount" json:"discount"`
	FinalAmount  float64           `db:"final_amount" json:"final_amount"`
	Notes        string            `db:"notes" json:"notes,omitempty"`
	CancelReason *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// Slot returns the bookable unit held by the appointment.
func (a *Appointment) Slot() Slot {
	return Slot{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}

// Slot is a (doctor, date, time) triple.
type Slot struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     Date      `json:"date"`
	Time     ClockTime `json:"time"`
}

// Key is a stable string identity for the slot, used for locking.
func (s Slot) Key() string {
	return fmt.Sprintf("%s|%s|%s", s.DoctorID, s.Date, s.Time)
}

type CreateAppointmentRequest struct {
	PatientID string   `json:"patient_id" validate:"required,uuid"`
	DoctorID  string   `json:"doctor_id" validate:"required,uuid"`
	ServiceID string   `json:"service_id" validate:"required,uuid"`
	ClinicID  string   `json:"clinic_id" validate:"required,uuid"`
	Date      string   `json:"date" validate:"required,date"`
	Time      string   `json:"time" validate:"required,clock"`
	Cost      *float64 `json:"cost" validate:"omitempty,gte=0"`
	Discount  float64  `json:"discount" validate:"gte=0"`
	Notes     string   `json:"notes" validate:"max=1000"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" validate:"required,date"`
	Time string `json:"time" validate:"required,clock"`
}

type UpdatePricingRequest struct {
	Cost     float64 `json:"cost" validate:"gte=0"`
	Discount float64 `json:"discount" validate:"gte=0"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type CompleteAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis" validate:"required,max=4000"`
	Prescription string `json:"prescription" validate:"max=4000"`
	Notes        string `json:"notes" validate:"max=4000"`
}

// ConflictQuery is the input of a slot conflict check.
type ConflictQuery struct {
	DoctorID  string `form:"doctor_id" json:"doctor_id" validate:"required,uuid"`
	Date      string `form:"date" json:"date" validate:"required,date"`
	Time      string `form:"time" json:"time" validate:"required,clock"`
	ExcludeID string `form:"exclude_id" json:"exclude_id" validate:"omitempty,uuid"`
}

type AppointmentFilters struct {
	ClinicID  *uuid.UUID
	DoctorID  *uuid.UUID
	PatientID *uuid.UUID
	Status    AppointmentStatus
	From      *Date
	To        *Date
	Pagination
}

// Completion is the result of completing an appointment.
type Completion struct {
	Appointment   *Appointment   `json:"appointment"`
	MedicalRecord *MedicalRecord `json:"medical_record"`
	Invoice       *Invoice       `json:"invoice"`
}

// AvailabilityQuery asks for the free start times of a doctor on a day.
type AvailabilityQuery struct {
	DoctorID  string `form:"doctor_id" json:"doctor_id" validate:"required,uuid"`
	Date      string `form:"date" json:"date" validate:"required,date"`
	ServiceID string `form:"service_id" json:"service_id" validate:"omitempty,uuid"`
}

// Availability lists bookable start times.
type Availability struct {
	DoctorID    uuid.UUID   `json:"doctor_id"`
	Date        Date        `json:"date"`
	SlotMinutes int         `json:"slot_minutes"`
	Slots       []ClockTime `json:"slots"`
}

// Quote is the priced result of a cost/discount pair.
type Quote struct {
	Cost        float64 `json:"cost" form:"cost" validate:"gte=0"`
	Discount    float64 `json:"discount" form:"discount" validate:"gte=0"`
	FinalAmount float64 `json:"final_amount" form:"-"`
}
