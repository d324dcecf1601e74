package event

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Emit writes an outbox event. Callers pass the outbox of a transactional
// Store so the event commits together with the change it describes.
func Emit(ctx context.Context, outbox repository.OutboxRepository, eventType string, payload interface{}) error {
	evt, err := model.NewOutboxEvent(eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	if err := outbox.Create(ctx, evt); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// AppointmentPayload is published for every appointment lifecycle event.
type AppointmentPayload struct {
	AppointmentID uuid.UUID               `json:"appointment_id"`
	PatientID     uuid.UUID               `json:"patient_id"`
	DoctorID      uuid.UUID               `json:"doctor_id"`
	ClinicID      uuid.UUID               `json:"clinic_id"`
	Date          model.Date              `json:"date"`
	Time          model.ClockTime         `json:"time"`
	Status        model.AppointmentStatus `json:"status"`
	FinalAmount   float64                 `json:"final_amount"`
	InvoiceID     *uuid.UUID              `json:"invoice_id,omitempty"`
	Reason        string                  `json:"reason,omitempty"`
}

func NewAppointmentPayload(a *model.Appointment) AppointmentPayload {
	return AppointmentPayload{
		AppointmentID: a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		ClinicID:      a.ClinicID,
		Date:          a.Date,
		Time:          a.Time,
		Status:        a.Status,
		FinalAmount:   a.FinalAmount,
	}
}

type PaymentPayload struct {
	PaymentID     uuid.UUID `json:"payment_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Amount        float64   `json:"amount"`
	Method        string    `json:"method"`
}

type BonusPayload struct {
	BonusID  uuid.UUID `json:"bonus_id"`
	DoctorID uuid.UUID `json:"doctor_id"`
	Amount   float64   `json:"amount"`
}

type PayrollPayload struct {
	Month    string                `json:"month"`
	Currency string                `json:"currency"`
	Rows     []model.CommissionRow `json:"rows"`
}
