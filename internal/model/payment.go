package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Payment struct {
	Base
	AppointmentID uuid.UUID     `db:"appointment_id" json:"appointment_id"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Method        string        `db:"method" json:"method"`
	Status        PaymentStatus `db:"status" json:"status"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
}

type RecordPaymentRequest struct {
	Amount float64 `json:"amount" validate:"gt=0"`
	Method string  `json:"method" validate:"required,oneof=cash card transfer insurance"`
	Status string  `json:"status" validate:"omitempty,oneof=paid pending refunded"`
}
