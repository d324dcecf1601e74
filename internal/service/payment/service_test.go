package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func seedAppointment(t *testing.T, store *memory.Store, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	ctx := context.Background()

	patient := &model.Patient{Name: "P", Status: model.PatientStatusActive}
	require.NoError(t, store.Patients().Create(ctx, patient))

	apt := &model.Appointment{
		PatientID:   patient.ID,
		DoctorID:    uuid.New(),
		ServiceID:   uuid.New(),
		ClinicID:    uuid.New(),
		Date:        model.NewDate(2024, 3, 4),
		Time:        model.NewClock(10, 0),
		Status:      status,
		Cost:        200,
		FinalAmount: 200,
	}
	require.NoError(t, store.Appointments().Create(ctx, apt))
	return apt
}

func TestRecordPayment(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, validator.New(), metrics.Nop())
	ctx := context.Background()
	apt := seedAppointment(t, store, model.AppointmentStatusScheduled)

	payment, err := svc.RecordPayment(ctx, apt.ID, &model.RecordPaymentRequest{Amount: 150, Method: "card"})
	require.NoError(t, err)
	assert.Equal(t, apt.PatientID, payment.PatientID)
	assert.Equal(t, model.PaymentStatusPaid, payment.Status)
	assert.NotNil(t, payment.PaidAt)

	pending, err := svc.RecordPayment(ctx, apt.ID, &model.RecordPaymentRequest{Amount: 50, Method: "cash", Status: "pending"})
	require.NoError(t, err)
	assert.Nil(t, pending.PaidAt)

	odd, err := svc.RecordPayment(ctx, apt.ID, &model.RecordPaymentRequest{Amount: 10.005, Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, 10.01, odd.Amount)

	payments, err := svc.ListPayments(ctx, apt.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 3)

	amounts := make([]float64, 0, len(payments))
	for _, p := range payments {
		amounts = append(amounts, p.Amount)
	}
	assert.ElementsMatch(t, []float64{150, 50, 10.01}, amounts)

	events := store.OutboxEvents()
	require.Len(t, events, 3)
	assert.Equal(t, model.EventPaymentRecorded, events[0].EventType)
}

func TestRecordPayment_Rejected(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, validator.New(), metrics.Nop())
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, uuid.New(), &model.RecordPaymentRequest{Amount: 10, Method: "cash"})
	assert.True(t, errors.Is(err, apperrors.NotFoundError))

	apt := seedAppointment(t, store, model.AppointmentStatusCancelled)
	_, err = svc.RecordPayment(ctx, apt.ID, &model.RecordPaymentRequest{Amount: 10, Method: "cash"})
	assert.True(t, errors.Is(err, apperrors.InvalidStateError))

	_, err = svc.RecordPayment(ctx, apt.ID, &model.RecordPaymentRequest{Amount: 0, Method: "barter"})
	assert.True(t, errors.Is(err, apperrors.ValidationError))

	assert.Empty(t, store.OutboxEvents())
}
