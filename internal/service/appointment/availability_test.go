package appointment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

func clocks(values ...string) []model.ClockTime {
	out := make([]model.ClockTime, 0, len(values))
	for _, v := range values {
		c, err := model.ParseClock(v)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

func TestAvailableSlots(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// 2025-01-10 is a Friday.
	f.clinic.OpensAt = model.NewClock(10, 0)
	require.NoError(t, f.store.Clinics().Update(ctx, f.clinic))
	require.NoError(t, f.store.Doctors().ReplaceAvailability(ctx, f.doctor.ID, []*model.DoctorAvailability{
		{Weekday: 5, StartsAt: model.NewClock(9, 0), EndsAt: model.NewClock(12, 0)},
		{Weekday: 1, StartsAt: model.NewClock(9, 0), EndsAt: model.NewClock(17, 0)},
	}))
	f.book(t, f.p1, "2025-01-10", "10:30")

	got, err := f.svc.AvailableSlots(ctx, &model.AvailabilityQuery{
		DoctorID: f.doctor.ID.String(),
		Date:     "2025-01-10",
	})
	require.NoError(t, err)
	assert.Equal(t, 30, got.SlotMinutes)
	assert.Equal(t, clocks("10:00", "11:00", "11:30"), got.Slots)
}

func TestAvailableSlots_StepsByServiceDuration(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	long := &model.Service{ClinicID: f.clinic.ID, Name: "Surgery consult", DurationMinutes: 60, Price: 500}
	require.NoError(t, f.store.Clinics().CreateService(ctx, long))
	require.NoError(t, f.store.Doctors().ReplaceAvailability(ctx, f.doctor.ID, []*model.DoctorAvailability{
		{Weekday: 5, StartsAt: model.NewClock(14, 0), EndsAt: model.NewClock(18, 30)},
	}))

	got, err := f.svc.AvailableSlots(ctx, &model.AvailabilityQuery{
		DoctorID:  f.doctor.ID.String(),
		Date:      "2025-01-10",
		ServiceID: long.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, clocks("14:00", "15:00", "16:00", "17:00"), got.Slots)
}

func TestAvailableSlots_ServiceFromAnotherClinic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	other := &model.Clinic{Name: "Uptown", OpensAt: model.NewClock(8, 0), ClosesAt: model.NewClock(18, 0), Status: "active"}
	require.NoError(t, f.store.Clinics().Create(ctx, other))
	foreign := &model.Service{ClinicID: other.ID, Name: "X-ray", DurationMinutes: 15, Price: 90}
	require.NoError(t, f.store.Clinics().CreateService(ctx, foreign))

	_, err := f.svc.AvailableSlots(ctx, &model.AvailabilityQuery{
		DoctorID:  f.doctor.ID.String(),
		Date:      "2025-01-10",
		ServiceID: foreign.ID.String(),
	})
	require.ErrorIs(t, err, apperrors.ValidationError)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "service_id")
}

func TestAvailableSlots_NoWindows(t *testing.T) {
	f := setup(t)

	got, err := f.svc.AvailableSlots(context.Background(), &model.AvailabilityQuery{
		DoctorID: f.doctor.ID.String(),
		Date:     "2025-01-12",
	})
	require.NoError(t, err)
	assert.Empty(t, got.Slots)

	_, err = f.svc.AvailableSlots(context.Background(), &model.AvailabilityQuery{DoctorID: "nope", Date: "2025-01-12"})
	assert.ErrorIs(t, err, apperrors.ValidationError)
}
