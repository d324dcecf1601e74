package doctor

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
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func TestCreateDoctor(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, validator.New())
	ctx := context.Background()

	pct := 20.0
	doctor, err := svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "Dr. Grey", PaymentPercentage: &pct})
	require.NoError(t, err)
	assert.Equal(t, "Dr. Grey", doctor.DisplayName())
	assert.Equal(t, 20.0, doctor.Percentage())

	_, err = svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "Dr. Over", PaymentPercentage: ptr(120.0)})
	assert.True(t, errors.Is(err, apperrors.ValidationError))

	_, err = svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "Dr. Lost", ClinicID: uuid.NewString()})
	assert.True(t, errors.Is(err, apperrors.NotFoundError))

	doctors, err := svc.ListDoctors(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
}

func TestSetAvailability(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, validator.New())
	ctx := context.Background()

	doctor, err := svc.CreateDoctor(ctx, &model.CreateDoctorRequest{Name: "Dr. Grey"})
	require.NoError(t, err)

	windows, err := svc.SetAvailability(ctx, doctor.ID, &model.SetAvailabilityRequest{Windows: []model.AvailabilityWindow{
		{Weekday: 1, StartsAt: "09:00", EndsAt: "12:00"},
		{Weekday: 3, StartsAt: "13:00", EndsAt: "17:00"},
	}})
	require.NoError(t, err)
	assert.Len(t, windows, 2)

	// replacing drops the old windows
	windows, err = svc.SetAvailability(ctx, doctor.ID, &model.SetAvailabilityRequest{Windows: []model.AvailabilityWindow{
		{Weekday: 5, StartsAt: "10:00", EndsAt: "11:00"},
	}})
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 5, windows[0].Weekday)

	_, err = svc.SetAvailability(ctx, doctor.ID, &model.SetAvailabilityRequest{Windows: []model.AvailabilityWindow{
		{Weekday: 2, StartsAt: "12:00", EndsAt: "09:00"},
	}})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "windows[0].ends_at")

	got, err := svc.GetAvailability(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = svc.SetAvailability(ctx, uuid.New(), &model.SetAvailabilityRequest{})
	assert.True(t, errors.Is(err, apperrors.NotFoundError))
}

func ptr(v float64) *float64 { return &v }
