package clinic

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

func newService() *Service {
	return NewService(memory.NewStore().Clinics(), validator.New())
}

func TestCreateClinic(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{
		Name:     "  Downtown ",
		OpensAt:  "08:00",
		ClosesAt: "17:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "Downtown", clinic.Name)
	assert.Equal(t, model.NewClock(8, 0), clinic.OpensAt)
	assert.Equal(t, model.NewClock(17, 30), clinic.ClosesAt)
	assert.Equal(t, defaultSlotMinutes, clinic.SlotMinutes)

	got, err := svc.GetClinic(ctx, clinic.ID)
	require.NoError(t, err)
	assert.Equal(t, clinic.ID, got.ID)
}

func TestCreateClinic_Hours(t *testing.T) {
	svc := newService()

	_, err := svc.CreateClinic(context.Background(), &model.CreateClinicRequest{
		Name:     "Late",
		OpensAt:  "18:00",
		ClosesAt: "09:00",
	})
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "closes_at")
}

func TestUpdateClinic(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "A", OpensAt: "08:00", ClosesAt: "17:00"})
	require.NoError(t, err)

	name, closes, slot := "B", "20:00", 15
	updated, err := svc.UpdateClinic(ctx, clinic.ID, &model.UpdateClinicRequest{Name: &name, ClosesAt: &closes, SlotMinutes: &slot})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Name)
	assert.Equal(t, model.NewClock(20, 0), updated.ClosesAt)
	assert.Equal(t, model.NewClock(8, 0), updated.OpensAt)
	assert.Equal(t, 15, updated.SlotMinutes)

	early := "07:00"
	_, err = svc.UpdateClinic(ctx, clinic.ID, &model.UpdateClinicRequest{ClosesAt: &early})
	assert.True(t, errors.Is(err, apperrors.ValidationError))

	_, err = svc.UpdateClinic(ctx, uuid.New(), &model.UpdateClinicRequest{Name: &name})
	assert.True(t, errors.Is(err, apperrors.NotFoundError))
}

func TestServices(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	clinic, err := svc.CreateClinic(ctx, &model.CreateClinicRequest{Name: "A", OpensAt: "08:00", ClosesAt: "17:00"})
	require.NoError(t, err)

	service, err := svc.CreateService(ctx, clinic.ID, &model.CreateServiceRequest{Name: "Cleaning", DurationMinutes: 45, Price: 120})
	require.NoError(t, err)
	assert.Equal(t, clinic.ID, service.ClinicID)

	services, err := svc.ListServices(ctx, clinic.ID)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, "Cleaning", services[0].Name)

	_, err = svc.CreateService(ctx, clinic.ID, &model.CreateServiceRequest{Name: "Bad", DurationMinutes: 1})
	assert.True(t, errors.Is(err, apperrors.ValidationError))

	_, err = svc.CreateService(ctx, uuid.New(), &model.CreateServiceRequest{Name: "Orphan", DurationMinutes: 30})
	assert.True(t, errors.Is(err, apperrors.NotFoundError))
}
