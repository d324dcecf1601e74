package user

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func TestCreateUser(t *testing.T) {
	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	svc := NewService(store, hasher, validator.New())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, &model.CreateUserRequest{
		Email:    "Admin@Example.com",
		Name:     "Admin",
		Password: "correct-horse",
		Role:     "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
	assert.Equal(t, model.RoleKindAdmin, user.Role.Kind())
	assert.NoError(t, hasher.Compare(user.PasswordHash, "correct-horse"))

	_, err = svc.CreateUser(ctx, &model.CreateUserRequest{
		Email:    "admin@example.com",
		Name:     "Again",
		Password: "correct-horse",
		Role:     "admin",
	})
	assert.True(t, errors.Is(err, apperrors.ConflictError))
}

func TestCreateUser_DoctorRole(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, security.NewBcryptHasher(bcrypt.MinCost), validator.New())
	ctx := context.Background()

	req := &model.CreateUserRequest{Email: "doc@example.com", Name: "Doc", Password: "correct-horse", Role: "doctor"}
	_, err := svc.CreateUser(ctx, req)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Contains(t, appErr.Fields, "doctor_id")

	req.DoctorID = uuid.NewString()
	_, err = svc.CreateUser(ctx, req)
	assert.True(t, errors.Is(err, apperrors.NotFoundError))

	doctor := &model.Doctor{Name: "Dr. Doc"}
	require.NoError(t, store.Doctors().Create(ctx, doctor))
	req.DoctorID = doctor.ID.String()

	user, err := svc.CreateUser(ctx, req)
	require.NoError(t, err)
	role, ok := user.Role.(model.DoctorRole)
	require.True(t, ok)
	assert.Equal(t, doctor.ID, role.DoctorID)

	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleKindDoctor, got.Role.Kind())
}
