package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

func TestLogin(t *testing.T) {
	store := memory.NewStore()
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	tokens := auth.NewTokenManager("test-secret", "clinic-test", time.Hour)
	svc := NewService(store.Users(), tokens, hasher, validator.New())
	ctx := context.Background()

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	user := &model.User{
		Email:        "desk@example.com",
		Name:         "Front Desk",
		PasswordHash: hash,
		Status:       model.UserStatusActive,
		Role:         model.ReceptionistRole{},
	}
	require.NoError(t, store.Users().Create(ctx, user))

	resp, err := svc.Login(ctx, &model.LoginRequest{Email: "DESK@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)

	claims, err := tokens.Validate(resp.AccessToken)
	require.NoError(t, err)
	principal, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.UserID)
	assert.Equal(t, model.RoleKindReceptionist, principal.Role.Kind())

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "desk@example.com", Password: "wrong-horse"})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	_, err = svc.Login(ctx, &model.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
}
