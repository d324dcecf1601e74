package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	users     repository.UserRepository
	tokens    *auth.TokenManager
	hasher    security.PasswordHasher
	validator validator.Validator
}

func NewService(users repository.UserRepository, tokens *auth.TokenManager, hasher security.PasswordHasher, v validator.Validator) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		hasher:    hasher,
		validator: v,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.NotFoundError) {
			return nil, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		log.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("login rejected: bad password")
		return nil, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	if user.Status != model.UserStatusActive {
		return nil, apperrors.Forbidden("account is inactive")
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}
