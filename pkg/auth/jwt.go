package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingRole  = errors.New("token carries no usable role")
)

// Claims are the JWT claims issued at login.
type Claims struct {
	jwt.RegisteredClaims
	Email    string         `json:"email"`
	Role     model.RoleKind `json:"role"`
	DoctorID *uuid.UUID     `json:"doctor_id,omitempty"`
	ClinicID *uuid.UUID     `json:"clinic_id,omitempty"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Role   model.Role
}

// Principal rebuilds the caller identity from the claims.
func (c *Claims) Principal() (*Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role, err := model.NewRole(c.Role, c.DoctorID, c.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingRole, err)
	}
	return &Principal{UserID: userID, Email: c.Email, Role: role}, nil
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewTokenManager(secret, issuer string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

// Generate signs an access token for user and returns it with its expiry.
func (m *TokenManager) Generate(user *model.User) (string, time.Time, error) {
	if user.Role == nil {
		return "", time.Time{}, ErrMissingRole
	}
	now := m.now()
	expiresAt := now.Add(m.expiry)
	kind, doctorID, clinicID := model.FlattenRole(user.Role)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Email:    user.Email,
		Role:     kind,
		DoctorID: doctorID,
		ClinicID: clinicID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Validate parses a token and checks signature, issuer and expiry.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
