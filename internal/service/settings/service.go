package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
)

const cacheKey = "settings"

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s model.Settings) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the settings attached by NewContext.
func FromContext(ctx context.Context) (model.Settings, bool) {
	s, ok := ctx.Value(ctxKey{}).(model.Settings)
	return s, ok
}

// Provider resolves the current practice settings.
type Provider interface {
	Get(ctx context.Context) (model.Settings, error)
}

// Service loads settings from the database and caches them.
type Service struct {
	repo     repository.SettingsRepository
	cache    *gocache.Cache
	defaults model.Settings
}

func NewService(repo repository.SettingsRepository, defaults model.Settings, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		repo:     repo,
		cache:    gocache.New(ttl, 2*ttl),
		defaults: defaults,
	}
}

// Get returns the cached settings, loading them on a miss. A missing row
// yields the configured defaults.
func (s *Service) Get(ctx context.Context) (model.Settings, error) {
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(model.Settings), nil
	}

	loaded, err := s.repo.Get(ctx)
	switch {
	case err == nil:
		merged := s.withDefaults(*loaded)
		s.cache.SetDefault(cacheKey, merged)
		return merged, nil
	case errors.Is(err, apperrors.NotFoundError):
		log.Warn().Msg("settings row missing, using configured defaults")
		s.cache.SetDefault(cacheKey, s.defaults)
		return s.defaults, nil
	default:
		return model.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
}

// Invalidate drops the cached value.
func (s *Service) Invalidate() {
	s.cache.Delete(cacheKey)
}

func (s *Service) withDefaults(v model.Settings) model.Settings {
	if v.AppName == "" {
		v.AppName = s.defaults.AppName
	}
	if v.Currency == "" {
		v.Currency = s.defaults.Currency
	}
	if v.Timezone == "" {
		v.Timezone = s.defaults.Timezone
	}
	return v
}

// Resolve prefers settings attached to ctx and falls back to p.
func Resolve(ctx context.Context, p Provider) (model.Settings, error) {
	if s, ok := FromContext(ctx); ok {
		return s, nil
	}
	if p == nil {
		return model.Settings{Timezone: "UTC"}, nil
	}
	return p.Get(ctx)
}
