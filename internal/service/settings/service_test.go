package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
)

var defaults = model.Settings{AppName: "Clinic", Currency: "USD", Timezone: "UTC"}

func TestService_Get_FallsBackToDefaults(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store.Settings(), defaults, time.Minute)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, defaults, got)
}

func TestService_Get_CachesUntilInvalidated(t *testing.T) {
	store := memory.NewStore()
	store.SetSettings(model.Settings{AppName: "Smile Dental", Currency: "EUR", Timezone: "Europe/Berlin"})
	svc := NewService(store.Settings(), defaults, time.Minute)

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)

	store.SetSettings(model.Settings{AppName: "Smile Dental", Currency: "GBP"})
	got, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency, "served from cache")

	svc.Invalidate()
	got, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "GBP", got.Currency)
	assert.Equal(t, "UTC", got.Timezone, "blank fields take defaults")
}

func TestResolve_PrefersContext(t *testing.T) {
	ctx := NewContext(context.Background(), model.Settings{Timezone: "Asia/Kolkata"})
	got, err := Resolve(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", got.Timezone)

	got, err = Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
}
