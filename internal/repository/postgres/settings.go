package postgres

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
)

type settingsRepository struct {
	db queryer
}

// Get reads the single practice settings row.
func (r *settingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	query := `SELECT app_name, currency, timezone FROM settings WHERE id = 1`

	var settings model.Settings
	if err := r.db.GetContext(ctx, &settings, query); err != nil {
		return nil, notFound("settings", err)
	}
	return &settings, nil
}
