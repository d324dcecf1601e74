package postgres

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	files := fstest.MapFS{
		"0002_payments.sql": {Data: []byte("CREATE TABLE b ();")},
		"0001_init.sql":     {Data: []byte("CREATE TABLE a ();")},
		"README.md":         {Data: []byte("ignored")},
		"notes.sql":         {Data: []byte("ignored")},
		"x_bad.sql":         {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(files)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "0001_init.sql", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1;")},
		"01_b.sql":   {Data: []byte("SELECT 1;")},
	}

	_, err := LoadMigrations(files)
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := LoadMigrations(Migrations())
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Contains(t, migrations[0].SQL, "appointments_active_slot_key")
	assert.Contains(t, migrations[0].SQL, "WHERE status <> 'cancelled'")
}
