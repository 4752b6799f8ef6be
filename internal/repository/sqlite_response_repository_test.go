package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"valentine-server/internal/repository"
	"valentine-server/migrations"
	"valentine-server/pkg/migration"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSQLiteResponseRepository(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "letter.db")

	// Применяем миграции
	m := migration.NewSQLiteMigrator(migration.Config{
		MigrationsFS:   migrations.FS,
		MigrationsPath: migrations.SQLiteDir,
	}, repository.SQLiteDSN(path), zap.NewNop())
	require.NoError(t, m.Up())

	db, err := repository.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewSQLiteResponseRepository(db, zap.NewNop())
	require.NoError(t, repo.Ping(ctx))

	before := time.Now().Add(-time.Minute)
	first, err := repo.Create(ctx, true)
	require.NoError(t, err)
	second, err := repo.Create(ctx, false)
	require.NoError(t, err)

	assert.Positive(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.True(t, first.Answer)
	assert.False(t, second.Answer)
	assert.True(t, first.Timestamp.After(before), "timestamp should be set by the database")
	assert.Equal(t, time.UTC, first.Timestamp.Location())
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := repository.OpenSQLite(context.Background(), "  ")
	assert.Error(t, err)
}
