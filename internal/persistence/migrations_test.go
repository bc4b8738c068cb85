package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/social-login/internal/config"
)

func TestMigrationFiles_SortedSQLOnly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700))

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)
}

func TestMigrationFiles_MissingDir(t *testing.T) {
	t.Parallel()

	_, err := MigrationFiles(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestRepositoryMigrations(t *testing.T) {
	t.Parallel()

	files, err := MigrationFiles(filepath.Join("..", "..", DefaultMigrationsDir))
	require.NoError(t, err)
	require.Contains(t, files, "001_create_users.sql")
}

func TestRunMigrations_NoPool(t *testing.T) {
	t.Parallel()

	require.NoError(t, RunMigrations(context.Background(), nil, "does-not-matter", zap.NewNop()))
}

func TestDisabledBackends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pg, err := NewPostgres(ctx, config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	require.False(t, pg.Enabled())
	require.Nil(t, pg.PoolHandle())
	require.Error(t, pg.Ping(ctx))
	pg.Close()

	redis := NewRedis(config.RedisConfig{}, zap.NewNop())
	require.Nil(t, redis)
	require.False(t, redis.Enabled())
	require.Error(t, redis.Ping(ctx))
	redis.Close()
}

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pg, err := NewPostgres(ctx, config.PostgresConfig{DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	require.NoError(t, pg.Ping(ctx))
	require.NoError(t, RunMigrations(ctx, pg.PoolHandle(), filepath.Join("..", "..", DefaultMigrationsDir), zap.NewNop()))
}
