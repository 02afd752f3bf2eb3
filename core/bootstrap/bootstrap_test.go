package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/d4n3436/fergun/core/config"
	coredatabase "github.com/d4n3436/fergun/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

// lazyDB opens a pool without dialing, so no server is needed.
func lazyDB(_ context.Context, cfg coredatabase.Config) (*sqlx.DB, error) {
	return sqlx.Open("postgres", cfg.DSN())
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}

func TestRunWithoutDatabase(t *testing.T) {
	connected := false
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			connected = true
			return nil, errors.New("unexpected")
		},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.False(t, connected)
	assert.NoError(t, res.Close())
}

func TestRunConnectsAndMigrates(t *testing.T) {
	var migrated coredatabase.Config
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db", Name: "fergun"},
		LoggerInit: noLogger,
		Connect:    lazyDB,
		Migrate: func(_ context.Context, cfg coredatabase.Config) error {
			migrated = cfg
			return nil
		},
	})
	require.NoError(t, err)
	require.NotNil(t, res.DB)
	t.Cleanup(func() { _ = res.Close() })
	assert.Equal(t, "fergun", migrated.Name)
}

func TestRunPropagatesFailures(t *testing.T) {
	boom := errors.New("boom")
	ctx := context.Background()

	_, err := Run(ctx, Options{Config: &coreconfig.Config{}, LoggerInit: func(*coreconfig.Config) error { return boom }})
	assert.ErrorIs(t, err, boom)

	_, err = Run(ctx, Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect:    func(context.Context, coredatabase.Config) (*sqlx.DB, error) { return nil, boom },
	})
	assert.ErrorIs(t, err, boom)

	_, err = Run(ctx, Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect:    lazyDB,
		Migrate:    func(context.Context, coredatabase.Config) error { return boom },
	})
	assert.ErrorIs(t, err, boom)
}
