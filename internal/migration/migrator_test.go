package migration

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
)

func TestUpDownVersion(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{Database: config.Database{
		Driver:    "sqlite",
		WriterDSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}}
	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mig, err := New(cfg, &database.Connections{Writer: db, Reader: db}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, mig.Up(ctx))
	require.NoError(t, mig.Up(ctx))
	version, err := mig.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, version)

	require.NoError(t, mig.Down(ctx, 1, false))
	version, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	require.NoError(t, mig.Down(ctx, 0, true))
	version, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, version)
}

func TestGooseDialect(t *testing.T) {
	for driver, want := range map[string]string{"postgres": "postgres", "mysql": "mysql", "sqlite": "sqlite3"} {
		got, err := gooseDialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := gooseDialect("oracle")
	assert.Error(t, err)
}
