// Package dbtest provides migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/oficina/internal/config"
	"github.com/Additional-Code/oficina/internal/database"
	"github.com/Additional-Code/oficina/internal/migration"
)

// New opens a fresh database with every migration applied. It is closed when
// the test ends.
func New(t testing.TB) *database.Connections {
	t.Helper()

	return open(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), 0)
}

// NewFile opens a migrated database file under t.TempDir with a pool of
// maxConns connections. Transactions take the write lock on BEGIN and wait for
// it, so concurrent writers queue instead of failing with SQLITE_BUSY.
func NewFile(t testing.TB, maxConns int) *database.Connections {
	t.Helper()

	path := filepath.Join(t.TempDir(), "oficina.db")
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=10000&_pragma=busy_timeout(10000)", path)
	return open(t, dsn, maxConns)
}

func open(t testing.TB, dsn string, maxConns int) *database.Connections {
	t.Helper()

	cfg := config.Config{
		Database: config.Database{Driver: "sqlite", WriterDSN: dsn},
	}

	db, err := database.Open(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	conns := &database.Connections{Writer: db, Reader: db}

	mig, err := migration.New(cfg, conns, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, mig.Up(context.Background()))

	return conns
}
