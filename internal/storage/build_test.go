package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildModeDriverPairing(t *testing.T) {
	switch BuildMode {
	case "purego":
		assert.Equal(t, "sqlite", DriverName)
	case "cgo":
		assert.Equal(t, "sqlite3", DriverName)
	default:
		t.Fatalf("unknown build mode %q", BuildMode)
	}
}

func TestFTS5ModuleAvailable(t *testing.T) {
	// The schema depends on FTS5. Under the cgo driver this requires the
	// sqlite_fts5 build tag; a driver compiled without it must fail here,
	// not deep inside a migration.
	dbPath := filepath.Join(t.TempDir(), "fts.db")
	db, err := openDatabase(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec("CREATE VIRTUAL TABLE fts_check USING fts5(body)")
	require.NoError(t, err, "driver %s (%s build) lacks FTS5 support", DriverName, BuildMode)
}
