package mcp

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("custom path creates database", func(t *testing.T) {
		dir := t.TempDir()

		s, err := NewServer(dir)
		require.NoError(t, err)
		defer s.storage.Close()

		assert.NotNil(t, s.mcp)
		assert.NotNil(t, s.splitter)
		assert.NotNil(t, s.storage)
		assert.NotNil(t, s.indexer)

		assert.FileExists(t, filepath.Join(dir, "mdsplit.db"))
	})

	t.Run("nested path is created", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "deep", "nested")

		s, err := NewServer(dir)
		require.NoError(t, err)
		defer s.storage.Close()

		assert.DirExists(t, dir)
	})
}
