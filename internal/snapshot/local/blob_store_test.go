package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobsift/jobsift/internal/snapshot/local"
)

func TestNew(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("MissingBaseDir", func(t *testing.T) {
		_, err := local.New(local.Config{})
		assert.Error(t, err)
	})

	t.Run("CreatesMissingDirectory", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "nested", "snapshots")
		_, err := local.New(local.Config{BaseDir: base})
		require.NoError(t, err)
		info, err := os.Stat(base)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("BaseDirIsNotADirectory", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(tempFile, []byte("x"), 0o600))
		_, err := local.New(local.Config{BaseDir: tempFile})
		assert.Error(t, err)
	})
}

func TestPutObject(t *testing.T) {
	t.Run("WritesFileAndReturnsURI", func(t *testing.T) {
		base := t.TempDir()
		store, err := local.New(local.Config{BaseDir: base})
		require.NoError(t, err)

		uri, err := store.PutObject(context.Background(), "2026-08-31/acme.com/abc.html", "text/html", []byte("<html/>"))
		require.NoError(t, err)

		want := filepath.Join(base, "2026-08-31", "acme.com", "abc.html")
		assert.Equal(t, "file://"+want, uri)

		data, err := os.ReadFile(want)
		require.NoError(t, err)
		assert.Equal(t, "<html/>", string(data))
	})

	t.Run("RejectsEmptyPath", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		_, err = store.PutObject(context.Background(), "  ", "text/html", []byte("x"))
		assert.Error(t, err)
	})

	t.Run("RejectsPathTraversal", func(t *testing.T) {
		store, err := local.New(local.Config{BaseDir: t.TempDir()})
		require.NoError(t, err)
		_, err = store.PutObject(context.Background(), "../escape.html", "text/html", []byte("x"))
		assert.Error(t, err)
	})
}
