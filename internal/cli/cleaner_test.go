package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCleaner_CleanGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	generated := generatedMarker + "\n\npackage arith\n"
	top := filepath.Join(root, "arith", "arith.go")
	nested := filepath.Join(root, "nested", "geo", "geo.go")
	handwritten := filepath.Join(root, "arith", "helpers.go")
	data := filepath.Join(root, "arith.json")

	writeFile(t, top, generated)
	writeFile(t, nested, generated)
	writeFile(t, handwritten, "package arith\n")
	writeFile(t, data, "{}")

	t.Run("single directory", func(t *testing.T) {
		removed, err := NewCleaner().CleanGeneratedFiles([]string{filepath.Join(root, "arith")})
		require.NoError(t, err)
		assert.Equal(t, []string{top}, removed)
		assert.NoFileExists(t, top)
		assert.FileExists(t, nested)
	})

	t.Run("recursive pattern", func(t *testing.T) {
		removed, err := NewCleaner().CleanGeneratedFiles([]string{root + "/..."})
		require.NoError(t, err)
		assert.Equal(t, []string{nested}, removed)
		assert.NoFileExists(t, nested)
		assert.FileExists(t, handwritten)
		assert.FileExists(t, data)
	})

	t.Run("missing directory", func(t *testing.T) {
		removed, err := NewCleaner().CleanGeneratedFiles([]string{filepath.Join(root, "missing")})
		require.NoError(t, err)
		assert.Empty(t, removed)
	})
}
