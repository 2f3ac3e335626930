package main

import (
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCLI builds the binary and checks its top-level behavior
func TestCLI(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the bindgen binary")
	}

	binaryPath := filepath.Join(t.TempDir(), "bindgen")
	build := exec.Command("go", "build", "-o", binaryPath, ".")
	out, err := build.CombinedOutput()
	require.NoError(t, err, "failed to build CLI binary: %s", out)

	t.Run("help flag", func(t *testing.T) {
		output, err := exec.Command(binaryPath, "--help").CombinedOutput()
		assert.NoError(t, err)
		assert.Contains(t, string(output), "generate")
		assert.Contains(t, string(output), "metadata")
	})

	t.Run("version", func(t *testing.T) {
		output, err := exec.Command(binaryPath, "version").CombinedOutput()
		assert.NoError(t, err)
		assert.Contains(t, string(output), "bindgen version:")
	})

	t.Run("generate without library", func(t *testing.T) {
		output, err := exec.Command(binaryPath, "generate", "--out-dir", t.TempDir()).CombinedOutput()
		assert.Error(t, err)
		assert.Contains(t, string(output), `"library" not set`)
	})

	t.Run("generate from a non-library file", func(t *testing.T) {
		output, err := exec.Command(binaryPath, "generate", "--library", binaryPath, "--out-dir", t.TempDir()).CombinedOutput()
		assert.Error(t, err)
		assert.Contains(t, string(output), "ERROR: Cannot Read Library Metadata")
	})
}
