package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/library"
	"github.com/toyz/bindgen/internal/metadata"
)

type stubExtractor struct {
	items []metadata.Item
	err   error
}

func (s stubExtractor) Extract(string) ([]metadata.Item, error) {
	return s.items, s.err
}

func arithItems() []metadata.Item {
	u32 := metadata.Primitive(metadata.TypeUInt32)
	return []metadata.Item{
		&metadata.NamespaceItem{Library: "arith", Name: "arithmetic"},
		&metadata.FuncItem{Module: "arith", Name: "add",
			Inputs:     []metadata.Param{{Name: "a", Type: u32}, {Name: "b", Type: u32}},
			ReturnType: &u32},
		&metadata.RecordItem{Module: "arith", Name: "Pair", Fields: []metadata.Field{
			{Name: "left", Type: u32},
			{Name: "right", Type: u32},
		}},
	}
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "bindgen", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"generate", "metadata", "clean", "version"} {
		assert.Contains(t, names, expected)
	}
}

func TestNewVersionCommand(t *testing.T) {
	Version = "1.0.0-test"
	GitCommit = "abc123"

	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "1.0.0-test")
	assert.Contains(t, out.String(), "abc123")
}

func TestGenerateCommand(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "gen")
	cmd := NewGenerateCommand(library.WithExtractor(stubExtractor{items: arithItems()}))

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{
		"--library", "/tmp/libarith.so",
		"-l", "go", "-l", "json",
		"--out-dir", outDir,
		"--jobs", "2",
	})
	require.NoError(t, cmd.Execute(), errOut.String())

	assert.FileExists(t, filepath.Join(outDir, "arithmetic", "arithmetic.go"))
	assert.FileExists(t, filepath.Join(outDir, "arithmetic.json"))

	data, err := os.ReadFile(filepath.Join(outDir, "arithmetic.json"))
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "arith", doc["cdylib_name"])

	output := out.String()
	assert.Contains(t, output, "bindgen: Generating bindings")
	assert.Contains(t, output, "arith (namespace arithmetic)")
	assert.Contains(t, output, "Wrote go bindings for arith (arithmetic/arithmetic.go)")
	assert.Contains(t, output, "Wrote json bindings for arith (arithmetic.json)")
	assert.Less(t, strings.Index(output, "Wrote go bindings"), strings.Index(output, "arith (namespace arithmetic)"),
		"writes are reported as they complete")
	assert.Contains(t, output, "bindgen: Generation complete!")
}

func TestGenerateCommand_Quiet(t *testing.T) {
	cmd := NewGenerateCommand(library.WithExtractor(stubExtractor{items: arithItems()}))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--library", "/tmp/libarith.so", "--out-dir", t.TempDir(), "-q"})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, out.String())
}

func TestGenerateCommand_Failure(t *testing.T) {
	extractErr := errors.NewExtractionError("/tmp/libarith.so", "no metadata symbols found")
	cmd := NewGenerateCommand(library.WithExtractor(stubExtractor{err: extractErr}))

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--library", "/tmp/libarith.so", "--out-dir", t.TempDir()})
	err := cmd.Execute()
	require.Error(t, err)

	assert.Contains(t, errOut.String(), "ERROR: Cannot Read Library Metadata")
	assert.Contains(t, errOut.String(), "no metadata symbols found")
	assert.NotContains(t, out.String(), "Generation complete")
}

func TestGenerateCommand_UnsupportedLanguage(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "gen")
	cmd := NewGenerateCommand(library.WithExtractor(stubExtractor{items: arithItems()}))

	var errOut bytes.Buffer
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--library", "/tmp/libarith.so", "-l", "go", "-l", "cobol", "--out-dir", outDir})
	require.Error(t, cmd.Execute())

	assert.Contains(t, errOut.String(), "ERROR: Configuration Error")
	assert.Contains(t, errOut.String(), "unsupported target language 'cobol'")
	assert.Contains(t, errOut.String(), "Available languages: go, json")
	assert.NoDirExists(t, outDir)
}

func TestValidateLanguages(t *testing.T) {
	available := []string{"go", "json"}

	assert.NoError(t, validateLanguages([]string{"go", "JSON"}, available))

	err := validateLanguages([]string{""}, available)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	err = validateLanguages([]string{"kotlin"}, available)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of: [go json]")
}

func TestGenerateCommand_RequiredFlags(t *testing.T) {
	cmd := NewGenerateCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--out-dir", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"library" not set`)
}

func TestMetadataCommand(t *testing.T) {
	t.Run("describe", func(t *testing.T) {
		cmd := NewMetadataCommand(stubExtractor{items: arithItems()})
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"/tmp/libarith.so"})
		require.NoError(t, cmd.Execute())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[1], "arith::add")
		assert.Contains(t, lines[2], "arith::Pair")
	})

	t.Run("json", func(t *testing.T) {
		cmd := NewMetadataCommand(stubExtractor{items: arithItems()})
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"--json", "/tmp/libarith.so"})
		require.NoError(t, cmd.Execute())

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 3)
		item, err := metadata.Decode([]byte(lines[2]))
		require.NoError(t, err)
		assert.Equal(t, metadata.Describe(arithItems()[2]), metadata.Describe(item))
	})

	t.Run("extraction failure", func(t *testing.T) {
		cmd := NewMetadataCommand(stubExtractor{err: errors.NewExtractionError("/tmp/x", "unrecognized object file format")})
		var errOut bytes.Buffer
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&errOut)
		cmd.SetArgs([]string{"/tmp/x"})
		require.Error(t, cmd.Execute())
		assert.Contains(t, errOut.String(), "unrecognized object file format")
	})
}
