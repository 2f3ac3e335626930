// Package bindings renders component interfaces into target-language sources.
package bindings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/bindgen/internal/component"
	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/utils"
)

// Writer generates the bindings of one target language
type Writer interface {
	// Language is the name the writer is selected by, e.g. "go"
	Language() string
	// OutputFiles lists the files Write produces, relative to the output directory
	OutputFiles(ci *component.Interface, cfg *config.Config) []string
	// Write renders ci into outDir, which already exists
	Write(ci *component.Interface, cfg *config.Config, outDir string) error
}

// Registry maps language names to writers
type Registry struct {
	writers *utils.Registry[string, Writer]
}

// NewRegistry creates a registry holding writers
func NewRegistry(writers ...Writer) (*Registry, error) {
	r := &Registry{writers: utils.NewRegistry[string, Writer]("bindings", "target language")}
	r.writers.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[Writer]("target language"),
		utils.NoDuplicateValidator[string, Writer]("target language"),
	))
	for _, w := range writers {
		if err := r.Register(w); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry returns a registry with every built-in writer
func DefaultRegistry() *Registry {
	r, err := NewRegistry(NewGoWriter(), NewJSONWriter())
	if err != nil {
		// built-in writers have distinct names
		panic(err)
	}
	return r
}

// Register adds w under its language name
func (r *Registry) Register(w Writer) error {
	return r.writers.Register(strings.ToLower(w.Language()), w)
}

// Lookup returns the writer for language
func (r *Registry) Lookup(language string) (Writer, error) {
	w, err := r.writers.GetOrError(strings.ToLower(language))
	if err != nil {
		cfgErr := errors.NewConfigError("", fmt.Sprintf("unknown target language '%s'", language))
		cfgErr.WithCause(err).
			WithSuggestion(fmt.Sprintf("Available languages: %s", strings.Join(r.Languages(), ", ")))
		return nil, cfgErr
	}
	return w, nil
}

// Languages returns the sorted names of all registered languages
func (r *Registry) Languages() []string {
	return r.writers.Keys()
}

// writeFile writes content to outDir/rel, creating parent directories
func writeFile(outDir, rel string, content []byte) error {
	path := filepath.Join(outDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapFileSystemError("create directory", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return errors.WrapFileSystemError("write", path, err)
	}
	return nil
}
