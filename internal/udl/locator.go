package udl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/bindgen/internal/errors"
)

// Locator finds the interface definition file declared by a library
type Locator struct {
	roots []string
}

// NewLocator searches the given root directories, or the working directory when none are given
func NewLocator(roots ...string) *Locator {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	return &Locator{roots: roots}
}

// Candidates returns the paths searched for fileStub, in order
func (l *Locator) Candidates(libraryID, fileStub string) []string {
	name := fileStub + ".udl"
	var out []string
	for _, root := range l.roots {
		out = append(out,
			filepath.Join(root, libraryID, "src", name),
			filepath.Join(root, "src", name),
			filepath.Join(root, name),
		)
	}
	return out
}

// Locate returns the first existing candidate path
func (l *Locator) Locate(libraryID, fileStub string) (string, error) {
	candidates := l.Candidates(libraryID, fileStub)
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	err := errors.NewConfigError(libraryID, fmt.Sprintf("interface definition file %s.udl not found", fileStub))
	err.WithContext("searched", strings.Join(candidates, ", ")).
		WithSuggestion("Pass the directory containing the library sources with --udl-dir")
	return "", err
}
