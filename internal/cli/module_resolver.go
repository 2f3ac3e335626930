package cli

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModuleResolver derives Go import paths for generated packages
type ModuleResolver struct{}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{}
}

// ResolveImportPrefix returns the import path of dir inside its enclosing
// Go module. A custom prefix is returned unchanged.
func (r *ModuleResolver) ResolveImportPrefix(customPrefix, dir string) (string, error) {
	if customPrefix != "" {
		return customPrefix, nil
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	modDir, modulePath, err := r.findModule(absDir)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(modDir, absDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	if rel == "." {
		return modulePath, nil
	}
	return path.Join(modulePath, filepath.ToSlash(rel)), nil
}

// findModule walks up from dir to the nearest go.mod. dir itself may not exist yet.
func (r *ModuleResolver) findModule(dir string) (string, string, error) {
	current := dir
	for {
		goModPath := filepath.Join(current, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			modulePath, err := r.parseGoModFile(goModPath)
			return current, modulePath, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", "", fmt.Errorf("go.mod file not found above %s", dir)
		}
		current = parent
	}
}

func (r *ModuleResolver) parseGoModFile(goModPath string) (string, error) {
	data, err := os.ReadFile(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod file: %w", err)
	}
	modulePath := modfile.ModulePath(data)
	if modulePath == "" {
		return "", fmt.Errorf("module declaration not found in %s", goModPath)
	}
	return modulePath, nil
}
