package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// generatedMarker is the first line of every file written by the Go writer
const generatedMarker = "// Code generated by bindgen. DO NOT EDIT."

// Cleaner removes previously generated bindings
type Cleaner struct{}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// CleanGeneratedFiles removes generated Go files from the given directories.
// A trailing "/..." cleans the directory tree below it.
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	var removed []string
	for _, dir := range directories {
		var err error
		if base, ok := strings.CutSuffix(dir, "/..."); ok {
			if base == "" {
				base = "."
			}
			err = c.cleanRecursively(base, &removed)
		} else {
			err = c.cleanSingleDirectory(dir, &removed)
		}
		if err != nil {
			return removed, fmt.Errorf("failed to clean directory %s: %w", dir, err)
		}
	}
	return removed, nil
}

func (c *Cleaner) cleanRecursively(root string, removed *[]string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return c.cleanSingleDirectory(path, removed)
		}
		return nil
	})
}

func (c *Cleaner) cleanSingleDirectory(dir string, removed *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".go" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		generated, err := isGenerated(path)
		if err != nil {
			return fmt.Errorf("failed to check file %s: %w", path, err)
		}
		if !generated {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", path, err)
		}
		*removed = append(*removed, path)
	}
	return nil
}

func isGenerated(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == generatedMarker, nil
	}
	return false, scanner.Err()
}
