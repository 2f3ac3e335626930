package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileReaderCaching(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "arith.udl")
	if err := os.WriteFile(testFile, []byte("namespace arith {};"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	reader := NewFileReader()

	first, err := reader.ReadFile(testFile)
	if err != nil {
		t.Fatalf("First read failed: %v", err)
	}
	if reader.CachedFiles() != 1 {
		t.Errorf("Expected 1 cached file, got %d", reader.CachedFiles())
	}

	second, err := reader.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Second read failed: %v", err)
	}
	if first != second {
		t.Error("Expected cached content to be returned")
	}

	// Modify the file and push the mtime forward so the change is visible
	newContent := "namespace arith2 {};"
	if err := os.WriteFile(testFile, []byte(newContent), 0644); err != nil {
		t.Fatalf("Failed to modify test file: %v", err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(testFile, later, later); err != nil {
		t.Fatalf("Failed to touch test file: %v", err)
	}

	third, err := reader.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Third read failed: %v", err)
	}
	if third != newContent {
		t.Errorf("Expected fresh content %q, got %q", newContent, third)
	}

	reader.InvalidateFile(testFile)
	if reader.CachedFiles() != 0 {
		t.Errorf("Expected empty cache after invalidation, got %d", reader.CachedFiles())
	}
}

func TestFileReaderErrors(t *testing.T) {
	reader := NewFileReader()

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "empty path", path: "", wantErr: "cannot be empty"},
		{name: "missing file", path: filepath.Join(t.TempDir(), "missing.udl"), wantErr: "does not exist"},
		{name: "directory", path: t.TempDir(), wantErr: "is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reader.ReadFile(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
