package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileReader reads text files through a file-validated LRU cache
type FileReader struct {
	contentCache *FileCache[string]
}

// NewFileReader creates a new FileReader with the default cache size
func NewFileReader() *FileReader {
	cache, err := NewFileCache[string](DefaultCacheSize)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &FileReader{contentCache: cache}
}

// ReadFile reads a file and returns its contents as a string with caching
func (fr *FileReader) ReadFile(filePath string) (string, error) {
	cleanPath, err := fr.validateAndCleanPath(filePath)
	if err != nil {
		return "", err
	}

	if cached, exists := fr.contentCache.Get(cleanPath); exists {
		return cached, nil
	}

	content, err := os.ReadFile(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", filepath.Base(cleanPath), err)
	}

	contentStr := string(content)
	// a failed stat only costs the cache entry
	_ = fr.contentCache.Set(cleanPath, contentStr)
	return contentStr, nil
}

// InvalidateFile removes a specific file from the cache
func (fr *FileReader) InvalidateFile(filePath string) {
	fr.contentCache.Delete(filepath.Clean(filePath))
}

// ClearCache clears all cached files
func (fr *FileReader) ClearCache() {
	fr.contentCache.Clear()
}

// CachedFiles returns the number of cached files
func (fr *FileReader) CachedFiles() int {
	return fr.contentCache.Len()
}

// validateAndCleanPath validates and cleans a file path
func (fr *FileReader) validateAndCleanPath(filePath string) (string, error) {
	if err := NotEmpty("filePath")(filePath); err != nil {
		return "", fmt.Errorf("file path %w", err)
	}

	cleanPath := filepath.Clean(filePath)
	info, err := os.Stat(cleanPath)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file does not exist: %s", cleanPath)
	}
	if err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory: %s", cleanPath)
	}
	return cleanPath, nil
}
