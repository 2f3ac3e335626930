package errors

import "fmt"

// Common error wrapping patterns used throughout the pipeline

// WrapConfigError wraps a configuration collaborator error with the offending library
func WrapConfigError(library string, cause error) *ConfigError {
	err := NewConfigError(library, "configuration error")
	err.WithCause(cause)
	return err
}

// WrapExtractionError wraps a low-level decoding error for an artifact symbol
func WrapExtractionError(path, symbol string, cause error) *ExtractionError {
	err := NewExtractionError(path, fmt.Sprintf("invalid metadata in symbol '%s'", symbol))
	err.Symbol = symbol
	err.WithContext("symbol", symbol).WithCause(cause)
	return err
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	message := fmt.Sprintf("failed to %s '%s'", operation, path)
	return Wrap(FileSystemErrorCode, message, cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// FileSystemError creates a file system error
func FileSystemError(operation, path, message string) *BaseError {
	fullMessage := fmt.Sprintf("failed to %s '%s': %s", operation, path, message)
	return New(FileSystemErrorCode, fullMessage).
		WithContext("operation", operation).
		WithContext("path", path)
}
