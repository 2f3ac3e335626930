package errors

import "fmt"

// ExtractionError is returned when a compiled artifact cannot be introspected
type ExtractionError struct {
	*BaseError
	Path   string // artifact path
	Symbol string // metadata symbol being decoded, if any
}

// NewExtractionError creates an extraction error for the artifact at path
func NewExtractionError(path, message string) *ExtractionError {
	return &ExtractionError{
		BaseError: New(ExtractionErrorCode, fmt.Sprintf("cannot extract metadata from '%s': %s", path, message)).
			WithContext("path", path).
			WithSuggestions(
				"Check that the path points to a shared library (.so, .dylib or .dll)",
				"Ensure the library was built with metadata symbols enabled",
			),
		Path: path,
	}
}

// NamespaceResolutionError is returned when an item's owning library has no registered namespace
type NamespaceResolutionError struct {
	*BaseError
	Library string // library identifier that could not be resolved
	Item    string // description of the offending item
}

// NewNamespaceResolutionError creates a namespace resolution error
func NewNamespaceResolutionError(library, item string) *NamespaceResolutionError {
	msg := fmt.Sprintf("unknown namespace for library '%s'", library)
	if item != "" {
		msg = fmt.Sprintf("unknown namespace for %s (%s)", item, library)
	}
	return &NamespaceResolutionError{
		BaseError: New(NamespaceResolutionErrorCode, msg).
			WithContext("library", library).
			WithSuggestion("The artifact's metadata is inconsistent: every library must emit its namespace metadata"),
		Library: library,
		Item:    item,
	}
}

// DuplicateItemError is returned when an identical metadata item is observed twice within one library
type DuplicateItemError struct {
	*BaseError
	Library string
	Item    string
}

// NewDuplicateItemError creates a duplicate metadata item error
func NewDuplicateItemError(library, item string) *DuplicateItemError {
	return &DuplicateItemError{
		BaseError: New(DuplicateItemErrorCode, fmt.Sprintf("duplicate metadata item in library '%s': %s", library, item)).
			WithContext("library", library).
			WithContext("item", item),
		Library: library,
		Item:    item,
	}
}

// UnsupportedTypeError is returned when a type cannot be referenced across libraries
type UnsupportedTypeError struct {
	*BaseError
	Library    string // library doing the referencing
	TypeName   string
	TypeModule string // module path owning the type
}

// NewUnsupportedCrossLibraryTypeError creates an error for a type that cannot cross library boundaries
func NewUnsupportedCrossLibraryTypeError(library, kind, typeModule, typeName string) *UnsupportedTypeError {
	return &UnsupportedTypeError{
		BaseError: New(UnsupportedTypeErrorCode,
			fmt.Sprintf("external %s types are not supported (%s, referenced from library '%s')", kind, typeName, library)).
			WithContext("library", library).
			WithContext("type", typeName).
			WithContext("type_module", typeModule).
			WithSuggestion(fmt.Sprintf("Move %s into library '%s' or expose it through an object", typeName, library)),
		Library:    library,
		TypeName:   typeName,
		TypeModule: typeModule,
	}
}

// InvariantViolationError marks metadata that reached a state the pipeline never produces
type InvariantViolationError struct {
	*BaseError
}

// NewInvariantViolationError creates an invariant violation error
func NewInvariantViolationError(format string, args ...interface{}) *InvariantViolationError {
	return &InvariantViolationError{BaseError: Newf(InvariantViolationErrorCode, format, args...)}
}

// AmbiguousLegacySourceError is returned when a library declares more than one legacy interface file
type AmbiguousLegacySourceError struct {
	*BaseError
	Library string
	Count   int
}

// NewAmbiguousLegacySourceError creates an ambiguous legacy source error
func NewAmbiguousLegacySourceError(library string, count int) *AmbiguousLegacySourceError {
	return &AmbiguousLegacySourceError{
		BaseError: New(AmbiguousLegacySourceErrorCode,
			fmt.Sprintf("%d legacy interface files found for library '%s'", count, library)).
			WithContext("library", library).
			WithContext("count", count).
			WithSuggestion("A library may declare at most one interface definition file"),
		Library: library,
		Count:   count,
	}
}

// ParseError is returned by the legacy interface file parser
type ParseError struct {
	*BaseError
	Library string
}

// NewParseError creates a parse error at loc
func NewParseError(library string, loc SourceLocation, message string) *ParseError {
	return &ParseError{
		BaseError: New(ParseErrorCode, message).
			WithLocation(loc).
			WithContext("library", library),
		Library: library,
	}
}

// ConfigError wraps configuration problems with the offending library
type ConfigError struct {
	*BaseError
	Library string
}

// NewConfigError creates a configuration error
func NewConfigError(library, message string) *ConfigError {
	err := &ConfigError{BaseError: New(ConfigurationErrorCode, message), Library: library}
	if library != "" {
		err.Message = fmt.Sprintf("library '%s': %s", library, message)
		err.WithContext("library", library)
	}
	return err
}

// WriteError wraps a binding writer failure with library and language
type WriteError struct {
	*BaseError
	Library  string
	Language string
}

// NewWriteError creates a write error wrapping cause
func NewWriteError(library, language string, cause error) *WriteError {
	return &WriteError{
		BaseError: Wrap(WriteErrorCode,
			fmt.Sprintf("failed to write %s bindings for library '%s'", language, library), cause).
			WithContext("library", library).
			WithContext("language", language),
		Library:  library,
		Language: language,
	}
}
