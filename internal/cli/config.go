package cli

// Config holds the options of one generate run
type Config struct {
	// LibraryPath is the compiled shared library to read metadata from
	LibraryPath string

	// LibraryID restricts generation to one library in the artifact
	LibraryID string

	// Languages lists the binding writers to run
	Languages []string

	// ConfigFile overrides the uniffi.toml lookup
	ConfigFile string

	// OutDir receives the generated bindings
	OutDir string

	// UdlDirs are searched for interface definition files
	UdlDirs []string

	// Jobs bounds concurrent binding writers
	Jobs int

	Verbose bool
	Quiet   bool
}
