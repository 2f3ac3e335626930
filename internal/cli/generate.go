package cli

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/library"
	"github.com/toyz/bindgen/internal/udl"
	"github.com/toyz/bindgen/internal/utils"
)

// NewGenerateCommand creates the generate command. opts are applied after
// the collaborators derived from flags.
func NewGenerateCommand(opts ...library.Option) *cobra.Command {
	cfg := Config{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate bindings for every library in a shared library",
		Long: `Reads the metadata embedded in a compiled shared library, resolves the
types shared between the libraries it packages, and writes bindings for each
requested language into the output directory.`,
		Example: `  bindgen generate --library target/release/libarith.so -l go --out-dir gen
  bindgen generate --library libarith.dylib --crate arith -l go -l json --out-dir gen
  bindgen generate --library arith.dll --config uniffi.toml --udl-dir ./crates -l json --out-dir out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.LibraryPath, "library", "", "path to the compiled shared library (.so, .dylib or .dll)")
	flags.StringVar(&cfg.LibraryID, "crate", "", "only generate bindings for this library")
	flags.StringSliceVarP(&cfg.Languages, "language", "l", []string{"go"}, "target language (repeatable)")
	flags.StringVar(&cfg.ConfigFile, "config", "", "bindings configuration file (default: ./"+config.FileName+")")
	flags.StringVarP(&cfg.OutDir, "out-dir", "o", "", "output directory for generated bindings")
	flags.StringArrayVar(&cfg.UdlDirs, "udl-dir", nil, "directory searched for interface definition files (repeatable)")
	flags.IntVarP(&cfg.Jobs, "jobs", "j", runtime.NumCPU(), "number of bindings written concurrently")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable verbose output and pipeline logs")
	flags.BoolVarP(&cfg.Quiet, "quiet", "q", false, "only show errors")
	_ = cmd.MarkFlagRequired("library")
	_ = cmd.MarkFlagRequired("out-dir")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	return cmd
}

func runGenerate(cmd *cobra.Command, cfg Config, opts []library.Option) error {
	diagnostics := newDiagnostics(cmd, cfg.Verbose, cfg.Quiet)
	startTime := time.Now()

	logger := zap.NewNop()
	if cfg.Verbose {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger = dev
		} else {
			diagnostics.Warn("Failed to create pipeline logger: %v", err)
		}
	}
	defer func() { _ = logger.Sync() }()

	diagnostics.Header("Generating bindings")
	diagnostics.Verbose("Library: %s", cfg.LibraryPath)
	diagnostics.Verbose("Languages: %s", strings.Join(cfg.Languages, ", "))
	diagnostics.Verbose("Output directory: %s", cfg.OutDir)

	reader := utils.NewFileReader()
	loader := &importPrefixLoader{
		ConfigLoader: config.NewLoader(reader),
		resolver:     NewModuleResolver(),
		outDir:       cfg.OutDir,
		diagnostics:  diagnostics,
	}

	var progressMu sync.Mutex
	written := 0
	onWritten := func(src library.Source, language string, files []string) {
		progressMu.Lock()
		defer progressMu.Unlock()
		written += len(files)
		diagnostics.PhaseProgress(fmt.Sprintf("Wrote %s bindings for %s (%s)", language, src.LibraryID, strings.Join(files, ", ")))
	}

	base := []library.Option{
		library.WithFileReader(reader),
		library.WithConfigLoader(loader),
		library.WithLegacyLocator(udl.NewLocator(cfg.UdlDirs...)),
		library.WithLogger(logger),
		library.WithJobs(cfg.Jobs),
		library.WithWrittenHook(onWritten),
	}
	gen := library.NewGenerator(append(base, opts...)...)
	reporter := NewDiagnosticReporter(cmd.ErrOrStderr(), cfg.Verbose)

	if err := validateLanguages(cfg.Languages, gen.Languages()); err != nil {
		reporter.ReportError(err)
		return fmt.Errorf("generation failed")
	}

	diagnostics.PhaseHeader("Generating")
	sources, err := gen.Generate(cmd.Context(), library.Request{
		LibraryPath:     cfg.LibraryPath,
		LibraryID:       cfg.LibraryID,
		TargetLanguages: cfg.Languages,
		ConfigOverride:  cfg.ConfigFile,
		OutDir:          cfg.OutDir,
	})
	if err != nil {
		reporter.ReportError(err)
		return fmt.Errorf("generation failed")
	}

	diagnostics.PhaseHeader("Libraries")
	for _, src := range sources {
		diagnostics.PhaseItem(fmt.Sprintf("%s (namespace %s)", src.LibraryID, src.CI.Namespace))
	}

	diagnostics.Summary("Summary", map[string]interface{}{
		"Libraries":        len(sources),
		"Languages":        len(cfg.Languages),
		"Files written":    written,
		"Output directory": filepath.Clean(cfg.OutDir),
		"Duration":         time.Since(startTime).Round(time.Millisecond),
	})
	diagnostics.GenerationComplete()
	return nil
}

// validateLanguages checks every requested language against the writers
// available before any metadata is read
func validateLanguages(requested, available []string) error {
	chain := utils.NewValidatorChain(utils.NotEmpty("language")).
		Add(utils.IsOneOf("language", available...))
	for _, lang := range requested {
		if err := chain.Validate(strings.ToLower(lang)); err != nil {
			cfgErr := errors.NewConfigError("", fmt.Sprintf("unsupported target language '%s'", lang))
			cfgErr.WithCause(err).
				WithSuggestion(fmt.Sprintf("Available languages: %s", strings.Join(available, ", ")))
			return cfgErr
		}
	}
	return nil
}

// importPrefixLoader defaults the Go import path prefix to the output
// directory's path inside its enclosing module
type importPrefixLoader struct {
	library.ConfigLoader
	resolver    *ModuleResolver
	outDir      string
	diagnostics *utils.DiagnosticSystem
}

func (l *importPrefixLoader) Load(overridePath string) (*config.Config, error) {
	cfg, err := l.ConfigLoader.Load(overridePath)
	if err != nil {
		return nil, err
	}
	if cfg.Bindings.Go.ImportPathPrefix != "" {
		return cfg, nil
	}
	prefix, err := l.resolver.ResolveImportPrefix("", l.outDir)
	if err != nil {
		l.diagnostics.Debug("No import path prefix for %s: %v", l.outDir, err)
		return cfg, nil
	}
	cfg.Bindings.Go.ImportPathPrefix = prefix
	return cfg, nil
}

func newDiagnostics(cmd *cobra.Command, verbose, quiet bool) *utils.DiagnosticSystem {
	var d *utils.DiagnosticSystem
	switch {
	case quiet:
		d = utils.NewQuietDiagnostics()
	case verbose:
		d = utils.NewVerboseDiagnostics()
	default:
		d = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	d.SetOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
	return d
}
