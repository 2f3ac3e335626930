// Package library drives binding generation for every library packaged in
// one compiled shared library.
package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/toyz/bindgen/internal/bindings"
	"github.com/toyz/bindgen/internal/component"
	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/extract"
	"github.com/toyz/bindgen/internal/group"
	"github.com/toyz/bindgen/internal/metadata"
	"github.com/toyz/bindgen/internal/udl"
	"github.com/toyz/bindgen/internal/utils"
)

// Extractor reads the metadata items embedded in a compiled artifact
type Extractor interface {
	Extract(path string) ([]metadata.Item, error)
}

// LegacyParser parses interface definition text owned by a library
type LegacyParser interface {
	Parse(text, libraryID string) (*group.MetadataGroup, error)
}

// LegacyLocator finds the interface definition file a library declares
type LegacyLocator interface {
	Locate(libraryID, fileStub string) (string, error)
}

// ConfigLoader loads the baseline bindings configuration
type ConfigLoader interface {
	Load(overridePath string) (*config.Config, error)
}

// Source is one library ready for binding generation
type Source struct {
	LibraryID string
	CI        *component.Interface
	Config    *config.Config
}

// Request describes one generation run
type Request struct {
	LibraryPath     string
	LibraryID       string // optional, restricts the run to one library
	TargetLanguages []string
	ConfigOverride  string
	OutDir          string
}

// Generator turns a shared library into bindings for each library it packages
type Generator struct {
	extractor Extractor
	parser    LegacyParser
	locator   LegacyLocator
	loader    ConfigLoader
	writers   *bindings.Registry
	reader    *utils.FileReader
	logger    *zap.Logger
	jobs      int
	onWritten WrittenFunc
}

// WrittenFunc is called after a writer finishes one Source. It may be
// called from several goroutines at once.
type WrittenFunc func(src Source, language string, files []string)

// Option configures a Generator
type Option func(*Generator)

// WithExtractor replaces the artifact introspector
func WithExtractor(e Extractor) Option {
	return func(g *Generator) { g.extractor = e }
}

// WithLegacyParser replaces the interface definition parser
func WithLegacyParser(p LegacyParser) Option {
	return func(g *Generator) { g.parser = p }
}

// WithLegacyLocator replaces the interface definition file locator
func WithLegacyLocator(l LegacyLocator) Option {
	return func(g *Generator) { g.locator = l }
}

// WithConfigLoader replaces the configuration loader
func WithConfigLoader(l ConfigLoader) Option {
	return func(g *Generator) { g.loader = l }
}

// WithWriters replaces the binding writer registry
func WithWriters(r *bindings.Registry) Option {
	return func(g *Generator) { g.writers = r }
}

// WithFileReader shares a cached file reader for interface definition files
func WithFileReader(r *utils.FileReader) Option {
	return func(g *Generator) { g.reader = r }
}

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithJobs limits how many writers run at once; values below 1 mean one
func WithJobs(n int) Option {
	return func(g *Generator) { g.jobs = n }
}

// WithWrittenHook registers fn to be called as each binding write completes
func WithWrittenHook(fn WrittenFunc) Option {
	return func(g *Generator) { g.onWritten = fn }
}

// NewGenerator creates a generator with the default collaborators
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		extractor: extract.New(),
		parser:    udl.NewParser(),
		locator:   udl.NewLocator(),
		writers:   bindings.DefaultRegistry(),
		logger:    zap.NewNop(),
		jobs:      1,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.reader == nil {
		g.reader = utils.NewFileReader()
	}
	if g.loader == nil {
		g.loader = config.NewLoader(g.reader)
	}
	if g.jobs < 1 {
		g.jobs = 1
	}
	return g
}

// Languages returns the target languages this generator can write
func (g *Generator) Languages() []string {
	return g.writers.Languages()
}

var sharedLibrarySuffixes = []string{".so", ".dll", ".dylib"}

// CalcLibraryName derives the shared library base name from a file path.
// The "lib" prefix is stripped on every platform, including Windows where
// it is not added by the toolchain.
func CalcLibraryName(path string) (string, bool) {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, "lib")
	for _, suffix := range sharedLibrarySuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok {
			return base, true
		}
	}
	return "", false
}

// Generate builds a Source for every library in the artifact and writes
// bindings for each requested language. No Sources are returned on error.
func (g *Generator) Generate(ctx context.Context, req Request) ([]Source, error) {
	writers := make([]bindings.Writer, 0, len(req.TargetLanguages))
	for _, lang := range req.TargetLanguages {
		w, err := g.writers.Lookup(lang)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	sources, err := g.FindSources(ctx, req.LibraryPath, req.LibraryID, req.ConfigOverride)
	if err != nil {
		return nil, err
	}

	if err := checkOutputCollisions(sources, writers); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, errors.WrapFileSystemError("create output directory", req.OutDir, err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.jobs)
	for _, src := range sources {
		for _, w := range writers {
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				g.logger.Debug("writing bindings",
					zap.String("library", src.LibraryID),
					zap.String("language", w.Language()))
				if err := w.Write(src.CI, src.Config, req.OutDir); err != nil {
					return errors.NewWriteError(src.LibraryID, w.Language(), err)
				}
				if g.onWritten != nil {
					g.onWritten(src, w.Language(), w.OutputFiles(src.CI, src.Config))
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger.Info("bindings generated",
		zap.Int("libraries", len(sources)),
		zap.Strings("languages", req.TargetLanguages),
		zap.String("out_dir", req.OutDir))
	return sources, nil
}

// FindSources extracts, groups and resolves the metadata of the artifact at
// path without writing anything. When libraryID is set only that library's
// Source is built.
func (g *Generator) FindSources(ctx context.Context, path, libraryID, configOverride string) ([]Source, error) {
	cdylibName, hasName := CalcLibraryName(path)

	items, err := g.extractor.Extract(path)
	if err != nil {
		return nil, err
	}
	g.logger.Debug("metadata extracted", zap.String("path", path), zap.Int("items", len(items)))

	referenceFree := group.ComputeTypesWithoutObjectReferences(items)
	groups := group.CreateGroups(items)
	if err := group.AssignItems(groups, items, referenceFree); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if libraryID != "" {
		if _, ok := groups[libraryID]; !ok {
			err := errors.NewNamespaceResolutionError(libraryID, "library selector")
			err.WithContext("available", strings.Join(ids, ", "))
			return nil, err
		}
		ids = []string{libraryID}
	}

	sources := make([]Source, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ci, err := g.buildInterface(id, groups, referenceFree)
		if err != nil {
			return nil, err
		}

		cfg, err := g.loader.Load(configOverride)
		if err != nil {
			return nil, errors.WrapConfigError(id, err)
		}
		if hasName {
			cfg.UpdateFromLibraryName(cdylibName)
		}
		if err := cfg.UpdateFromComponentInterface(ci); err != nil {
			return nil, err
		}

		g.logger.Debug("library resolved",
			zap.String("library", id),
			zap.String("namespace", ci.Namespace),
			zap.Int("records", len(ci.Records)),
			zap.Int("objects", len(ci.Objects)),
			zap.Int("functions", len(ci.Functions)))
		sources = append(sources, Source{LibraryID: id, CI: ci, Config: cfg})
	}
	return sources, nil
}

// buildInterface seeds a component interface from the library's group and
// merges its interface definition file when one is declared
func (g *Generator) buildInterface(id string, groups group.Map, referenceFree group.ReferenceFreeSet) (*component.Interface, error) {
	grp := groups[id]
	ci := component.New(id)
	if err := ci.AddMetadata(grp); err != nil {
		return nil, err
	}

	markers := metadata.ItemsOf[*metadata.UdlFileItem](grp.Items)
	switch len(markers) {
	case 0:
	case 1:
		legacy, err := g.loadLegacyGroup(id, markers[0], groups, referenceFree)
		if err != nil {
			return nil, err
		}
		if err := ci.AddMetadata(legacy); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewAmbiguousLegacySourceError(id, len(markers))
	}

	if err := ci.Validate(); err != nil {
		return nil, err
	}
	return ci, nil
}

func (g *Generator) loadLegacyGroup(id string, marker *metadata.UdlFileItem, groups group.Map, referenceFree group.ReferenceFreeSet) (*group.MetadataGroup, error) {
	if marker.Module != id {
		return nil, errors.NewConfigError(id,
			fmt.Sprintf("interface definition file %s.udl is declared by module '%s'", marker.FileStub, marker.Module))
	}

	path, err := g.locator.Locate(id, marker.FileStub)
	if err != nil {
		return nil, err
	}
	text, err := g.reader.ReadFile(path)
	if err != nil {
		return nil, errors.WrapConfigError(id, err)
	}
	parsed, err := g.parser.Parse(text, id)
	if err != nil {
		return nil, err
	}
	if parsed.LibraryID() != id {
		return nil, errors.NewConfigError(id,
			fmt.Sprintf("interface definition file %s belongs to library '%s'", path, parsed.LibraryID()))
	}

	resolver := group.NewResolver(id, groups, referenceFree)
	resolved := group.NewMetadataGroup(parsed.Namespace)
	resolved.NamespaceDocstring = parsed.NamespaceDocstring
	for _, item := range parsed.Items.Items() {
		out, err := resolver.ResolveItem(item)
		if err != nil {
			return nil, err
		}
		if err := resolved.Add(out); err != nil {
			return nil, err
		}
	}

	g.logger.Debug("interface definition merged",
		zap.String("library", id),
		zap.String("path", path),
		zap.Int("items", resolved.Items.Len()))
	return resolved, nil
}

// checkOutputCollisions fails when two Sources would write the same file
func checkOutputCollisions(sources []Source, writers []bindings.Writer) error {
	owners := make(map[string]string)
	for _, w := range writers {
		for _, src := range sources {
			for _, rel := range w.OutputFiles(src.CI, src.Config) {
				key := filepath.Clean(rel)
				if other, ok := owners[key]; ok && other != src.LibraryID {
					err := errors.NewConfigError(src.LibraryID,
						fmt.Sprintf("%s output %s collides with library '%s'", w.Language(), rel, other))
					err.WithSuggestion("Set distinct package or file names in the bindings configuration")
					return err
				}
				owners[key] = src.LibraryID
			}
		}
	}
	return nil
}
