package library

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/toyz/bindgen/internal/bindings"
	"github.com/toyz/bindgen/internal/component"
	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/metadata"
	"github.com/toyz/bindgen/internal/udl"
)

type fakeExtractor struct {
	items []metadata.Item
	err   error
	paths []string
}

func (f *fakeExtractor) Extract(path string) ([]metadata.Item, error) {
	f.paths = append(f.paths, path)
	return f.items, f.err
}

type fakeLoader struct {
	base  config.Config
	err   error
	calls int
}

func (f *fakeLoader) Load(string) (*config.Config, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cfg := f.base
	return &cfg, nil
}

type failingWriter struct{}

func (failingWriter) Language() string { return "broken" }

func (failingWriter) OutputFiles(ci *component.Interface, _ *config.Config) []string {
	return []string{ci.LibraryID + ".broken"}
}

func (failingWriter) Write(*component.Interface, *config.Config, string) error {
	return stderrors.New("disk full")
}

// twoLibraries has disjoint record graphs in "foo" and "bar"; foo's Holder
// references bar's Point
func twoLibraries() []metadata.Item {
	return []metadata.Item{
		&metadata.NamespaceItem{Library: "foo", Name: "foo_api"},
		&metadata.NamespaceItem{Library: "bar", Name: "bar_api"},
		&metadata.RecordItem{Module: "bar::geom", Name: "Point", Fields: []metadata.Field{
			{Name: "x", Type: metadata.Primitive(metadata.TypeFloat64)},
		}},
		&metadata.RecordItem{Module: "foo", Name: "Holder", Fields: []metadata.Field{
			{Name: "point", Type: metadata.Record("bar::geom", "Point")},
		}},
		&metadata.FuncItem{Module: "foo", Name: "make_holder",
			ReturnType: typePtr(metadata.Record("foo", "Holder"))},
	}
}

func typePtr(t metadata.Type) *metadata.Type { return &t }

func newTestGenerator(ex *fakeExtractor, opts ...Option) *Generator {
	base := []Option{
		WithExtractor(ex),
		WithConfigLoader(&fakeLoader{}),
		WithLogger(zap.NewNop()),
	}
	return NewGenerator(append(base, opts...)...)
}

func TestCalcLibraryName(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"/path/to/libuniffi.so", "uniffi", true},
		{"/path/to/libuniffi.dylib", "uniffi", true},
		{"/path/to/uniffi.dll", "uniffi", true},
		{"/path/to/libuniffi.dll", "uniffi", true},
		{"libfoo_bar.so", "foo_bar", true},
		{"/path/to/libuniffi.a", "", false},
		{"/path/to/uniffi", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := CalcLibraryName(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindSources_MultipleLibraries(t *testing.T) {
	ex := &fakeExtractor{items: twoLibraries()}
	g := newTestGenerator(ex)

	sources, err := g.FindSources(context.Background(), "/tmp/libcombined.so", "", "")
	require.NoError(t, err)
	require.Len(t, sources, 2)

	bar, foo := sources[0], sources[1]
	assert.Equal(t, "bar", bar.LibraryID)
	assert.Equal(t, "foo", foo.LibraryID)

	require.Len(t, bar.CI.Records, 1)
	assert.Equal(t, "Point", bar.CI.Records[0].Name)
	assert.Empty(t, bar.CI.Functions)

	require.Len(t, foo.CI.Records, 1)
	holder := foo.CI.Records[0]
	assert.Equal(t, "Holder", holder.Name)
	point := holder.Fields[0].Type
	assert.Equal(t, metadata.TypeExternal, point.Kind)
	assert.Equal(t, "bar_api", point.Namespace)
	assert.Equal(t, metadata.ExternalDataClass, point.ExternalKind)
	assert.False(t, point.ContainsObjectReferences)

	for _, src := range sources {
		assert.Equal(t, "combined", src.Config.CdylibName)
	}
	assert.Equal(t, "foo_api", foo.Config.Bindings.Go.PackageName)
	assert.Contains(t, foo.Config.Bindings.Go.ExternalPackages, "bar_api")
}

func TestFindSources_LibrarySelector(t *testing.T) {
	ex := &fakeExtractor{items: twoLibraries()}
	loader := &fakeLoader{}
	g := newTestGenerator(ex, WithConfigLoader(loader))

	sources, err := g.FindSources(context.Background(), "/tmp/libcombined.so", "foo", "")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "foo", sources[0].LibraryID)
	assert.Equal(t, 1, loader.calls)

	_, err = g.FindSources(context.Background(), "/tmp/libcombined.so", "baz", "")
	require.Error(t, err)
	var nsErr *errors.NamespaceResolutionError
	require.ErrorAs(t, err, &nsErr)
	assert.Equal(t, "baz", nsErr.Library)
}

func TestFindSources_NoLibraryNameHint(t *testing.T) {
	ex := &fakeExtractor{items: twoLibraries()}
	g := newTestGenerator(ex, WithConfigLoader(&fakeLoader{base: config.Config{CdylibName: "configured"}}))

	sources, err := g.FindSources(context.Background(), "/tmp/combined.bin", "foo", "")
	require.NoError(t, err)
	assert.Equal(t, "configured", sources[0].Config.CdylibName)
}

func TestFindSources_ExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{err: errors.NewExtractionError("/tmp/x.so", "no metadata symbols found")}
	g := newTestGenerator(ex)

	sources, err := g.FindSources(context.Background(), "/tmp/x.so", "", "")
	assert.Nil(t, sources)
	assert.True(t, errors.HasCode(err, errors.ExtractionErrorCode))
	assert.Equal(t, []string{"/tmp/x.so"}, ex.paths)
}

func TestFindSources_UnknownNamespaceAbortsRun(t *testing.T) {
	items := append(twoLibraries(), &metadata.FuncItem{Module: "orphan", Name: "lost"})
	g := newTestGenerator(&fakeExtractor{items: items})

	sources, err := g.FindSources(context.Background(), "/tmp/libcombined.so", "", "")
	assert.Nil(t, sources)
	var nsErr *errors.NamespaceResolutionError
	require.ErrorAs(t, err, &nsErr)
	assert.Equal(t, "orphan", nsErr.Library)
}

func TestFindSources_CrossLibraryCallbackInterface(t *testing.T) {
	items := append(twoLibraries(),
		&metadata.CallbackInterfaceItem{Module: "bar", Name: "Listener"},
		&metadata.FuncItem{Module: "foo", Name: "subscribe", Inputs: []metadata.Param{
			{Name: "listener", Type: metadata.CallbackInterface("bar", "Listener")},
		}},
	)
	g := newTestGenerator(&fakeExtractor{items: items})

	_, err := g.FindSources(context.Background(), "/tmp/libcombined.so", "", "")
	require.Error(t, err)
	assert.Equal(t, errors.UnsupportedTypeErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "Listener")
}

func TestFindSources_ConfigFailureNamesLibrary(t *testing.T) {
	g := newTestGenerator(&fakeExtractor{items: twoLibraries()},
		WithConfigLoader(&fakeLoader{err: stderrors.New("bad toml")}))

	_, err := g.FindSources(context.Background(), "/tmp/libcombined.so", "", "")
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bar", cfgErr.Library)
	assert.ErrorContains(t, err, "bad toml")
}

const geometryUDL = `
namespace geometry {
  Shape describe(Place place);
};

dictionary Place {
  string name;
  Coord where;
};

[Enum]
interface Shape {
  Dot();
};

[External="bar"]
typedef extern Coord;
`

func legacyItems(markers ...*metadata.UdlFileItem) []metadata.Item {
	items := []metadata.Item{
		&metadata.NamespaceItem{Library: "bar", Name: "bar_api"},
		&metadata.RecordItem{Module: "bar", Name: "Coord", Fields: []metadata.Field{
			{Name: "lat", Type: metadata.Primitive(metadata.TypeFloat64)},
		}},
	}
	for _, m := range markers {
		items = append(items, m)
	}
	return items
}

func writeUDL(t *testing.T, root, stub, text string) {
	t.Helper()
	dir := filepath.Join(root, "geo", "src")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, stub+".udl"), []byte(text), 0o644))
}

func TestFindSources_MergesLegacyInterfaceFile(t *testing.T) {
	root := t.TempDir()
	writeUDL(t, root, "geometry", geometryUDL)

	items := legacyItems(&metadata.UdlFileItem{Module: "geo", Namespace: "geometry", FileStub: "geometry"})
	g := newTestGenerator(&fakeExtractor{items: items}, WithLegacyLocator(udl.NewLocator(root)))

	sources, err := g.FindSources(context.Background(), "/tmp/libgeo.so", "geo", "")
	require.NoError(t, err)
	require.Len(t, sources, 1)

	ci := sources[0].CI
	assert.Equal(t, "geometry", ci.Namespace)
	require.Len(t, ci.Functions, 1)
	assert.Equal(t, "describe", ci.Functions[0].Name)

	place := ci.Records[0]
	require.Equal(t, "Place", place.Name)
	coord := place.Fields[1].Type
	assert.Equal(t, metadata.TypeExternal, coord.Kind)
	assert.Equal(t, "bar_api", coord.Namespace, "placeholder external is stamped with the owner's namespace")
	assert.Equal(t, []string{"bar_api"}, ci.ExternalNamespaces())
}

func TestFindSources_AmbiguousLegacyFiles(t *testing.T) {
	items := legacyItems(
		&metadata.UdlFileItem{Module: "geo", Namespace: "geometry", FileStub: "geometry"},
		&metadata.UdlFileItem{Module: "geo", Namespace: "geometry", FileStub: "shapes"},
	)
	g := newTestGenerator(&fakeExtractor{items: items})

	_, err := g.FindSources(context.Background(), "/tmp/libgeo.so", "geo", "")
	var ambiguous *errors.AmbiguousLegacySourceError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "geo", ambiguous.Library)
	assert.Equal(t, 2, ambiguous.Count)
}

func TestFindSources_LegacyMarkerOwnerMismatch(t *testing.T) {
	root := t.TempDir()
	writeUDL(t, root, "geometry", geometryUDL)

	items := legacyItems(&metadata.UdlFileItem{Module: "geo::sub", Namespace: "geometry", FileStub: "geometry"})
	items = append(items, &metadata.NamespaceItem{Library: "geo", Name: "geometry"})
	g := newTestGenerator(&fakeExtractor{items: items}, WithLegacyLocator(udl.NewLocator(root)))

	sources, err := g.FindSources(context.Background(), "/tmp/libgeo.so", "", "")
	require.Error(t, err)
	assert.Nil(t, sources)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "declared by module 'geo::sub'")
}

func TestFindSources_MissingLegacyFile(t *testing.T) {
	items := legacyItems(&metadata.UdlFileItem{Module: "geo", Namespace: "geometry", FileStub: "geometry"})
	g := newTestGenerator(&fakeExtractor{items: items}, WithLegacyLocator(udl.NewLocator(t.TempDir())))

	_, err := g.FindSources(context.Background(), "/tmp/libgeo.so", "", "")
	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "geometry.udl not found")
}

func TestFindSources_LegacyParseError(t *testing.T) {
	root := t.TempDir()
	writeUDL(t, root, "geometry", "namespace geometry {\n  void broken(\n};")

	items := legacyItems(&metadata.UdlFileItem{Module: "geo", Namespace: "geometry", FileStub: "geometry"})
	g := newTestGenerator(&fakeExtractor{items: items}, WithLegacyLocator(udl.NewLocator(root)))

	_, err := g.FindSources(context.Background(), "/tmp/libgeo.so", "", "")
	var parseErr *errors.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "geo", parseErr.Library)
}

func TestGenerate_WritesEverySource(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")

	var mu sync.Mutex
	var written []string
	hook := func(src Source, language string, files []string) {
		mu.Lock()
		defer mu.Unlock()
		for _, f := range files {
			_, err := os.Stat(filepath.Join(outDir, f))
			assert.NoError(t, err, "hook runs after %s is written", f)
		}
		written = append(written, src.LibraryID+"/"+language)
	}
	g := newTestGenerator(&fakeExtractor{items: twoLibraries()}, WithJobs(4), WithWrittenHook(hook))
	assert.Equal(t, []string{"go", "json"}, g.Languages())

	sources, err := g.Generate(context.Background(), Request{
		LibraryPath:     "/tmp/libcombined.so",
		TargetLanguages: []string{"go", "json"},
		OutDir:          outDir,
	})
	require.NoError(t, err)
	require.Len(t, sources, 2)

	for _, rel := range []string{
		filepath.Join("foo_api", "foo_api.go"),
		filepath.Join("bar_api", "bar_api.go"),
		"foo_api.json",
		"bar_api.json",
	} {
		_, err := os.Stat(filepath.Join(outDir, rel))
		assert.NoError(t, err, rel)
	}

	sort.Strings(written)
	assert.Equal(t, []string{"bar/go", "bar/json", "foo/go", "foo/json"}, written)
}

func TestGenerate_UnknownLanguage(t *testing.T) {
	ex := &fakeExtractor{items: twoLibraries()}
	g := newTestGenerator(ex)

	_, err := g.Generate(context.Background(), Request{
		LibraryPath:     "/tmp/libcombined.so",
		TargetLanguages: []string{"cobol"},
		OutDir:          t.TempDir(),
	})
	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
	assert.Empty(t, ex.paths, "artifact is not read when a language is unknown")
}

func TestGenerate_OutputCollision(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "out")
	loader := &fakeLoader{}
	loader.base.Bindings.JSON.FileName = "interface.json"
	g := newTestGenerator(&fakeExtractor{items: twoLibraries()}, WithConfigLoader(loader))

	sources, err := g.Generate(context.Background(), Request{
		LibraryPath:     "/tmp/libcombined.so",
		TargetLanguages: []string{"json"},
		OutDir:          outDir,
	})
	assert.Nil(t, sources)
	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "collides")

	_, statErr := os.Stat(outDir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written before collisions are checked")
}

func TestGenerate_WriterFailure(t *testing.T) {
	writers, err := bindings.NewRegistry(bindings.NewJSONWriter(), failingWriter{})
	require.NoError(t, err)
	g := newTestGenerator(&fakeExtractor{items: twoLibraries()}, WithWriters(writers))

	sources, err := g.Generate(context.Background(), Request{
		LibraryPath:     "/tmp/libcombined.so",
		TargetLanguages: []string{"json", "broken"},
		OutDir:          t.TempDir(),
	})
	assert.Nil(t, sources)
	var writeErr *errors.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, "broken", writeErr.Language)
	assert.ErrorContains(t, err, "disk full")
}
