package bindings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/bindgen/internal/component"
	"github.com/toyz/bindgen/internal/config"
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/group"
	"github.com/toyz/bindgen/internal/metadata"
	"github.com/toyz/bindgen/internal/utils"
)

func arithInterface(t *testing.T) *component.Interface {
	t.Helper()
	u32 := metadata.Primitive(metadata.TypeUInt32)
	u64 := metadata.Primitive(metadata.TypeUInt64)
	str := metadata.Primitive(metadata.TypeString)
	errType := metadata.Enum("arith", "ArithmeticError")
	point := metadata.External("geo_types", "geo", "Point", metadata.ExternalDataClass, false)
	counter := metadata.Object("arith", "Counter")

	g := group.NewMetadataGroup(metadata.NamespaceItem{Library: "arith", Name: "arithmetic"})
	g.NamespaceDocstring = "Arithmetic helpers."
	items := []metadata.Item{
		&metadata.FuncItem{Module: "arith", Name: "add", Inputs: []metadata.Param{{Name: "a", Type: u64}, {Name: "b", Type: u64}},
			ReturnType: &u64, Throws: &errType, Docstring: "Adds two numbers."},
		&metadata.FuncItem{Module: "arith", Name: "wait", IsAsync: true,
			Inputs: []metadata.Param{{Name: "d", Type: metadata.Primitive(metadata.TypeDuration)}}},
		&metadata.EnumItem{Module: "arith", Name: "ArithmeticError", Shape: metadata.EnumShapeError,
			Variants: []metadata.Variant{{Name: "IntegerOverflow"}, {Name: "DivisionByZero"}}},
		&metadata.EnumItem{Module: "arith", Name: "Shape", Variants: []metadata.Variant{
			{Name: "Circle", Fields: []metadata.Field{{Name: "radius", Type: metadata.Primitive(metadata.TypeFloat64)}}},
			{Name: "Empty"},
		}},
		&metadata.RecordItem{Module: "arith", Name: "Snapshot", Fields: []metadata.Field{
			{Name: "value", Type: u32},
			{Name: "label", Type: metadata.Optional(str)},
			{Name: "origin", Type: point},
			{Name: "type", Type: metadata.Sequence(str)},
		}},
		&metadata.ObjectItem{Module: "arith", Name: "Counter"},
		&metadata.ConstructorItem{Module: "arith", SelfName: "Counter", Name: "new", Inputs: []metadata.Param{{Name: "start", Type: u32}}},
		&metadata.ConstructorItem{Module: "arith", SelfName: "Counter", Name: "with_default"},
		&metadata.MethodItem{Module: "arith", SelfName: "Counter", Name: "get", ReturnType: &u32, Throws: &errType},
		&metadata.MethodItem{Module: "arith", SelfName: "Counter", Name: "fork", ReturnType: &counter},
		&metadata.CallbackInterfaceItem{Module: "arith", Name: "Listener"},
		&metadata.TraitMethodItem{Module: "arith", TraitName: "Listener", Name: "on_event", Inputs: []metadata.Param{{Name: "type", Type: str}}},
		&metadata.CustomTypeItem{Module: "arith", Name: "Url", Builtin: str},
	}
	for _, item := range items {
		require.NoError(t, g.Add(item))
	}

	ci := component.New("arith")
	require.NoError(t, ci.AddMetadata(g))
	require.NoError(t, ci.Validate())
	return ci
}

func arithConfig(t *testing.T, ci *component.Interface) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Bindings.Go.ImportPathPrefix = "example.com/gen"
	cfg.UpdateFromLibraryName("arith")
	require.NoError(t, cfg.UpdateFromComponentInterface(ci))
	return cfg
}

func TestGoWriter_Render(t *testing.T) {
	ci := arithInterface(t)
	cfg := arithConfig(t, ci)

	src, err := NewGoWriter().Render(ci, cfg)
	require.NoError(t, err)
	out := string(src)
	require.NoError(t, utils.ValidateGoCode(out))

	for _, want := range []string{
		"// Code generated by bindgen. DO NOT EDIT.",
		"// Library: arith (shared library arith)",
		"// Arithmetic helpers.\npackage arithmetic",
		`geo_types "example.com/gen/geo_types"`,
		`"context"`,
		`"time"`,
		"type Snapshot struct {",
		"Label  *string",
		"Origin geo_types.Point",
		"Type   []string",
		"type ArithmeticError int",
		"ArithmeticErrorIntegerOverflow ArithmeticError = iota",
		"func (e ArithmeticError) Error() string {",
		"type Shape interface {\n\tisShape()\n}",
		"type ShapeCircle struct {\n\tRadius float64 `json:\"radius\"`\n}",
		"func (ShapeEmpty) isShape() {}",
		"type Url string",
		"type Counter interface {",
		"Fork() Counter",
		"Get() (uint32, error)",
		"type Listener interface {\n\tOnEvent(type_ string)\n}",
		"type Library interface {",
		"// Adds two numbers.\n\tAdd(a uint64, b uint64) (uint64, error)",
		"Wait(ctx context.Context, d time.Duration)",
		"NewCounter(start uint32) Counter",
		"CounterWithDefault() Counter",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "func (v ShapeCircle) Error()", "plain data enums are not errors")
}

func TestGoWriter_OutputFiles(t *testing.T) {
	ci := arithInterface(t)
	cfg := arithConfig(t, ci)
	assert.Equal(t, []string{filepath.Join("arithmetic", "arithmetic.go")}, NewGoWriter().OutputFiles(ci, cfg))

	cfg.Bindings.Go.PackageName = "arithgo"
	assert.Equal(t, []string{filepath.Join("arithgo", "arithmetic.go")}, NewGoWriter().OutputFiles(ci, cfg))
}

func TestJSONWriter_Render(t *testing.T) {
	ci := arithInterface(t)
	cfg := arithConfig(t, ci)

	data, err := NewJSONWriter().Render(ci, cfg)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "arith", doc["library"])
	assert.Equal(t, "arithmetic", doc["namespace"])
	assert.Equal(t, "arith", doc["cdylib_name"])
	assert.Len(t, doc["functions"], 2)
	assert.Len(t, doc["enums"], 2)

	objects := doc["objects"].([]interface{})
	require.Len(t, objects, 1)
	counter := objects[0].(map[string]interface{})
	assert.Equal(t, "Counter", counter["name"])
	assert.Len(t, counter["constructors"], 2)

	externals := doc["external_types"].([]interface{})
	require.Len(t, externals, 1)
	assert.Equal(t, "geo_types", externals[0].(map[string]interface{})["namespace"])
}

func TestWriters_Write(t *testing.T) {
	ci := arithInterface(t)
	cfg := arithConfig(t, ci)
	cfg.Bindings.JSON.FileName = "iface.json"
	outDir := t.TempDir()

	for _, w := range []Writer{NewGoWriter(), NewJSONWriter()} {
		require.NoError(t, w.Write(ci, cfg, outDir))
		for _, rel := range w.OutputFiles(ci, cfg) {
			info, err := os.Stat(filepath.Join(outDir, rel))
			require.NoError(t, err, rel)
			assert.NotZero(t, info.Size())
		}
	}
	_, err := os.Stat(filepath.Join(outDir, "iface.json"))
	assert.NoError(t, err)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"go", "json"}, r.Languages())

	w, err := r.Lookup("GO")
	require.NoError(t, err)
	assert.Equal(t, "go", w.Language())

	_, err = r.Lookup("kotlin")
	require.Error(t, err)
	assert.Equal(t, errors.ConfigurationErrorCode, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "unknown target language 'kotlin'")

	err = r.Register(NewJSONWriter())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "OnEvent", exported("on_event"))
	assert.Equal(t, "Counter", exported("Counter"))
	assert.Equal(t, "X3d", exported("3d"))
	assert.Equal(t, "type_", unexported("type"))
	assert.Equal(t, "startValue", unexported("start_value"))
	assert.Equal(t, "NewCounter", constructorName("Counter", "new"))
	assert.Equal(t, "CounterFromString", constructorName("Counter", "from_string"))
}
