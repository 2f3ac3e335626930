package group

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toyz/bindgen/internal/metadata"
)

func id(module, name string) metadata.ItemIdentifier {
	return metadata.ItemIdentifier{ModulePath: module, Name: name}
}

func TestComputeTypesWithoutObjectReferences_Acyclic(t *testing.T) {
	items := []metadata.Item{
		record("foo", "C", field("n", metadata.Primitive(metadata.TypeUInt32)), field("s", metadata.Primitive(metadata.TypeString))),
		record("foo", "D", field("c", metadata.Record("foo", "C"))),
		record("foo", "E", field("handle", metadata.Object("foo", "Handle"))),
		record("foo", "F", field("es", metadata.Sequence(metadata.Record("foo", "E")))),
		record("foo", "G", field("cs", metadata.Map(metadata.Primitive(metadata.TypeString), metadata.Optional(metadata.Record("foo", "C"))))),
	}

	set := ComputeTypesWithoutObjectReferences(items)

	assert.True(t, set.Contains(id("foo", "C")))
	assert.True(t, set.Contains(id("foo", "D")))
	assert.False(t, set.Contains(id("foo", "E")))
	assert.False(t, set.Contains(id("foo", "F")), "object reachable through a sequence")
	assert.True(t, set.Contains(id("foo", "G")))
}

func TestComputeTypesWithoutObjectReferences_Cycle(t *testing.T) {
	items := []metadata.Item{
		record("foo", "A", field("b", metadata.Optional(metadata.Record("foo", "B")))),
		record("foo", "B", field("a", metadata.Optional(metadata.Record("foo", "A")))),
		record("foo", "Self", field("next", metadata.Sequence(metadata.Record("foo", "Self")))),
		record("foo", "Plain", field("x", metadata.Primitive(metadata.TypeInt8))),
	}

	set := ComputeTypesWithoutObjectReferences(items)

	assert.False(t, set.Contains(id("foo", "A")))
	assert.False(t, set.Contains(id("foo", "B")))
	assert.False(t, set.Contains(id("foo", "Self")))
	assert.True(t, set.Contains(id("foo", "Plain")))
	assert.Len(t, set, 1)
}

func TestComputeTypesWithoutObjectReferences_UnknownIsConservative(t *testing.T) {
	items := []metadata.Item{
		record("foo", "UsesMissing", field("m", metadata.Record("elsewhere", "Missing"))),
		record("foo", "UsesExternal", field("e", metadata.External("", "bar", "Known", metadata.ExternalDataClass, false))),
		record("bar", "Known", field("x", metadata.Primitive(metadata.TypeBoolean))),
	}

	set := ComputeTypesWithoutObjectReferences(items)

	assert.False(t, set.Contains(id("foo", "UsesMissing")))
	assert.True(t, set.Contains(id("foo", "UsesExternal")), "external types are followed to their definition")
	assert.True(t, set.Contains(id("bar", "Known")))
}

func TestComputeTypesWithoutObjectReferences_Enums(t *testing.T) {
	items := []metadata.Item{
		&metadata.EnumItem{Module: "foo", Name: "Flat", Variants: []metadata.Variant{{Name: "A"}, {Name: "B"}}},
		&metadata.EnumItem{Module: "foo", Name: "Holder", Variants: []metadata.Variant{
			{Name: "Empty"},
			{Name: "Full", Fields: []metadata.Field{field("obj", metadata.Object("foo", "Thing"))}},
		}},
		record("foo", "UsesFlat", field("f", metadata.Enum("foo", "Flat"))),
		record("foo", "UsesHolder", field("h", metadata.Enum("foo", "Holder"))),
		record("foo", "UsesCustom", field("c", metadata.Custom("foo", "Url", metadata.Primitive(metadata.TypeString)))),
	}

	set := ComputeTypesWithoutObjectReferences(items)

	assert.True(t, set.Contains(id("foo", "Flat")))
	assert.False(t, set.Contains(id("foo", "Holder")))
	assert.True(t, set.Contains(id("foo", "UsesFlat")))
	assert.False(t, set.Contains(id("foo", "UsesHolder")))
	assert.True(t, set.Contains(id("foo", "UsesCustom")))
}
