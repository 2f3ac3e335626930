package metadata

import (
	"fmt"
	"strings"
)

// TypeKind identifies the shape of a Type
type TypeKind int

const (
	TypeUInt8 TypeKind = iota
	TypeInt8
	TypeUInt16
	TypeInt16
	TypeUInt32
	TypeInt32
	TypeUInt64
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeBoolean
	TypeString
	TypeBytes
	TypeTimestamp
	TypeDuration
	TypeObject
	TypeRecord
	TypeEnum
	TypeCallbackInterface
	TypeCustom
	TypeOptional
	TypeSequence
	TypeMap
	TypeExternal
)

var typeKindNames = [...]string{
	TypeUInt8:             "u8",
	TypeInt8:              "i8",
	TypeUInt16:            "u16",
	TypeInt16:             "i16",
	TypeUInt32:            "u32",
	TypeInt32:             "i32",
	TypeUInt64:            "u64",
	TypeInt64:             "i64",
	TypeFloat32:           "f32",
	TypeFloat64:           "f64",
	TypeBoolean:           "boolean",
	TypeString:            "string",
	TypeBytes:             "bytes",
	TypeTimestamp:         "timestamp",
	TypeDuration:          "duration",
	TypeObject:            "object",
	TypeRecord:            "record",
	TypeEnum:              "enum",
	TypeCallbackInterface: "callback_interface",
	TypeCustom:            "custom",
	TypeOptional:          "optional",
	TypeSequence:          "sequence",
	TypeMap:               "map",
	TypeExternal:          "external",
}

// String returns the wire name of the kind
func (k TypeKind) String() string {
	if k >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k TypeKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(typeKindNames) {
		return nil, fmt.Errorf("unknown type kind %d", int(k))
	}
	return []byte(typeKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *TypeKind) UnmarshalText(text []byte) error {
	kind, ok := ParsePrimitive(string(text))
	if ok {
		*k = kind
		return nil
	}
	for i, name := range typeKindNames {
		if name == string(text) {
			*k = TypeKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown type kind %q", string(text))
}

// IsPrimitive reports whether the kind is a builtin scalar
func (k TypeKind) IsPrimitive() bool {
	return k <= TypeDuration
}

// ParsePrimitive maps a builtin type name to its kind
func ParsePrimitive(name string) (TypeKind, bool) {
	for i := TypeUInt8; i <= TypeDuration; i++ {
		if typeKindNames[i] == name {
			return i, true
		}
	}
	if name == "bool" {
		return TypeBoolean, true
	}
	return 0, false
}

// ExternalKind classifies a type owned by another library
type ExternalKind int

const (
	ExternalDataClass ExternalKind = iota
	ExternalInterface
)

// String returns the name of the external kind
func (k ExternalKind) String() string {
	if k == ExternalInterface {
		return "interface"
	}
	return "data_class"
}

// MarshalText implements encoding.TextMarshaler
func (k ExternalKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *ExternalKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "data_class", "":
		*k = ExternalDataClass
	case "interface":
		*k = ExternalInterface
	default:
		return fmt.Errorf("unknown external kind %q", string(text))
	}
	return nil
}

// ObjectImpl describes how an object is implemented on the library side
type ObjectImpl int

const (
	ObjectStruct ObjectImpl = iota
	ObjectTrait
)

// MarshalText implements encoding.TextMarshaler
func (i ObjectImpl) MarshalText() ([]byte, error) {
	if i == ObjectTrait {
		return []byte("trait"), nil
	}
	return []byte("struct"), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *ObjectImpl) UnmarshalText(text []byte) error {
	switch string(text) {
	case "struct", "":
		*i = ObjectStruct
	case "trait":
		*i = ObjectTrait
	default:
		return fmt.Errorf("unknown object implementation %q", string(text))
	}
	return nil
}

// Type describes the shape of a value crossing the binding boundary.
//
// Only the fields relevant to Kind are set: ModulePath and Name for named
// types, Builtin for custom types, Inner for optionals and sequences, Key
// and Value for maps, and the External* fields for external references.
type Type struct {
	Kind       TypeKind   `json:"kind"`
	ModulePath string     `json:"module_path,omitempty"`
	Name       string     `json:"name,omitempty"`
	Imp        ObjectImpl `json:"imp,omitempty"`
	Builtin    *Type      `json:"builtin,omitempty"`
	Inner      *Type      `json:"inner,omitempty"`
	Key        *Type      `json:"key,omitempty"`
	Value      *Type      `json:"value,omitempty"`

	Namespace                string       `json:"namespace,omitempty"`
	ExternalKind             ExternalKind `json:"external_kind,omitempty"`
	Tagged                   bool         `json:"tagged,omitempty"`
	ContainsObjectReferences bool         `json:"contains_object_references,omitempty"`
}

// Primitive returns a builtin scalar type
func Primitive(kind TypeKind) Type {
	return Type{Kind: kind}
}

// Object returns a reference-counted handle type
func Object(modulePath, name string) Type {
	return Type{Kind: TypeObject, ModulePath: modulePath, Name: name}
}

// Record returns a record type reference
func Record(modulePath, name string) Type {
	return Type{Kind: TypeRecord, ModulePath: modulePath, Name: name}
}

// Enum returns an enum type reference
func Enum(modulePath, name string) Type {
	return Type{Kind: TypeEnum, ModulePath: modulePath, Name: name}
}

// CallbackInterface returns a callback interface type reference
func CallbackInterface(modulePath, name string) Type {
	return Type{Kind: TypeCallbackInterface, ModulePath: modulePath, Name: name}
}

// Custom returns a user-defined wrapper around builtin
func Custom(modulePath, name string, builtin Type) Type {
	return Type{Kind: TypeCustom, ModulePath: modulePath, Name: name, Builtin: &builtin}
}

// Optional returns an optional wrapper around inner
func Optional(inner Type) Type {
	return Type{Kind: TypeOptional, Inner: &inner}
}

// Sequence returns a sequence of inner
func Sequence(inner Type) Type {
	return Type{Kind: TypeSequence, Inner: &inner}
}

// Map returns a map from key to value
func Map(key, value Type) Type {
	return Type{Kind: TypeMap, Key: &key, Value: &value}
}

// External returns a reference to a type owned by another library
func External(namespace, modulePath, name string, kind ExternalKind, containsObjectReferences bool) Type {
	return Type{
		Kind:                     TypeExternal,
		Namespace:                namespace,
		ModulePath:               modulePath,
		Name:                     name,
		ExternalKind:             kind,
		ContainsObjectReferences: containsObjectReferences,
	}
}

// IsNamed reports whether the type refers to a user-defined type by module path and name
func (t Type) IsNamed() bool {
	switch t.Kind {
	case TypeObject, TypeRecord, TypeEnum, TypeCallbackInterface, TypeCustom, TypeExternal:
		return true
	}
	return false
}

// Identifier returns the (module path, name) pair of a named type
func (t Type) Identifier() (ItemIdentifier, bool) {
	if !t.IsNamed() {
		return ItemIdentifier{}, false
	}
	return ItemIdentifier{ModulePath: t.ModulePath, Name: t.Name}, true
}

// Children returns the directly nested types of a composite
func (t Type) Children() []Type {
	switch t.Kind {
	case TypeCustom:
		if t.Builtin != nil {
			return []Type{*t.Builtin}
		}
	case TypeOptional, TypeSequence:
		if t.Inner != nil {
			return []Type{*t.Inner}
		}
	case TypeMap:
		var out []Type
		if t.Key != nil {
			out = append(out, *t.Key)
		}
		if t.Value != nil {
			out = append(out, *t.Value)
		}
		return out
	}
	return nil
}

// IterTypes returns t followed by every type nested inside it, depth first
func (t Type) IterTypes() []Type {
	out := []Type{t}
	for _, child := range t.Children() {
		out = append(out, child.IterTypes()...)
	}
	return out
}

// String renders the type in interface-definition syntax
func (t Type) String() string {
	switch t.Kind {
	case TypeOptional:
		return t.Inner.String() + "?"
	case TypeSequence:
		return "sequence<" + t.Inner.String() + ">"
	case TypeMap:
		return "record<" + t.Key.String() + ", " + t.Value.String() + ">"
	case TypeExternal:
		if t.Namespace != "" {
			return t.Namespace + "." + t.Name
		}
		return "extern " + t.Name
	}
	if t.IsNamed() {
		return t.Name
	}
	return t.Kind.String()
}

// ItemIdentifier is the stable key of a user-defined record or enum
type ItemIdentifier struct {
	ModulePath string
	Name       string
}

// String returns module_path::name
func (id ItemIdentifier) String() string {
	return id.ModulePath + "::" + id.Name
}

// LibraryName returns the library identifier owning modulePath: its leading
// "::" segment.
func LibraryName(modulePath string) string {
	name, _, _ := strings.Cut(modulePath, "::")
	return name
}
