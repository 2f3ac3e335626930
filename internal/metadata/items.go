// Package metadata defines the vocabulary of interface facts emitted by
// compiled libraries: metadata items (namespaces, functions, records, enums,
// objects, ...) and the types they reference.
package metadata

import "fmt"

// ItemKind identifies the variant of an Item
type ItemKind int

const (
	KindNamespace ItemKind = iota
	KindUdlFile
	KindFunc
	KindMethod
	KindTraitMethod
	KindConstructor
	KindRecord
	KindEnum
	KindObject
	KindCallbackInterface
	KindCustomType
)

var itemKindNames = [...]string{
	KindNamespace:         "namespace",
	KindUdlFile:           "udl_file",
	KindFunc:              "func",
	KindMethod:            "method",
	KindTraitMethod:       "trait_method",
	KindConstructor:       "constructor",
	KindRecord:            "record",
	KindEnum:              "enum",
	KindObject:            "object",
	KindCallbackInterface: "callback_interface",
	KindCustomType:        "custom_type",
}

// String returns the wire name of the kind
func (k ItemKind) String() string {
	if k >= 0 && int(k) < len(itemKindNames) {
		return itemKindNames[k]
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

func parseItemKind(name string) (ItemKind, bool) {
	for i, n := range itemKindNames {
		if n == name {
			return ItemKind(i), true
		}
	}
	return 0, false
}

// Item is one fact describing a library's public interface
type Item interface {
	Kind() ItemKind
	// ModulePath is the owning module; its leading segment is the library identifier.
	ModulePath() string
}

// NamespaceItem maps a library identifier to its public namespace name
type NamespaceItem struct {
	Library string `json:"crate_name"`
	Name    string `json:"name"`
}

// UdlFileItem marks a library whose interface is partly described by a legacy interface file
type UdlFileItem struct {
	Module    string `json:"module_path"`
	Namespace string `json:"namespace"`
	FileStub  string `json:"file_stub"`
}

// Param is a named function parameter
type Param struct {
	Name string `json:"name"`
	Type Type   `json:"ty"`
}

// Field is a named record or enum-variant field
type Field struct {
	Name      string `json:"name"`
	Type      Type   `json:"ty"`
	Default   string `json:"default,omitempty"`
	Docstring string `json:"docstring,omitempty"`
}

// FuncItem is a top-level exported function
type FuncItem struct {
	Module     string  `json:"module_path"`
	Name       string  `json:"name"`
	IsAsync    bool    `json:"is_async,omitempty"`
	Inputs     []Param `json:"inputs,omitempty"`
	ReturnType *Type   `json:"return_type,omitempty"`
	Throws     *Type   `json:"throws,omitempty"`
	Docstring  string  `json:"docstring,omitempty"`
}

// MethodItem is a method on an object
type MethodItem struct {
	Module         string  `json:"module_path"`
	SelfName       string  `json:"self_name"`
	Name           string  `json:"name"`
	IsAsync        bool    `json:"is_async,omitempty"`
	Inputs         []Param `json:"inputs,omitempty"`
	ReturnType     *Type   `json:"return_type,omitempty"`
	Throws         *Type   `json:"throws,omitempty"`
	TakesSelfByArc bool    `json:"takes_self_by_arc,omitempty"`
	Docstring      string  `json:"docstring,omitempty"`
}

// TraitMethodItem is a method of a trait or callback interface
type TraitMethodItem struct {
	Module     string  `json:"module_path"`
	TraitName  string  `json:"trait_name"`
	Index      uint32  `json:"index"`
	Name       string  `json:"name"`
	IsAsync    bool    `json:"is_async,omitempty"`
	Inputs     []Param `json:"inputs,omitempty"`
	ReturnType *Type   `json:"return_type,omitempty"`
	Throws     *Type   `json:"throws,omitempty"`
	Docstring  string  `json:"docstring,omitempty"`
}

// ConstructorItem is a constructor of an object
type ConstructorItem struct {
	Module    string  `json:"module_path"`
	SelfName  string  `json:"self_name"`
	Name      string  `json:"name"`
	IsAsync   bool    `json:"is_async,omitempty"`
	Inputs    []Param `json:"inputs,omitempty"`
	Throws    *Type   `json:"throws,omitempty"`
	Docstring string  `json:"docstring,omitempty"`
}

// RecordItem is a value type with named fields
type RecordItem struct {
	Module    string  `json:"module_path"`
	Name      string  `json:"name"`
	Fields    []Field `json:"fields,omitempty"`
	Docstring string  `json:"docstring,omitempty"`
}

// EnumShape distinguishes plain enums from error enums
type EnumShape int

const (
	EnumShapeEnum EnumShape = iota
	EnumShapeError
)

// Variant is one case of an enum
type Variant struct {
	Name      string  `json:"name"`
	Fields    []Field `json:"fields,omitempty"`
	Docstring string  `json:"docstring,omitempty"`
}

// EnumItem is a tagged union of variants
type EnumItem struct {
	Module    string    `json:"module_path"`
	Name      string    `json:"name"`
	Shape     EnumShape `json:"shape,omitempty"`
	Variants  []Variant `json:"variants,omitempty"`
	Docstring string    `json:"docstring,omitempty"`
}

// IsFlat reports whether no variant carries fields
func (e *EnumItem) IsFlat() bool {
	for _, v := range e.Variants {
		if len(v.Fields) > 0 {
			return false
		}
	}
	return true
}

// ObjectItem declares a reference-counted object type
type ObjectItem struct {
	Module    string     `json:"module_path"`
	Name      string     `json:"name"`
	Imp       ObjectImpl `json:"imp,omitempty"`
	Docstring string     `json:"docstring,omitempty"`
}

// CallbackInterfaceItem declares an interface implemented on the foreign side
type CallbackInterfaceItem struct {
	Module    string `json:"module_path"`
	Name      string `json:"name"`
	Docstring string `json:"docstring,omitempty"`
}

// CustomTypeItem declares a wrapper whose wire representation is Builtin
type CustomTypeItem struct {
	Module    string `json:"module_path"`
	Name      string `json:"name"`
	Builtin   Type   `json:"builtin"`
	Docstring string `json:"docstring,omitempty"`
}

func (*NamespaceItem) Kind() ItemKind         { return KindNamespace }
func (*UdlFileItem) Kind() ItemKind           { return KindUdlFile }
func (*FuncItem) Kind() ItemKind              { return KindFunc }
func (*MethodItem) Kind() ItemKind            { return KindMethod }
func (*TraitMethodItem) Kind() ItemKind       { return KindTraitMethod }
func (*ConstructorItem) Kind() ItemKind       { return KindConstructor }
func (*RecordItem) Kind() ItemKind            { return KindRecord }
func (*EnumItem) Kind() ItemKind              { return KindEnum }
func (*ObjectItem) Kind() ItemKind            { return KindObject }
func (*CallbackInterfaceItem) Kind() ItemKind { return KindCallbackInterface }
func (*CustomTypeItem) Kind() ItemKind        { return KindCustomType }

func (i *NamespaceItem) ModulePath() string         { return i.Library }
func (i *UdlFileItem) ModulePath() string           { return i.Module }
func (i *FuncItem) ModulePath() string              { return i.Module }
func (i *MethodItem) ModulePath() string            { return i.Module }
func (i *TraitMethodItem) ModulePath() string       { return i.Module }
func (i *ConstructorItem) ModulePath() string       { return i.Module }
func (i *RecordItem) ModulePath() string            { return i.Module }
func (i *EnumItem) ModulePath() string              { return i.Module }
func (i *ObjectItem) ModulePath() string            { return i.Module }
func (i *CallbackInterfaceItem) ModulePath() string { return i.Module }
func (i *CustomTypeItem) ModulePath() string        { return i.Module }

// Identifier returns the reachability key of records and enums
func Identifier(item Item) (ItemIdentifier, bool) {
	switch it := item.(type) {
	case *RecordItem:
		return ItemIdentifier{ModulePath: it.Module, Name: it.Name}, true
	case *EnumItem:
		return ItemIdentifier{ModulePath: it.Module, Name: it.Name}, true
	}
	return ItemIdentifier{}, false
}

// Describe returns a short human-readable label such as "record foo::Point"
func Describe(item Item) string {
	name := ""
	switch it := item.(type) {
	case *NamespaceItem:
		name = it.Name
	case *UdlFileItem:
		name = it.FileStub
	case *FuncItem:
		name = it.Name
	case *MethodItem:
		name = it.SelfName + "." + it.Name
	case *TraitMethodItem:
		name = it.TraitName + "." + it.Name
	case *ConstructorItem:
		name = it.SelfName + "." + it.Name
	case *RecordItem:
		name = it.Name
	case *EnumItem:
		name = it.Name
	case *ObjectItem:
		name = it.Name
	case *CallbackInterfaceItem:
		name = it.Name
	case *CustomTypeItem:
		name = it.Name
	}
	return fmt.Sprintf("%s %s::%s", item.Kind(), item.ModulePath(), name)
}

// Fields returns every field of a record or of all variants of an enum
func Fields(item Item) []Field {
	switch it := item.(type) {
	case *RecordItem:
		return it.Fields
	case *EnumItem:
		var out []Field
		for _, v := range it.Variants {
			out = append(out, v.Fields...)
		}
		return out
	}
	return nil
}
