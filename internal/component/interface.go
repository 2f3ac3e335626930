// Package component assembles the per-library component interface that
// binding writers consume.
package component

import (
	"fmt"
	"sort"

	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/group"
	"github.com/toyz/bindgen/internal/metadata"
)

// Object is an object type with its constructors and methods
type Object struct {
	*metadata.ObjectItem
	Constructors []*metadata.ConstructorItem
	Methods      []*metadata.MethodItem
	TraitMethods []*metadata.TraitMethodItem
}

// CallbackInterface is a foreign-implemented interface with its methods
type CallbackInterface struct {
	*metadata.CallbackInterfaceItem
	Methods []*metadata.TraitMethodItem
}

// Interface is the complete public surface of one library
type Interface struct {
	LibraryID          string
	Namespace          string
	NamespaceDocstring string

	Functions          []*metadata.FuncItem
	Records            []*metadata.RecordItem
	Enums              []*metadata.EnumItem
	Objects            []*Object
	CallbackInterfaces []*CallbackInterface
	CustomTypes        []*metadata.CustomTypeItem

	types map[string]metadata.Item // type name -> defining item
	funcs map[string]*metadata.FuncItem
}

// New creates an empty component interface for library
func New(libraryID string) *Interface {
	return &Interface{
		LibraryID: libraryID,
		types:     make(map[string]metadata.Item),
		funcs:     make(map[string]*metadata.FuncItem),
	}
}

// AddMetadata merges a metadata group into the interface. Type definitions
// are added before members so methods find their owners regardless of order.
func (ci *Interface) AddMetadata(g *group.MetadataGroup) error {
	if g.LibraryID() != ci.LibraryID {
		return errors.NewConfigError(ci.LibraryID,
			fmt.Sprintf("metadata group for library '%s' cannot be added", g.LibraryID()))
	}
	if ci.Namespace == "" {
		ci.Namespace = g.Namespace.Name
	} else if ci.Namespace != g.Namespace.Name {
		return errors.NewConfigError(ci.LibraryID,
			fmt.Sprintf("namespace mismatch: '%s' vs '%s'", ci.Namespace, g.Namespace.Name))
	}
	if g.NamespaceDocstring != "" {
		ci.NamespaceDocstring = g.NamespaceDocstring
	}

	items := g.Items.Items()
	for _, item := range items {
		if err := ci.addType(item); err != nil {
			return err
		}
	}
	for _, item := range items {
		if err := ci.addMember(item); err != nil {
			return err
		}
	}
	ci.sort()
	return nil
}

func (ci *Interface) addType(item metadata.Item) error {
	var name string
	switch it := item.(type) {
	case *metadata.RecordItem:
		name = it.Name
	case *metadata.EnumItem:
		name = it.Name
	case *metadata.ObjectItem:
		name = it.Name
	case *metadata.CallbackInterfaceItem:
		name = it.Name
	case *metadata.CustomTypeItem:
		name = it.Name
	default:
		return nil
	}

	if existing, ok := ci.types[name]; ok {
		if metadata.Key(existing) == metadata.Key(item) {
			return nil
		}
		return errors.NewConfigError(ci.LibraryID,
			fmt.Sprintf("conflicting definitions for type '%s': %s and %s",
				name, metadata.Describe(existing), metadata.Describe(item)))
	}
	ci.types[name] = item

	switch it := item.(type) {
	case *metadata.RecordItem:
		ci.Records = append(ci.Records, it)
	case *metadata.EnumItem:
		ci.Enums = append(ci.Enums, it)
	case *metadata.ObjectItem:
		ci.Objects = append(ci.Objects, &Object{ObjectItem: it})
	case *metadata.CallbackInterfaceItem:
		ci.CallbackInterfaces = append(ci.CallbackInterfaces, &CallbackInterface{CallbackInterfaceItem: it})
	case *metadata.CustomTypeItem:
		ci.CustomTypes = append(ci.CustomTypes, it)
	}
	return nil
}

func (ci *Interface) addMember(item metadata.Item) error {
	switch it := item.(type) {
	case *metadata.FuncItem:
		if existing, ok := ci.funcs[it.Name]; ok {
			if metadata.Key(existing) == metadata.Key(it) {
				return nil
			}
			return errors.NewConfigError(ci.LibraryID, fmt.Sprintf("conflicting definitions for function '%s'", it.Name))
		}
		ci.funcs[it.Name] = it
		ci.Functions = append(ci.Functions, it)
	case *metadata.ConstructorItem:
		obj, err := ci.objectFor(it.SelfName, item)
		if err != nil {
			return err
		}
		obj.Constructors = append(obj.Constructors, it)
	case *metadata.MethodItem:
		obj, err := ci.objectFor(it.SelfName, item)
		if err != nil {
			return err
		}
		obj.Methods = append(obj.Methods, it)
	case *metadata.TraitMethodItem:
		if cb := ci.GetCallbackInterface(it.TraitName); cb != nil {
			cb.Methods = append(cb.Methods, it)
			return nil
		}
		obj, err := ci.objectFor(it.TraitName, item)
		if err != nil {
			return err
		}
		obj.TraitMethods = append(obj.TraitMethods, it)
	}
	return nil
}

func (ci *Interface) objectFor(name string, member metadata.Item) (*Object, error) {
	if obj := ci.GetObject(name); obj != nil {
		return obj, nil
	}
	return nil, errors.NewConfigError(ci.LibraryID,
		fmt.Sprintf("%s refers to unknown object '%s'", metadata.Describe(member), name))
}

func (ci *Interface) sort() {
	sort.Slice(ci.Functions, func(i, j int) bool { return ci.Functions[i].Name < ci.Functions[j].Name })
	sort.Slice(ci.Records, func(i, j int) bool { return ci.Records[i].Name < ci.Records[j].Name })
	sort.Slice(ci.Enums, func(i, j int) bool { return ci.Enums[i].Name < ci.Enums[j].Name })
	sort.Slice(ci.CustomTypes, func(i, j int) bool { return ci.CustomTypes[i].Name < ci.CustomTypes[j].Name })
	sort.Slice(ci.Objects, func(i, j int) bool { return ci.Objects[i].Name < ci.Objects[j].Name })
	for _, obj := range ci.Objects {
		sort.Slice(obj.Constructors, func(i, j int) bool { return obj.Constructors[i].Name < obj.Constructors[j].Name })
		sort.Slice(obj.Methods, func(i, j int) bool { return obj.Methods[i].Name < obj.Methods[j].Name })
		sort.Slice(obj.TraitMethods, func(i, j int) bool { return obj.TraitMethods[i].Index < obj.TraitMethods[j].Index })
	}
	sort.Slice(ci.CallbackInterfaces, func(i, j int) bool { return ci.CallbackInterfaces[i].Name < ci.CallbackInterfaces[j].Name })
	for _, cb := range ci.CallbackInterfaces {
		sort.Slice(cb.Methods, func(i, j int) bool { return cb.Methods[i].Index < cb.Methods[j].Index })
	}
}

// GetObject returns the object named name, or nil
func (ci *Interface) GetObject(name string) *Object {
	for _, obj := range ci.Objects {
		if obj.Name == name {
			return obj
		}
	}
	return nil
}

// GetCallbackInterface returns the callback interface named name, or nil
func (ci *Interface) GetCallbackInterface(name string) *CallbackInterface {
	for _, cb := range ci.CallbackInterfaces {
		if cb.Name == name {
			return cb
		}
	}
	return nil
}

// GetEnum returns the enum named name, or nil
func (ci *Interface) GetEnum(name string) *metadata.EnumItem {
	for _, e := range ci.Enums {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// IsErrorType reports whether t is thrown by some function or method
func (ci *Interface) IsErrorType(t metadata.Type) bool {
	for _, thrown := range ci.thrownTypes() {
		if thrown.Name == t.Name && thrown.ModulePath == t.ModulePath {
			return true
		}
	}
	return false
}

func (ci *Interface) thrownTypes() []metadata.Type {
	var out []metadata.Type
	add := func(t *metadata.Type) {
		if t != nil {
			out = append(out, *t)
		}
	}
	for _, f := range ci.Functions {
		add(f.Throws)
	}
	for _, obj := range ci.Objects {
		for _, c := range obj.Constructors {
			add(c.Throws)
		}
		for _, m := range obj.Methods {
			add(m.Throws)
		}
		for _, m := range obj.TraitMethods {
			add(m.Throws)
		}
	}
	for _, cb := range ci.CallbackInterfaces {
		for _, m := range cb.Methods {
			add(m.Throws)
		}
	}
	return out
}

// IterTypes returns every type occurrence in the interface, nested types included
func (ci *Interface) IterTypes() []metadata.Type {
	var out []metadata.Type
	addAll := func(t metadata.Type) { out = append(out, t.IterTypes()...) }
	addOpt := func(t *metadata.Type) {
		if t != nil {
			addAll(*t)
		}
	}
	addParams := func(params []metadata.Param) {
		for _, p := range params {
			addAll(p.Type)
		}
	}

	for _, f := range ci.Functions {
		addParams(f.Inputs)
		addOpt(f.ReturnType)
		addOpt(f.Throws)
	}
	for _, r := range ci.Records {
		for _, f := range r.Fields {
			addAll(f.Type)
		}
	}
	for _, e := range ci.Enums {
		for _, f := range metadata.Fields(e) {
			addAll(f.Type)
		}
	}
	for _, obj := range ci.Objects {
		for _, c := range obj.Constructors {
			addParams(c.Inputs)
			addOpt(c.Throws)
		}
		for _, m := range obj.Methods {
			addParams(m.Inputs)
			addOpt(m.ReturnType)
			addOpt(m.Throws)
		}
		for _, m := range obj.TraitMethods {
			addParams(m.Inputs)
			addOpt(m.ReturnType)
			addOpt(m.Throws)
		}
	}
	for _, cb := range ci.CallbackInterfaces {
		for _, m := range cb.Methods {
			addParams(m.Inputs)
			addOpt(m.ReturnType)
			addOpt(m.Throws)
		}
	}
	for _, c := range ci.CustomTypes {
		addAll(c.Builtin)
	}
	return out
}

// ExternalTypes returns the distinct external types referenced by the interface
func (ci *Interface) ExternalTypes() []metadata.Type {
	seen := make(map[string]bool)
	var out []metadata.Type
	for _, t := range ci.IterTypes() {
		if t.Kind != metadata.TypeExternal {
			continue
		}
		key := t.Namespace + "." + t.Name
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Namespace != out[j].Namespace {
			return out[i].Namespace < out[j].Namespace
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ExternalNamespaces returns the sorted namespaces of all referenced external types
func (ci *Interface) ExternalNamespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range ci.ExternalTypes() {
		if !seen[t.Namespace] {
			seen[t.Namespace] = true
			out = append(out, t.Namespace)
		}
	}
	return out
}

// Validate checks cross-references the metadata itself cannot express
func (ci *Interface) Validate() error {
	for _, t := range ci.thrownTypes() {
		switch t.Kind {
		case metadata.TypeEnum, metadata.TypeObject, metadata.TypeExternal:
		default:
			return errors.NewConfigError(ci.LibraryID,
				fmt.Sprintf("type %s cannot be used as an error type", t.String()))
		}
	}
	for _, t := range ci.IterTypes() {
		if t.Kind == metadata.TypeExternal && t.Namespace == "" {
			return errors.NewInvariantViolationError("external type %s in library '%s' has no namespace", t.Name, ci.LibraryID)
		}
	}
	return nil
}
