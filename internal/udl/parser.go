package udl

import (
	stderrors "errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/group"
	"github.com/toyz/bindgen/internal/metadata"
)

// Parser turns interface definition text into a metadata group
type Parser struct{}

// NewParser creates a new interface definition parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses text as the interface definition of libraryID
func (p *Parser) Parse(text, libraryID string) (*group.MetadataGroup, error) {
	file, err := fileParser.ParseString(libraryID+".udl", text)
	if err != nil {
		var perr participle.Error
		if stderrors.As(err, &perr) {
			return nil, errors.NewParseError(libraryID, location(perr.Position()), perr.Message())
		}
		return nil, errors.NewParseError(libraryID, errors.SourceLocation{}, err.Error())
	}

	b := &builder{
		library:   libraryID,
		decls:     make(map[string]*decl),
		resolving: make(map[string]bool),
	}
	return b.build(file)
}

func location(pos lexer.Position) errors.SourceLocation {
	return errors.SourceLocation{File: pos.Filename, Line: pos.Line, Column: pos.Column}
}

type declKind int

const (
	declRecord declKind = iota
	declEnum
	declObject
	declCallback
	declCustom
	declExternal
)

type decl struct {
	kind         declKind
	builtin      *TypeRef
	externalLib  string
	externalKind metadata.ExternalKind
}

type builder struct {
	library   string
	decls     map[string]*decl
	resolving map[string]bool
}

func (b *builder) errorf(pos lexer.Position, format string, args ...interface{}) error {
	return errors.NewParseError(b.library, location(pos), fmt.Sprintf(format, args...))
}

func attr(attrs []*Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			if a.Value == nil {
				return "", true
			}
			return *a.Value, true
		}
	}
	return "", false
}

func (b *builder) declare(pos lexer.Position, name string, d *decl) error {
	if _, exists := b.decls[name]; exists {
		return b.errorf(pos, "duplicate definition of '%s'", name)
	}
	b.decls[name] = d
	return nil
}

// collect records every declared type name before any type is resolved
func (b *builder) collect(file *File) (*Definition, error) {
	var ns *Definition
	for _, def := range file.Definitions {
		switch {
		case def.Namespace != nil:
			if ns != nil {
				return nil, b.errorf(def.Pos, "duplicate namespace declaration '%s'", def.Namespace.Name)
			}
			ns = def
		case def.Dictionary != nil:
			if err := b.declare(def.Pos, def.Dictionary.Name, &decl{kind: declRecord}); err != nil {
				return nil, err
			}
		case def.Enum != nil:
			if err := b.declare(def.Pos, def.Enum.Name, &decl{kind: declEnum}); err != nil {
				return nil, err
			}
		case def.Callback != nil:
			if err := b.declare(def.Pos, def.Callback.Name, &decl{kind: declCallback}); err != nil {
				return nil, err
			}
		case def.Interface != nil:
			kind := declObject
			if isEnumInterface(def.Attributes) {
				kind = declEnum
			}
			if err := b.declare(def.Pos, def.Interface.Name, &decl{kind: kind}); err != nil {
				return nil, err
			}
		case def.Typedef != nil:
			d, err := b.typedefDecl(def)
			if err != nil {
				return nil, err
			}
			if err := b.declare(def.Pos, def.Typedef.Name, d); err != nil {
				return nil, err
			}
		}
	}
	if ns == nil {
		return nil, b.errorf(lexer.Position{}, "missing namespace declaration")
	}
	return ns, nil
}

func (b *builder) typedefDecl(def *Definition) (*decl, error) {
	td := def.Typedef
	if td.Extern {
		if lib, ok := attr(def.Attributes, "External"); ok {
			return &decl{kind: declExternal, externalLib: lib, externalKind: metadata.ExternalDataClass}, nil
		}
		if lib, ok := attr(def.Attributes, "ExternalInterface"); ok {
			return &decl{kind: declExternal, externalLib: lib, externalKind: metadata.ExternalInterface}, nil
		}
		return nil, b.errorf(def.Pos, "typedef extern '%s' requires [External] or [ExternalInterface]", td.Name)
	}
	if _, ok := attr(def.Attributes, "Custom"); !ok {
		return nil, b.errorf(def.Pos, "typedef '%s' requires the [Custom] attribute", td.Name)
	}
	return &decl{kind: declCustom, builtin: td.Builtin}, nil
}

func isEnumInterface(attrs []*Attribute) bool {
	_, isEnum := attr(attrs, "Enum")
	_, isError := attr(attrs, "Error")
	return isEnum || isError
}

func (b *builder) build(file *File) (*group.MetadataGroup, error) {
	ns, err := b.collect(file)
	if err != nil {
		return nil, err
	}

	g := group.NewMetadataGroup(metadata.NamespaceItem{Library: b.library, Name: ns.Namespace.Name})
	var items []metadata.Item

	for _, def := range file.Definitions {
		var built []metadata.Item
		switch {
		case def.Namespace != nil:
			built, err = b.buildFunctions(def.Namespace)
		case def.Dictionary != nil:
			built, err = b.buildRecord(def.Dictionary)
		case def.Enum != nil:
			built = []metadata.Item{b.buildFlatEnum(def)}
		case def.Callback != nil:
			built, err = b.buildCallback(def.Callback)
		case def.Interface != nil && isEnumInterface(def.Attributes):
			built, err = b.buildDataEnum(def)
		case def.Interface != nil:
			built, err = b.buildObject(def)
		case def.Typedef != nil && !def.Typedef.Extern:
			built, err = b.buildCustom(def)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, built...)
	}

	for _, item := range items {
		if err := g.Add(item); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (b *builder) buildFunctions(ns *Namespace) ([]metadata.Item, error) {
	var out []metadata.Item
	for _, m := range ns.Functions {
		if m.Method == nil {
			return nil, b.errorf(m.Pos, "namespace '%s' may only declare functions", ns.Name)
		}
		inputs, ret, throws, err := b.signature(m)
		if err != nil {
			return nil, err
		}
		_, async := attr(m.Attributes, "Async")
		out = append(out, &metadata.FuncItem{
			Module:     b.library,
			Name:       m.Method.Name,
			IsAsync:    async,
			Inputs:     inputs,
			ReturnType: ret,
			Throws:     throws,
		})
	}
	return out, nil
}

func (b *builder) buildRecord(d *Dictionary) ([]metadata.Item, error) {
	rec := &metadata.RecordItem{Module: b.library, Name: d.Name, Fields: []metadata.Field{}}
	for _, f := range d.Fields {
		ty, err := b.resolveType(f.Type, f.Pos)
		if err != nil {
			return nil, err
		}
		field := metadata.Field{Name: f.Name, Type: ty}
		if f.Default != nil {
			field.Default = f.Default.text()
		}
		rec.Fields = append(rec.Fields, field)
	}
	return []metadata.Item{rec}, nil
}

func (l *Literal) text() string {
	switch {
	case l.String != nil:
		return fmt.Sprintf("%q", *l.String)
	case l.Number != nil:
		return *l.Number
	case l.Ident != nil:
		return *l.Ident
	}
	return ""
}

func (b *builder) buildFlatEnum(def *Definition) metadata.Item {
	e := &metadata.EnumItem{Module: b.library, Name: def.Enum.Name, Variants: []metadata.Variant{}}
	if _, ok := attr(def.Attributes, "Error"); ok {
		e.Shape = metadata.EnumShapeError
	}
	for _, v := range def.Enum.Variants {
		e.Variants = append(e.Variants, metadata.Variant{Name: v})
	}
	return e
}

func (b *builder) buildDataEnum(def *Definition) ([]metadata.Item, error) {
	iface := def.Interface
	e := &metadata.EnumItem{Module: b.library, Name: iface.Name, Variants: []metadata.Variant{}}
	if _, ok := attr(def.Attributes, "Error"); ok {
		e.Shape = metadata.EnumShapeError
	}
	for _, m := range iface.Members {
		if m.Variant == nil {
			return nil, b.errorf(m.Pos, "enum interface '%s' may only declare variants", iface.Name)
		}
		fields, err := b.params(m.Variant.Params, m.Pos)
		if err != nil {
			return nil, err
		}
		variant := metadata.Variant{Name: m.Variant.Name}
		for _, p := range fields {
			variant.Fields = append(variant.Fields, metadata.Field{Name: p.Name, Type: p.Type})
		}
		e.Variants = append(e.Variants, variant)
	}
	return []metadata.Item{e}, nil
}

func (b *builder) buildObject(def *Definition) ([]metadata.Item, error) {
	iface := def.Interface
	obj := &metadata.ObjectItem{Module: b.library, Name: iface.Name}
	if _, ok := attr(def.Attributes, "Trait"); ok {
		obj.Imp = metadata.ObjectTrait
	}
	out := []metadata.Item{obj}

	for _, m := range iface.Members {
		_, async := attr(m.Attributes, "Async")
		switch {
		case m.Constructor != nil:
			inputs, err := b.params(m.Constructor.Params, m.Pos)
			if err != nil {
				return nil, err
			}
			throws, err := b.throws(m)
			if err != nil {
				return nil, err
			}
			name := "new"
			if n, ok := attr(m.Attributes, "Name"); ok && n != "" {
				name = n
			}
			out = append(out, &metadata.ConstructorItem{
				Module:   b.library,
				SelfName: iface.Name,
				Name:     name,
				IsAsync:  async,
				Inputs:   inputs,
				Throws:   throws,
			})
		case m.Method != nil:
			inputs, ret, throws, err := b.signature(m)
			if err != nil {
				return nil, err
			}
			selfAttr, _ := attr(m.Attributes, "Self")
			out = append(out, &metadata.MethodItem{
				Module:         b.library,
				SelfName:       iface.Name,
				Name:           m.Method.Name,
				IsAsync:        async,
				Inputs:         inputs,
				ReturnType:     ret,
				Throws:         throws,
				TakesSelfByArc: selfAttr == "ByArc",
			})
		default:
			return nil, b.errorf(m.Pos, "interface '%s' declares variant '%s'; add [Enum] to declare an enum",
				iface.Name, m.Variant.Name)
		}
	}
	return out, nil
}

func (b *builder) buildCallback(cb *Callback) ([]metadata.Item, error) {
	out := []metadata.Item{&metadata.CallbackInterfaceItem{Module: b.library, Name: cb.Name}}
	for i, m := range cb.Members {
		if m.Method == nil {
			return nil, b.errorf(m.Pos, "callback interface '%s' may only declare methods", cb.Name)
		}
		inputs, ret, throws, err := b.signature(m)
		if err != nil {
			return nil, err
		}
		_, async := attr(m.Attributes, "Async")
		out = append(out, &metadata.TraitMethodItem{
			Module:     b.library,
			TraitName:  cb.Name,
			Index:      uint32(i),
			Name:       m.Method.Name,
			IsAsync:    async,
			Inputs:     inputs,
			ReturnType: ret,
			Throws:     throws,
		})
	}
	return out, nil
}

func (b *builder) buildCustom(def *Definition) ([]metadata.Item, error) {
	ty, err := b.resolveNamed(def.Typedef.Name, def.Pos)
	if err != nil {
		return nil, err
	}
	return []metadata.Item{&metadata.CustomTypeItem{
		Module:  b.library,
		Name:    def.Typedef.Name,
		Builtin: *ty.Builtin,
	}}, nil
}

func (b *builder) signature(m *Member) ([]metadata.Param, *metadata.Type, *metadata.Type, error) {
	inputs, err := b.params(m.Method.Params, m.Pos)
	if err != nil {
		return nil, nil, nil, err
	}
	var ret *metadata.Type
	if !m.Method.Void {
		ty, err := b.resolveType(m.Method.Return, m.Pos)
		if err != nil {
			return nil, nil, nil, err
		}
		ret = &ty
	}
	throws, err := b.throws(m)
	if err != nil {
		return nil, nil, nil, err
	}
	return inputs, ret, throws, nil
}

func (b *builder) throws(m *Member) (*metadata.Type, error) {
	name, ok := attr(m.Attributes, "Throws")
	if !ok {
		return nil, nil
	}
	if name == "" {
		return nil, b.errorf(m.Pos, "[Throws] requires an error type")
	}
	ty, err := b.resolveNamed(name, m.Pos)
	if err != nil {
		return nil, err
	}
	return &ty, nil
}

func (b *builder) params(params []*Param, pos lexer.Position) ([]metadata.Param, error) {
	out := make([]metadata.Param, 0, len(params))
	for _, p := range params {
		ty, err := b.resolveType(p.Type, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, metadata.Param{Name: p.Name, Type: ty})
	}
	return out, nil
}

func (b *builder) resolveType(ref *TypeRef, pos lexer.Position) (metadata.Type, error) {
	var (
		ty  metadata.Type
		err error
	)
	switch {
	case ref.Sequence != nil:
		var inner metadata.Type
		if inner, err = b.resolveType(ref.Sequence, pos); err != nil {
			return metadata.Type{}, err
		}
		ty = metadata.Sequence(inner)
	case ref.Map != nil:
		var key, value metadata.Type
		if key, err = b.resolveType(ref.Map.Key, pos); err != nil {
			return metadata.Type{}, err
		}
		if value, err = b.resolveType(ref.Map.Value, pos); err != nil {
			return metadata.Type{}, err
		}
		ty = metadata.Map(key, value)
	default:
		if ty, err = b.resolveNamed(ref.Name, pos); err != nil {
			return metadata.Type{}, err
		}
	}
	if ref.Optional {
		ty = metadata.Optional(ty)
	}
	return ty, nil
}

func (b *builder) resolveNamed(name string, pos lexer.Position) (metadata.Type, error) {
	if kind, ok := metadata.ParsePrimitive(name); ok {
		return metadata.Primitive(kind), nil
	}
	d, ok := b.decls[name]
	if !ok {
		return metadata.Type{}, b.errorf(pos, "unknown type '%s'", name)
	}

	switch d.kind {
	case declRecord:
		return metadata.Record(b.library, name), nil
	case declEnum:
		return metadata.Enum(b.library, name), nil
	case declObject:
		return metadata.Object(b.library, name), nil
	case declCallback:
		return metadata.CallbackInterface(b.library, name), nil
	case declExternal:
		// the namespace is filled in once every library is known
		return metadata.External("", d.externalLib, name, d.externalKind, true), nil
	}

	if b.resolving[name] {
		return metadata.Type{}, b.errorf(pos, "custom type '%s' wraps itself", name)
	}
	b.resolving[name] = true
	defer delete(b.resolving, name)

	builtin, err := b.resolveType(d.builtin, pos)
	if err != nil {
		return metadata.Type{}, err
	}
	return metadata.Custom(b.library, name, builtin), nil
}
