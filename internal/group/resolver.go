package group

import (
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/metadata"
)

// Resolver rewrites every type owned by another library into an external
// type annotated with that library's public namespace.
type Resolver struct {
	library       string
	groups        Map
	referenceFree ReferenceFreeSet
}

// NewResolver creates a resolver for items owned by library
func NewResolver(library string, groups Map, referenceFree ReferenceFreeSet) *Resolver {
	return &Resolver{
		library:       library,
		groups:        groups,
		referenceFree: referenceFree,
	}
}

// ResolveItem returns a copy of item with every type occurrence resolved.
// Items without types are returned unchanged.
func (r *Resolver) ResolveItem(item metadata.Item) (metadata.Item, error) {
	var err error
	switch it := item.(type) {
	case *metadata.FuncItem:
		out := *it
		if out.Inputs, err = r.resolveParams(it.Inputs); err != nil {
			return nil, err
		}
		if out.ReturnType, err = r.resolveOptional(it.ReturnType); err != nil {
			return nil, err
		}
		if out.Throws, err = r.resolveOptional(it.Throws); err != nil {
			return nil, err
		}
		return &out, nil
	case *metadata.MethodItem:
		out := *it
		if out.Inputs, err = r.resolveParams(it.Inputs); err != nil {
			return nil, err
		}
		if out.ReturnType, err = r.resolveOptional(it.ReturnType); err != nil {
			return nil, err
		}
		if out.Throws, err = r.resolveOptional(it.Throws); err != nil {
			return nil, err
		}
		return &out, nil
	case *metadata.TraitMethodItem:
		out := *it
		if out.Inputs, err = r.resolveParams(it.Inputs); err != nil {
			return nil, err
		}
		if out.ReturnType, err = r.resolveOptional(it.ReturnType); err != nil {
			return nil, err
		}
		if out.Throws, err = r.resolveOptional(it.Throws); err != nil {
			return nil, err
		}
		return &out, nil
	case *metadata.ConstructorItem:
		out := *it
		if out.Inputs, err = r.resolveParams(it.Inputs); err != nil {
			return nil, err
		}
		if out.Throws, err = r.resolveOptional(it.Throws); err != nil {
			return nil, err
		}
		return &out, nil
	case *metadata.RecordItem:
		out := *it
		if out.Fields, err = r.resolveFields(it.Fields); err != nil {
			return nil, err
		}
		return &out, nil
	case *metadata.EnumItem:
		out := *it
		if it.Variants != nil {
			out.Variants = make([]metadata.Variant, len(it.Variants))
		}
		for i, v := range it.Variants {
			out.Variants[i] = v
			if out.Variants[i].Fields, err = r.resolveFields(v.Fields); err != nil {
				return nil, err
			}
		}
		return &out, nil
	}
	return item, nil
}

func (r *Resolver) resolveParams(params []metadata.Param) ([]metadata.Param, error) {
	if params == nil {
		return nil, nil
	}
	out := make([]metadata.Param, len(params))
	for i, p := range params {
		ty, err := r.ResolveType(p.Type)
		if err != nil {
			return nil, err
		}
		out[i] = metadata.Param{Name: p.Name, Type: ty}
	}
	return out, nil
}

func (r *Resolver) resolveFields(fields []metadata.Field) ([]metadata.Field, error) {
	if fields == nil {
		return nil, nil
	}
	out := make([]metadata.Field, len(fields))
	for i, f := range fields {
		ty, err := r.ResolveType(f.Type)
		if err != nil {
			return nil, err
		}
		out[i] = f
		out[i].Type = ty
	}
	return out, nil
}

func (r *Resolver) resolveOptional(t *metadata.Type) (*metadata.Type, error) {
	if t == nil {
		return nil, nil
	}
	ty, err := r.ResolveType(*t)
	if err != nil {
		return nil, err
	}
	return &ty, nil
}

// ResolveType rewrites t and every type nested inside it
func (r *Resolver) ResolveType(t metadata.Type) (metadata.Type, error) {
	switch t.Kind {
	case metadata.TypeRecord, metadata.TypeEnum:
		if r.isExternal(t.ModulePath) {
			id := metadata.ItemIdentifier{ModulePath: t.ModulePath, Name: t.Name}
			return r.external(t, metadata.ExternalDataClass, !r.referenceFree.Contains(id))
		}
	case metadata.TypeCustom:
		if r.isExternal(t.ModulePath) {
			// custom representations are never analyzed
			return r.external(t, metadata.ExternalDataClass, true)
		}
	case metadata.TypeObject:
		if r.isExternal(t.ModulePath) {
			return r.external(t, metadata.ExternalInterface, true)
		}
	case metadata.TypeCallbackInterface:
		if r.isExternal(t.ModulePath) {
			return metadata.Type{}, errors.NewUnsupportedCrossLibraryTypeError(r.library, "callback interface", t.ModulePath, t.Name)
		}
	case metadata.TypeExternal:
		return r.restamp(t)
	}

	switch t.Kind {
	case metadata.TypeCustom, metadata.TypeOptional, metadata.TypeSequence:
		out := t
		var err error
		if t.Builtin != nil {
			if out.Builtin, err = r.resolveOptional(t.Builtin); err != nil {
				return metadata.Type{}, err
			}
		}
		if t.Inner != nil {
			if out.Inner, err = r.resolveOptional(t.Inner); err != nil {
				return metadata.Type{}, err
			}
		}
		return out, nil
	case metadata.TypeMap:
		out := t
		var err error
		if out.Key, err = r.resolveOptional(t.Key); err != nil {
			return metadata.Type{}, err
		}
		if out.Value, err = r.resolveOptional(t.Value); err != nil {
			return metadata.Type{}, err
		}
		return out, nil
	}
	return t, nil
}

// restamp fills in the namespace of an external type built before all
// libraries were known. Re-stamping an already resolved type with the same
// namespace is a no-op.
func (r *Resolver) restamp(t metadata.Type) (metadata.Type, error) {
	namespace, err := r.namespaceOf(t.ModulePath)
	if err != nil {
		return metadata.Type{}, err
	}
	if t.Namespace != "" && t.Namespace != namespace {
		return metadata.Type{}, errors.NewInvariantViolationError(
			"external type %s already resolved to namespace '%s', expected '%s'", t.Name, t.Namespace, namespace)
	}
	out := t
	out.Namespace = namespace
	return out, nil
}

func (r *Resolver) external(t metadata.Type, kind metadata.ExternalKind, containsObjectReferences bool) (metadata.Type, error) {
	namespace, err := r.namespaceOf(t.ModulePath)
	if err != nil {
		return metadata.Type{}, err
	}
	return metadata.External(namespace, t.ModulePath, t.Name, kind, containsObjectReferences), nil
}

func (r *Resolver) namespaceOf(modulePath string) (string, error) {
	library := metadata.LibraryName(modulePath)
	namespace, ok := r.groups.Namespace(library)
	if !ok {
		return "", errors.NewNamespaceResolutionError(library, "")
	}
	if namespace == "" {
		return "", errors.NewInvariantViolationError("library '%s' has an empty namespace", library)
	}
	return namespace, nil
}

func (r *Resolver) isExternal(modulePath string) bool {
	return metadata.LibraryName(modulePath) != r.library
}
