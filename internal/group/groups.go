// Package group partitions flat metadata into per-library groups and
// rewrites cross-library type references into external types.
package group

import (
	"github.com/toyz/bindgen/internal/errors"
	"github.com/toyz/bindgen/internal/metadata"
)

// MetadataGroup holds the items belonging to one library
type MetadataGroup struct {
	Namespace          metadata.NamespaceItem
	NamespaceDocstring string
	Items              *metadata.ItemSet
}

// NewMetadataGroup creates an empty group for namespace
func NewMetadataGroup(namespace metadata.NamespaceItem) *MetadataGroup {
	return &MetadataGroup{
		Namespace: namespace,
		Items:     metadata.NewItemSet(),
	}
}

// LibraryID returns the internal identifier of the group's library
func (g *MetadataGroup) LibraryID() string {
	return g.Namespace.Library
}

// Add inserts item, failing on structural duplicates
func (g *MetadataGroup) Add(item metadata.Item) error {
	if !g.Items.Add(item) {
		return errors.NewDuplicateItemError(g.LibraryID(), metadata.Describe(item))
	}
	return nil
}

// Map associates library identifiers with their groups
type Map map[string]*MetadataGroup

// Namespace returns the public namespace name of library
func (m Map) Namespace(library string) (string, bool) {
	g, ok := m[library]
	if !ok {
		return "", false
	}
	return g.Namespace.Name, true
}

// CreateGroups materializes one empty group per namespace or legacy
// interface file marker, keyed by internal library identifier.
func CreateGroups(items []metadata.Item) Map {
	groups := make(Map)
	for _, item := range items {
		switch it := item.(type) {
		case *metadata.NamespaceItem:
			groups[it.Library] = NewMetadataGroup(*it)
		case *metadata.UdlFileItem:
			groups[it.Module] = NewMetadataGroup(metadata.NamespaceItem{
				Library: it.Module,
				Name:    it.Namespace,
			})
		}
	}
	return groups
}

// AssignItems resolves every non-namespace item against groups and adds it
// to its library's group. Nothing is inserted unless every item succeeds.
func AssignItems(groups Map, items []metadata.Item, referenceFree ReferenceFreeSet) error {
	type staged struct {
		group *MetadataGroup
		item  metadata.Item
	}

	pending := make([]staged, 0, len(items))
	seen := make(map[string]*metadata.ItemSet)

	for _, item := range items {
		if _, ok := item.(*metadata.NamespaceItem); ok {
			continue
		}

		library := metadata.LibraryName(item.ModulePath())
		g, ok := groups[library]
		if !ok {
			return errors.NewNamespaceResolutionError(library, metadata.Describe(item))
		}

		resolved, err := NewResolver(library, groups, referenceFree).ResolveItem(item)
		if err != nil {
			return err
		}

		batch, ok := seen[library]
		if !ok {
			batch = metadata.NewItemSet()
			seen[library] = batch
		}
		if g.Items.Contains(resolved) || !batch.Add(resolved) {
			return errors.NewDuplicateItemError(library, metadata.Describe(resolved))
		}
		pending = append(pending, staged{group: g, item: resolved})
	}

	for _, p := range pending {
		p.group.Items.Add(p.item)
	}
	return nil
}

// GroupMetadata runs the full grouping pass: create groups, compute the
// reference-free set over all items, then assign resolved items.
func GroupMetadata(items []metadata.Item) (Map, error) {
	groups := CreateGroups(items)
	referenceFree := ComputeTypesWithoutObjectReferences(items)
	if err := AssignItems(groups, items, referenceFree); err != nil {
		return nil, err
	}
	return groups, nil
}
