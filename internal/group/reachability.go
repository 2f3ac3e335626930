package group

import "github.com/toyz/bindgen/internal/metadata"

// ReferenceFreeSet holds the records and enums proven to contain no object
// handle anywhere in their transitive field closure. Absence means "contains
// a reference or unknown".
type ReferenceFreeSet map[metadata.ItemIdentifier]struct{}

// Contains reports whether id was proven reference-free
func (s ReferenceFreeSet) Contains(id metadata.ItemIdentifier) bool {
	_, ok := s[id]
	return ok
}

type reachability struct {
	index      map[metadata.ItemIdentifier]metadata.Item
	memo       ReferenceFreeSet
	inProgress map[metadata.ItemIdentifier]bool
}

// ComputeTypesWithoutObjectReferences classifies every record and enum in
// items and returns the set of those proven reference-free.
func ComputeTypesWithoutObjectReferences(items []metadata.Item) ReferenceFreeSet {
	r := &reachability{
		index: make(map[metadata.ItemIdentifier]metadata.Item),
		memo:  make(ReferenceFreeSet),
	}

	var ids []metadata.ItemIdentifier
	for _, item := range items {
		if id, ok := metadata.Identifier(item); ok {
			r.index[id] = item
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		r.inProgress = make(map[metadata.ItemIdentifier]bool)
		r.containsReferences(id)
	}
	return r.memo
}

// containsReferences only memoizes negative answers. A node revisited while
// still on the stack answers positive, so cycles terminate and are reported
// as containing a reference.
func (r *reachability) containsReferences(id metadata.ItemIdentifier) bool {
	if r.memo.Contains(id) {
		return false
	}
	item, ok := r.index[id]
	if !ok {
		return true
	}
	if r.inProgress[id] {
		return true
	}
	r.inProgress[id] = true
	defer delete(r.inProgress, id)

	found := false
	for _, field := range metadata.Fields(item) {
		if r.typeContainsReferences(field.Type) {
			found = true
			break
		}
	}

	if !found {
		r.memo[id] = struct{}{}
	}
	return found
}

func (r *reachability) typeContainsReferences(t metadata.Type) bool {
	for _, ty := range t.IterTypes() {
		switch ty.Kind {
		case metadata.TypeObject:
			return true
		case metadata.TypeRecord, metadata.TypeEnum, metadata.TypeExternal:
			id, _ := ty.Identifier()
			if r.containsReferences(id) {
				return true
			}
		}
	}
	return false
}
