package metadata

import "sort"

// ItemSet is an order-stable set of items that rejects structural duplicates
type ItemSet struct {
	items map[string]Item
}

// NewItemSet creates an empty set
func NewItemSet(items ...Item) *ItemSet {
	s := &ItemSet{items: make(map[string]Item)}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts item and reports whether it was not already present
func (s *ItemSet) Add(item Item) bool {
	key := Key(item)
	if _, exists := s.items[key]; exists {
		return false
	}
	s.items[key] = item
	return true
}

// Contains reports whether a structurally equal item is present
func (s *ItemSet) Contains(item Item) bool {
	_, exists := s.items[Key(item)]
	return exists
}

// Len returns the number of items
func (s *ItemSet) Len() int {
	return len(s.items)
}

// Items returns the items in canonical order
func (s *ItemSet) Items() []Item {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Item, len(keys))
	for i, k := range keys {
		out[i] = s.items[k]
	}
	return out
}

// ItemsOf returns the items of concrete type T in canonical order
func ItemsOf[T Item](s *ItemSet) []T {
	var out []T
	for _, item := range s.Items() {
		if typed, ok := item.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}
