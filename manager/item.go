package manager

import "sort"

// Item is an open property bag. A nil value and a missing key both mean the
// property is absent.
type Item map[string]any

// Clone returns a shallow copy of the item. Cloning nil yields an empty item.
func (i Item) Clone() Item {
	out := make(Item, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Has reports whether the property is present and non-nil.
func (i Item) Has(property string) bool {
	v, ok := i[property]
	return ok && v != nil
}

// PageKeyMap holds the pagination cursor of every shard of every index in
// one query: index token -> hash key value -> page key. A nil page key
// means the shard is exhausted.
type PageKeyMap map[string]map[string]Item

// HasCursor reports whether any shard still has a page key.
func (p PageKeyMap) HasCursor() bool {
	for _, shards := range p {
		for _, pageKey := range shards {
			if pageKey != nil {
				return true
			}
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
