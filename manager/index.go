package manager

import (
	"fmt"
	"sort"
	"strings"
)

// UnwrapIndex returns the sorted, deduplicated element names that identify
// an item in an index, minus any names in exclude. The table hash key is
// kept as is, the table range key becomes the entity's unique property and
// a generated property becomes its elements (plus the hash key if sharded).
// The table key is always included so that a page key taken from a
// secondary index still addresses one row.
func (m *Manager) UnwrapIndex(entityToken, indexToken string, exclude ...string) ([]string, error) {
	e, err := m.entity(entityToken)
	if err != nil {
		return nil, err
	}
	idx, err := m.index(indexToken)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, component := range []string{m.config.HashKey, m.config.RangeKey, idx.HashKey, idx.RangeKey} {
		switch gp, generated := m.config.GeneratedProperties[component]; {
		case component == m.config.HashKey:
			seen[m.config.HashKey] = true
		case component == m.config.RangeKey:
			seen[e.UniqueProperty] = true
		case generated:
			if gp.Sharded {
				seen[m.config.HashKey] = true
			}
			for _, element := range gp.Elements {
				seen[element] = true
			}
		default:
			seen[component] = true
		}
	}
	for _, name := range exclude {
		delete(seen, name)
	}

	elements := make([]string, 0, len(seen))
	for name := range seen {
		elements = append(elements, name)
	}
	sort.Strings(elements)
	return elements, nil
}

// DehydrateIndexItem encodes the index elements of item (hash key excluded)
// in canonical order, joined by the generated value delimiter. A nil item
// dehydrates to the empty string.
func (m *Manager) DehydrateIndexItem(entityToken, indexToken string, item Item) (string, error) {
	elements, err := m.UnwrapIndex(entityToken, indexToken, m.config.HashKey)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", nil
	}

	values := make([]string, len(elements))
	for i, element := range elements {
		if values[i], _, err = m.EncodeElement(element, item); err != nil {
			return "", err
		}
		if err := m.checkDelimiters(element, values[i], m.config.GeneratedValueDelimiter); err != nil {
			return "", fmt.Errorf("index %q: %w", indexToken, err)
		}
	}
	return strings.Join(values, m.config.GeneratedValueDelimiter), nil
}

// RehydrateIndexItem is the inverse of DehydrateIndexItem. Empty values
// are left absent.
func (m *Manager) RehydrateIndexItem(entityToken, indexToken, dehydrated string) (Item, error) {
	elements, err := m.UnwrapIndex(entityToken, indexToken, m.config.HashKey)
	if err != nil {
		return nil, err
	}

	values := strings.Split(dehydrated, m.config.GeneratedValueDelimiter)
	if len(values) != len(elements) {
		return nil, fmt.Errorf("%w: index %q expects %d values, got %d",
			ErrIndexRehydrationMismatch, indexToken, len(elements), len(values))
	}

	out := Item{}
	for i, element := range elements {
		v, err := m.DecodeElement(element, values[i])
		if err != nil {
			return nil, err
		}
		if v != nil {
			out[element] = v
		}
	}
	return out, nil
}
