package manager

import (
	"fmt"
	"sort"
	"strings"
)

// DehydratePageKeyMap flattens a page key map into one string per
// (index, hash key) cell. Index tokens and hash keys are visited in sorted
// order, hash keys taken from the first index. An exhausted cell is the
// empty string, and a map with no cursors left collapses to an empty slice.
func (m *Manager) DehydratePageKeyMap(entityToken string, pageKeyMap PageKeyMap) ([]string, error) {
	if _, err := m.entity(entityToken); err != nil {
		return nil, err
	}
	indexTokens := sortedKeys(pageKeyMap)
	if len(indexTokens) == 0 {
		return []string{}, nil
	}
	hashKeys := sortedKeys(pageKeyMap[indexTokens[0]])

	out := make([]string, 0, len(indexTokens)*len(hashKeys))
	cursors := false
	for _, indexToken := range indexTokens {
		for _, hashKey := range hashKeys {
			pageKey := pageKeyMap[indexToken][hashKey]
			if pageKey == nil {
				out = append(out, "")
				continue
			}
			flat, err := m.flattenPageKey(entityToken, pageKey)
			if err != nil {
				return nil, err
			}
			cell, err := m.DehydrateIndexItem(entityToken, indexToken, flat)
			if err != nil {
				return nil, fmt.Errorf("dehydrate %q cell %q: %w", indexToken, hashKey, err)
			}
			out = append(out, cell)
			cursors = true
		}
	}
	if !cursors {
		return []string{}, nil
	}
	return out, nil
}

// flattenPageKey expands the generated properties and range key of a page
// key into their element values. Plain properties win over decoded ones.
func (m *Manager) flattenPageKey(entityToken string, pageKey Item) (Item, error) {
	flat := Item{}
	for _, property := range sortedKeys(pageKey) {
		s, isString := pageKey[property].(string)
		if !isString {
			continue
		}
		if _, generated := m.config.GeneratedProperties[property]; generated {
			decoded, err := m.decodeGenerated(property, s)
			if err != nil {
				return nil, err
			}
			for k, v := range decoded {
				flat[k] = v
			}
			continue
		}
		if property == m.config.RangeKey {
			name, encoded, found := strings.Cut(s, m.config.GeneratedValueDelimiter)
			if !found {
				return nil, fmt.Errorf("%w: range key %q", ErrInvalidGeneratedPropertyValue, s)
			}
			v, err := m.DecodeElement(name, encoded)
			if err != nil {
				return nil, err
			}
			flat[name] = v
		}
	}

	for property, v := range pageKey {
		if _, generated := m.config.GeneratedProperties[property]; generated || property == m.config.RangeKey {
			continue
		}
		flat[property] = v
	}
	return flat, nil
}

// RehydratePageKeyMap rebuilds the page key map of a query over indexTokens
// from its dehydrated form. A nil dehydrated slice yields a fresh map with
// every cell empty. item supplies the elements of a sharded generated index
// hash key; the timestamps bound the shard space.
func (m *Manager) RehydratePageKeyMap(entityToken string, indexTokens []string, item Item, dehydrated []string, fromTimestamp, toTimestamp int64) (PageKeyMap, error) {
	if _, err := m.entity(entityToken); err != nil {
		return nil, err
	}
	if len(indexTokens) == 0 {
		return nil, fmt.Errorf("%w: no index tokens", ErrInvalidIndexToken)
	}

	tokens := append([]string(nil), indexTokens...)
	sort.Strings(tokens)

	hashKeyToken := ""
	for _, token := range tokens {
		idx, err := m.index(token)
		if err != nil {
			return nil, err
		}
		if hashKeyToken == "" {
			hashKeyToken = idx.HashKey
		} else if idx.HashKey != hashKeyToken {
			return nil, fmt.Errorf("%w: %q and %q", ErrInconsistentHashKeys, hashKeyToken, idx.HashKey)
		}
	}

	hashKeys, err := m.indexHashKeySpace(entityToken, hashKeyToken, item, fromTimestamp, toTimestamp)
	if err != nil {
		return nil, err
	}

	cells := len(tokens) * len(hashKeys)
	if dehydrated == nil {
		dehydrated = make([]string, cells)
	}
	if len(dehydrated) != cells {
		return nil, fmt.Errorf("%w: expected %d cells (%d indexes x %d shards), got %d",
			ErrDehydratedLengthMismatch, cells, len(tokens), len(hashKeys), len(dehydrated))
	}

	out := make(PageKeyMap, len(tokens))
	for i, token := range tokens {
		out[token] = make(map[string]Item, len(hashKeys))
		for j, hashKey := range hashKeys {
			cell := dehydrated[i*len(hashKeys)+j]
			if cell == "" {
				out[token][hashKey] = nil
				continue
			}
			pageKey, err := m.rehydratePageKey(entityToken, token, hashKey, cell)
			if err != nil {
				return nil, fmt.Errorf("rehydrate %q cell %q: %w", token, hashKey, err)
			}
			out[token][hashKey] = pageKey
		}
	}
	return out, nil
}

// rehydratePageKey rebuilds the exclusive start key of one cell: the table
// hash and range keys plus the index's own key properties.
func (m *Manager) rehydratePageKey(entityToken, indexToken, hashKey, cell string) (Item, error) {
	idx, err := m.index(indexToken)
	if err != nil {
		return nil, err
	}
	item, err := m.RehydrateIndexItem(entityToken, indexToken, cell)
	if err != nil {
		return nil, err
	}

	if idx.HashKey == m.config.HashKey {
		item[m.config.HashKey] = hashKey
	} else {
		decoded, err := m.decodeGenerated(idx.HashKey, hashKey)
		if err != nil {
			return nil, err
		}
		for k, v := range decoded {
			item[k] = v
		}
	}

	if item, err = m.UpdateRangeKey(entityToken, item, true); err != nil {
		return nil, err
	}

	pageKey := Item{
		m.config.HashKey:  item[m.config.HashKey],
		m.config.RangeKey: item[m.config.RangeKey],
	}
	for _, component := range []string{idx.HashKey, idx.RangeKey} {
		if _, done := pageKey[component]; done {
			continue
		}
		if _, generated := m.config.GeneratedProperties[component]; generated {
			value, ok, err := m.EncodeGeneratedProperty(component, item)
			if err != nil {
				return nil, err
			}
			if ok {
				pageKey[component] = value
			}
			continue
		}
		if item.Has(component) {
			pageKey[component] = item[component]
		}
	}
	return pageKey, nil
}
