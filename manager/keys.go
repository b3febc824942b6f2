package manager

import (
	"fmt"
)

// AddKeys returns a copy of item with its hash key, range key and every
// generated property applied. Generated properties that cannot be composed
// from item are removed so stale values never survive an update.
func (m *Manager) AddKeys(entityToken string, item Item, overwrite bool) (Item, error) {
	out, err := m.UpdateHashKey(entityToken, item, overwrite)
	if err != nil {
		return nil, err
	}
	if out, err = m.UpdateRangeKey(entityToken, out, overwrite); err != nil {
		return nil, err
	}

	for _, property := range sortedKeys(m.config.GeneratedProperties) {
		value, ok, err := m.EncodeGeneratedProperty(property, out)
		if err != nil {
			return nil, err
		}
		if ok {
			out[property] = value
		} else {
			delete(out, property)
		}
	}

	m.logger.Debug("added keys",
		"entity", entityToken,
		"hashKey", out[m.config.HashKey],
		"rangeKey", out[m.config.RangeKey],
	)
	return out, nil
}

// RemoveKeys returns a copy of item without its hash key, range key or
// generated properties.
func (m *Manager) RemoveKeys(entityToken string, item Item) (Item, error) {
	if _, err := m.entity(entityToken); err != nil {
		return nil, err
	}
	out := item.Clone()
	delete(out, m.config.HashKey)
	delete(out, m.config.RangeKey)
	for property := range m.config.GeneratedProperties {
		delete(out, property)
	}
	return out, nil
}

// GetPrimaryKey returns only the hash key and range key of item, deriving
// whichever are missing (or both, with overwrite).
func (m *Manager) GetPrimaryKey(entityToken string, item Item, overwrite bool) (Item, error) {
	keyed, err := m.UpdateHashKey(entityToken, item, overwrite)
	if err != nil {
		return nil, err
	}
	if keyed, err = m.UpdateRangeKey(entityToken, keyed, overwrite); err != nil {
		return nil, err
	}
	return Item{
		m.config.HashKey:  keyed[m.config.HashKey],
		m.config.RangeKey: keyed[m.config.RangeKey],
	}, nil
}

// FindIndexToken returns the token of the index declared with the given
// hash and range key components.
func (m *Manager) FindIndexToken(hashKeyToken, rangeKeyToken string) (string, error) {
	for _, token := range sortedKeys(m.config.Indexes) {
		idx := m.config.Indexes[token]
		if idx.HashKey == hashKeyToken && idx.RangeKey == rangeKeyToken {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: no index on (%q, %q)", ErrInvalidIndexToken, hashKeyToken, rangeKeyToken)
}
