package manager

import "fmt"

// UpdateRangeKey returns a copy of item with its range key set to the
// unique property name and encoded value joined by the generated value
// delimiter. An existing range key is kept unless overwrite is set.
func (m *Manager) UpdateRangeKey(entityToken string, item Item, overwrite bool) (Item, error) {
	e, err := m.entity(entityToken)
	if err != nil {
		return nil, err
	}
	out := item.Clone()
	if out.Has(m.config.RangeKey) && !overwrite {
		return out, nil
	}

	unique, present, err := m.EncodeElement(e.UniqueProperty, item)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, fmt.Errorf("%w: %q on entity %q", ErrMissingUniqueProperty, e.UniqueProperty, entityToken)
	}
	out[m.config.RangeKey] = e.UniqueProperty + m.config.GeneratedValueDelimiter + unique
	return out, nil
}
