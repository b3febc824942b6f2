package manager

import (
	"fmt"
	"strings"
)

// EncodeGeneratedProperty composes a generated property from item.
//
// The value is the hash key (sharded properties only) followed by one
// name/value segment per present element, joined by the generated key
// delimiter. A sharded property is all or nothing: if the hash key or any
// element is absent, the result is absent. An unsharded property skips
// absent elements and is absent only when every element is.
func (m *Manager) EncodeGeneratedProperty(property string, item Item) (encoded string, ok bool, err error) {
	gp, found := m.config.GeneratedProperties[property]
	if !found {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidGeneratedProperty, property)
	}

	segments := make([]string, 0, len(gp.Elements)+1)
	if gp.Sharded {
		hashKey, present, err := m.EncodeElement(m.config.HashKey, item)
		if err != nil {
			return "", false, err
		}
		if !present {
			return "", false, nil
		}
		if err := m.checkDelimiters(m.config.HashKey, hashKey, m.config.GeneratedKeyDelimiter); err != nil {
			return "", false, fmt.Errorf("generated property %q: %w", property, err)
		}
		segments = append(segments, hashKey)
	}

	for _, element := range gp.Elements {
		value, present, err := m.EncodeElement(element, item)
		if err != nil {
			return "", false, err
		}
		if !present {
			if gp.Sharded {
				return "", false, nil
			}
			continue
		}
		if err := m.checkDelimiters(element, value, m.config.GeneratedKeyDelimiter, m.config.GeneratedValueDelimiter); err != nil {
			return "", false, fmt.Errorf("generated property %q: %w", property, err)
		}
		segments = append(segments, element+m.config.GeneratedValueDelimiter+value)
	}

	if len(segments) == 0 {
		return "", false, nil
	}
	return strings.Join(segments, m.config.GeneratedKeyDelimiter), true, nil
}

// DecodeGeneratedProperty splits a generated property value back into its
// hash key and element values. The first segment is taken as the hash key
// when it is a shard address: it holds the shard key delimiter but no
// generated value delimiter.
func (m *Manager) DecodeGeneratedProperty(encoded string) (Item, error) {
	if encoded == "" {
		return Item{}, nil
	}
	segments := strings.Split(encoded, m.config.GeneratedKeyDelimiter)
	sharded := strings.Contains(segments[0], m.config.ShardKeyDelimiter) &&
		!strings.Contains(segments[0], m.config.GeneratedValueDelimiter)
	return m.decodeSegments(encoded, segments, sharded)
}

// decodeGenerated decodes a value of a known generated property, so the
// hash key segment is recognized by the property's definition alone.
func (m *Manager) decodeGenerated(property, encoded string) (Item, error) {
	gp, found := m.config.GeneratedProperties[property]
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGeneratedProperty, property)
	}
	if encoded == "" {
		return Item{}, nil
	}
	return m.decodeSegments(encoded, strings.Split(encoded, m.config.GeneratedKeyDelimiter), gp.Sharded)
}

func (m *Manager) decodeSegments(encoded string, segments []string, sharded bool) (Item, error) {
	out := Item{}
	if sharded {
		out[m.config.HashKey] = segments[0]
		segments = segments[1:]
	}

	for _, segment := range segments {
		parts := strings.Split(segment, m.config.GeneratedValueDelimiter)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: segment %q of %q", ErrInvalidGeneratedPropertyValue, segment, encoded)
		}
		v, err := m.DecodeElement(parts[0], parts[1])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidGeneratedPropertyValue, err)
		}
		if v != nil {
			out[parts[0]] = v
		}
	}
	return out, nil
}

// checkDelimiters fails when an encoded value holds a delimiter it will
// later be split on.
func (m *Manager) checkDelimiters(property, value string, delimiters ...string) error {
	for _, d := range delimiters {
		if strings.Contains(value, d) {
			return fmt.Errorf("%w: %q value %q contains delimiter %q", ErrInvalidGeneratedPropertyValue, property, value, d)
		}
	}
	return nil
}
