package manager

import (
	"fmt"
)

// EncodeElement encodes the value of property in item to its wire form.
// Hash and range key values pass through unchanged; every other property is
// encoded by its transcode. ok is false when the value is absent.
func (m *Manager) EncodeElement(property string, item Item) (encoded string, ok bool, err error) {
	v, present := item[property]
	if !present || v == nil {
		return "", false, nil
	}

	if m.isKey(property) {
		s, isString := v.(string)
		if !isString {
			return "", false, fmt.Errorf("%w: key property %q must be a string, got %T", ErrInvalidTranscodeValue, property, v)
		}
		return s, true, nil
	}

	tc, found := m.config.Transcode(property)
	if !found {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidTranscodedProperty, property)
	}
	encoded, err = tc.Encode(v)
	if err != nil {
		return "", false, fmt.Errorf("encode %q: %w", property, err)
	}
	return encoded, true, nil
}

// DecodeElement is the inverse of EncodeElement. An empty wire value decodes
// to nil (absent).
func (m *Manager) DecodeElement(property, encoded string) (any, error) {
	if encoded == "" {
		return nil, nil
	}
	if m.isKey(property) {
		return encoded, nil
	}

	tc, found := m.config.Transcode(property)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTranscodedProperty, property)
	}
	v, err := tc.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", property, err)
	}
	return v, nil
}
