package manager

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jacentio/entitymanager/config"
	"github.com/jacentio/entitymanager/internal/shard"
)

// UpdateHashKey returns a copy of item with its hash key computed.
// An existing hash key is kept unless overwrite is set.
func (m *Manager) UpdateHashKey(entityToken string, item Item, overwrite bool) (Item, error) {
	e, err := m.entity(entityToken)
	if err != nil {
		return nil, err
	}
	out := item.Clone()
	if out.Has(m.config.HashKey) && !overwrite {
		return out, nil
	}

	hashKey, err := m.computeHashKey(entityToken, e, item)
	if err != nil {
		return nil, err
	}
	out[m.config.HashKey] = hashKey

	m.logger.Debug("computed hash key",
		"entity", entityToken,
		"hashKey", hashKey,
	)
	return out, nil
}

// computeHashKey addresses a record by its timestamp and unique property:
// entity token, shard key delimiter, then the suffix of the active bump.
func (m *Manager) computeHashKey(entityToken string, e config.EntityConfig, item Item) (string, error) {
	tsValue, ok := item[e.TimestampProperty]
	if !ok || tsValue == nil {
		return "", fmt.Errorf("%w: %q on entity %q", ErrMissingTimestampProperty, e.TimestampProperty, entityToken)
	}
	ts, err := config.AsInt64(tsValue)
	if err != nil {
		return "", fmt.Errorf("timestamp %q: %w", e.TimestampProperty, err)
	}

	bump := activeBump(e.ShardBumps, ts)
	prefix := entityToken + m.config.ShardKeyDelimiter
	if bump.Chars == 0 {
		return prefix, nil
	}

	unique, present, err := m.EncodeElement(e.UniqueProperty, item)
	if err != nil {
		return "", err
	}
	if !present {
		return "", fmt.Errorf("%w: %q on entity %q", ErrMissingUniqueProperty, e.UniqueProperty, entityToken)
	}
	return prefix + shard.Suffix(unique, bump.CharBits, bump.Chars), nil
}

// activeBump returns the last bump at or before ts. bumps is sorted and
// starts at timestamp 0.
func activeBump(bumps []config.ShardBump, ts int64) config.ShardBump {
	i := sort.Search(len(bumps), func(i int) bool { return bumps[i].Timestamp > ts })
	if i == 0 {
		return bumps[0]
	}
	return bumps[i-1]
}

// HashKeySpace returns every hash key an entity record with a timestamp in
// [fromTimestamp, toTimestamp] could have been given, in bump order then
// suffix order, without duplicates. The result is empty when toTimestamp
// precedes fromTimestamp.
func (m *Manager) HashKeySpace(entityToken string, fromTimestamp, toTimestamp int64) ([]string, error) {
	e, err := m.entity(entityToken)
	if err != nil {
		return nil, err
	}
	space := []string{}
	if toTimestamp < fromTimestamp {
		return space, nil
	}

	prefix := entityToken + m.config.ShardKeyDelimiter
	seen := make(map[string]bool)
	for i, bump := range e.ShardBumps {
		if bump.Timestamp > toTimestamp {
			break
		}
		if i+1 < len(e.ShardBumps) && e.ShardBumps[i+1].Timestamp <= fromTimestamp {
			continue
		}
		suffixes, err := shard.Space(bump.CharBits, bump.Chars)
		if err != nil {
			return nil, fmt.Errorf("entity %q bump at %d: %w", entityToken, bump.Timestamp, err)
		}
		for _, suffix := range suffixes {
			if hashKey := prefix + suffix; !seen[hashKey] {
				seen[hashKey] = true
				space = append(space, hashKey)
			}
		}
	}
	return space, nil
}

// indexHashKeySpace maps the entity's hash key space onto the partition
// values of an index hash key. A sharded generated hash key is completed
// from item.
func (m *Manager) indexHashKeySpace(entityToken, hashKeyToken string, item Item, fromTimestamp, toTimestamp int64) ([]string, error) {
	space, err := m.HashKeySpace(entityToken, fromTimestamp, toTimestamp)
	if err != nil {
		return nil, err
	}
	if hashKeyToken == m.config.HashKey {
		sort.Strings(space)
		return space, nil
	}

	base := item.Clone()
	values := make([]string, 0, len(space))
	for _, hashKey := range space {
		base[m.config.HashKey] = hashKey
		value, ok, err := m.EncodeGeneratedProperty(hashKeyToken, base)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %q needs %v", ErrMissingHashKeyComponent,
				hashKeyToken, m.config.GeneratedProperties[hashKeyToken].Elements)
		}
		values = append(values, value)
	}
	sort.Strings(values)
	return values, nil
}

// EntityTokenFromHashKey returns the entity token a hash key value addresses.
func (m *Manager) EntityTokenFromHashKey(hashKey string) (string, error) {
	token, _, found := strings.Cut(hashKey, m.config.ShardKeyDelimiter)
	if !found {
		return "", fmt.Errorf("%w: hash key %q has no shard key delimiter", ErrInvalidEntityToken, hashKey)
	}
	if _, err := m.entity(token); err != nil {
		return "", err
	}
	return token, nil
}

// IsShardSpaceTooLarge reports whether err came from enumerating an address
// space beyond shard.MaxSpaceBits.
func IsShardSpaceTooLarge(err error) bool {
	return errors.Is(err, ErrShardSpaceTooLarge)
}
