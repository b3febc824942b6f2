package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("entitymanager: invalid config")

// Bounds on shard bump shape.
const (
	MinCharBits = 1
	MaxCharBits = 5
	MaxChars    = 40
)

// Validate fills defaults, normalizes shard bump timelines and checks the
// config for internal consistency. It mutates c in place.
func (c *Config) Validate() error {
	c.applyDefaults()

	if err := c.validateDelimiters(); err != nil {
		return err
	}
	if err := c.validateTranscodes(); err != nil {
		return err
	}
	if err := c.validateGeneratedProperties(); err != nil {
		return err
	}
	if err := c.validateIndexes(); err != nil {
		return err
	}

	tokens := make([]string, 0, len(c.Entities))
	for token := range c.Entities {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for _, token := range tokens {
		entity := c.Entities[token]
		if err := c.normalizeEntity(token, &entity); err != nil {
			return err
		}
		c.Entities[token] = entity
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.HashKey == "" {
		c.HashKey = DefaultHashKey
	}
	if c.RangeKey == "" {
		c.RangeKey = DefaultRangeKey
	}
	if c.GeneratedKeyDelimiter == "" {
		c.GeneratedKeyDelimiter = DefaultGeneratedKeyDelimiter
	}
	if c.GeneratedValueDelimiter == "" {
		c.GeneratedValueDelimiter = DefaultGeneratedValueDelimiter
	}
	if c.ShardKeyDelimiter == "" {
		c.ShardKeyDelimiter = DefaultShardKeyDelimiter
	}
	if c.Throttle < 1 {
		c.Throttle = DefaultThrottle
	}
	if c.Entities == nil {
		c.Entities = map[string]EntityConfig{}
	}
	if c.GeneratedProperties == nil {
		c.GeneratedProperties = map[string]GeneratedProperty{}
	}
	if c.TranscodedProperties == nil {
		c.TranscodedProperties = map[string]string{}
	}
	if c.Indexes == nil {
		c.Indexes = map[string]Index{}
	}
	if c.Transcodes == nil {
		c.Transcodes = DefaultTranscodes()
	}
}

func (c *Config) validateDelimiters() error {
	delims := map[string]string{
		"generatedKeyDelimiter":   c.GeneratedKeyDelimiter,
		"generatedValueDelimiter": c.GeneratedValueDelimiter,
		"shardKeyDelimiter":       c.ShardKeyDelimiter,
	}
	names := []string{"generatedKeyDelimiter", "generatedValueDelimiter", "shardKeyDelimiter"}
	for i, a := range names {
		for _, b := range names[i+1:] {
			if strings.Contains(delims[a], delims[b]) || strings.Contains(delims[b], delims[a]) {
				return fmt.Errorf("%w: %s %q overlaps %s %q", ErrInvalidConfig, a, delims[a], b, delims[b])
			}
		}
	}
	if c.HashKey == c.RangeKey {
		return fmt.Errorf("%w: hashKey and rangeKey are both %q", ErrInvalidConfig, c.HashKey)
	}
	return nil
}

func (c *Config) validateTranscodes() error {
	for property, name := range c.TranscodedProperties {
		if property == c.HashKey || property == c.RangeKey {
			return fmt.Errorf("%w: key property %q cannot be transcoded", ErrInvalidConfig, property)
		}
		if _, ok := c.Transcodes[name]; !ok {
			return fmt.Errorf("%w: property %q uses unknown transcode %q", ErrInvalidConfig, property, name)
		}
	}
	return nil
}

func (c *Config) validateGeneratedProperties() error {
	for name, gp := range c.GeneratedProperties {
		if name == c.HashKey || name == c.RangeKey {
			return fmt.Errorf("%w: generated property %q collides with a key property", ErrInvalidConfig, name)
		}
		if _, ok := c.TranscodedProperties[name]; ok {
			return fmt.Errorf("%w: generated property %q is also transcoded", ErrInvalidConfig, name)
		}
		if len(gp.Elements) == 0 {
			return fmt.Errorf("%w: generated property %q has no elements", ErrInvalidConfig, name)
		}
		seen := make(map[string]bool, len(gp.Elements))
		for _, element := range gp.Elements {
			if seen[element] {
				return fmt.Errorf("%w: generated property %q repeats element %q", ErrInvalidConfig, name, element)
			}
			seen[element] = true
			if _, ok := c.TranscodedProperties[element]; !ok {
				return fmt.Errorf("%w: generated property %q element %q is not transcoded", ErrInvalidConfig, name, element)
			}
		}
	}
	return nil
}

func (c *Config) validateIndexes() error {
	for token, idx := range c.Indexes {
		if idx.HashKey != c.HashKey {
			gp, ok := c.GeneratedProperties[idx.HashKey]
			if !ok || !gp.Sharded {
				return fmt.Errorf("%w: index %q hash key %q is neither %q nor a sharded generated property",
					ErrInvalidConfig, token, idx.HashKey, c.HashKey)
			}
		}
		if idx.RangeKey == c.RangeKey {
			continue
		}
		if _, ok := c.TranscodedProperties[idx.RangeKey]; ok {
			continue
		}
		gp, ok := c.GeneratedProperties[idx.RangeKey]
		if !ok || gp.Sharded {
			return fmt.Errorf("%w: index %q range key %q is neither %q, a transcoded property, nor an unsharded generated property",
				ErrInvalidConfig, token, idx.RangeKey, c.RangeKey)
		}
	}
	return nil
}

func (c *Config) normalizeEntity(token string, e *EntityConfig) error {
	if token == "" {
		return fmt.Errorf("%w: entity token must be non-empty", ErrInvalidConfig)
	}
	for _, d := range []string{c.ShardKeyDelimiter, c.GeneratedKeyDelimiter, c.GeneratedValueDelimiter} {
		if strings.Contains(token, d) {
			return fmt.Errorf("%w: entity token %q must be free of %q", ErrInvalidConfig, token, d)
		}
	}
	if e.DefaultLimit < 1 {
		e.DefaultLimit = DefaultLimit
	}
	if e.DefaultPageSize < 1 {
		e.DefaultPageSize = DefaultPageSize
	}
	if _, ok := c.TranscodedProperties[e.TimestampProperty]; !ok {
		return fmt.Errorf("%w: entity %q timestamp property %q is not transcoded", ErrInvalidConfig, token, e.TimestampProperty)
	}
	if _, ok := c.TranscodedProperties[e.UniqueProperty]; !ok {
		return fmt.Errorf("%w: entity %q unique property %q is not transcoded", ErrInvalidConfig, token, e.UniqueProperty)
	}

	bumps := append([]ShardBump(nil), e.ShardBumps...)
	sort.SliceStable(bumps, func(i, j int) bool { return bumps[i].Timestamp < bumps[j].Timestamp })
	if len(bumps) == 0 || bumps[0].Timestamp != 0 {
		bumps = append([]ShardBump{{Timestamp: 0, CharBits: MinCharBits, Chars: 0}}, bumps...)
	}

	for i, b := range bumps {
		if b.Timestamp < 0 {
			return fmt.Errorf("%w: entity %q shard bump timestamp %d is negative", ErrInvalidConfig, token, b.Timestamp)
		}
		if b.CharBits < MinCharBits || b.CharBits > MaxCharBits {
			return fmt.Errorf("%w: entity %q shard bump at %d has charBits %d outside %d..%d",
				ErrInvalidConfig, token, b.Timestamp, b.CharBits, MinCharBits, MaxCharBits)
		}
		if b.Chars < 0 || b.Chars > MaxChars {
			return fmt.Errorf("%w: entity %q shard bump at %d has chars %d outside 0..%d",
				ErrInvalidConfig, token, b.Timestamp, b.Chars, MaxChars)
		}
		if i == 0 {
			continue
		}
		prev := bumps[i-1]
		if b.Timestamp == prev.Timestamp {
			return fmt.Errorf("%w: entity %q has duplicate shard bump at %d", ErrInvalidConfig, token, b.Timestamp)
		}
		if b.Chars <= prev.Chars {
			return fmt.Errorf("%w: entity %q shard bump at %d must have more chars than the bump at %d",
				ErrInvalidConfig, token, b.Timestamp, prev.Timestamp)
		}
	}
	e.ShardBumps = bumps
	return nil
}
