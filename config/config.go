// Package config describes the key schema shared by every entity stored in a
// sharded table: key names, delimiters, per-entity shard bump timelines,
// generated properties, transcodes and secondary indexes.
//
// A Config is built once, validated, and then treated as read-only.
package config

// Default key names, delimiters and limits.
const (
	DefaultHashKey                 = "hashKey"
	DefaultRangeKey                = "rangeKey"
	DefaultGeneratedKeyDelimiter   = "|"
	DefaultGeneratedValueDelimiter = "#"
	DefaultShardKeyDelimiter       = "!"
	DefaultThrottle                = 10
	DefaultLimit                   = 10
	DefaultPageSize                = 10
)

// Config holds the normalized key schema.
type Config struct {
	// HashKey is the name of the table's partition key attribute.
	// Default: "hashKey"
	HashKey string `yaml:"hashKey"`

	// RangeKey is the name of the table's sort key attribute.
	// Default: "rangeKey"
	RangeKey string `yaml:"rangeKey"`

	// GeneratedKeyDelimiter separates the segments of a generated property.
	// Default: "|"
	GeneratedKeyDelimiter string `yaml:"generatedKeyDelimiter"`

	// GeneratedValueDelimiter separates an element name from its value, and
	// dehydrated index values from each other.
	// Default: "#"
	GeneratedValueDelimiter string `yaml:"generatedValueDelimiter"`

	// ShardKeyDelimiter separates the entity token from the shard suffix.
	// Default: "!"
	ShardKeyDelimiter string `yaml:"shardKeyDelimiter"`

	// Throttle is the maximum number of in-flight shard queries.
	// Default: 10
	Throttle int `yaml:"throttle"`

	// Entities maps an entity token (e.g. "user") to its configuration.
	Entities map[string]EntityConfig `yaml:"entities"`

	// GeneratedProperties maps a generated property name to its definition.
	GeneratedProperties map[string]GeneratedProperty `yaml:"generatedProperties"`

	// TranscodedProperties maps a property name to the name of its transcode.
	TranscodedProperties map[string]string `yaml:"transcodedProperties"`

	// Indexes maps an index token to its hash and range key components.
	Indexes map[string]Index `yaml:"indexes"`

	// Transcodes is the registry TranscodedProperties resolve against.
	// Nil means DefaultTranscodes().
	Transcodes map[string]Transcode `yaml:"-"`
}

// EntityConfig holds per-entity settings.
type EntityConfig struct {
	// DefaultLimit is the target item count of a query when none is given.
	DefaultLimit int `yaml:"defaultLimit"`

	// DefaultPageSize is the per-shard page size when none is given.
	DefaultPageSize int `yaml:"defaultPageSize"`

	// TimestampProperty selects the shard bump that addresses a record.
	TimestampProperty string `yaml:"timestampProperty"`

	// UniqueProperty is hashed into the shard suffix and forms the range key.
	UniqueProperty string `yaml:"uniqueProperty"`

	// ShardBumps is ordered by Timestamp and always starts at 0.
	ShardBumps []ShardBump `yaml:"shardBumps"`
}

// ShardBump widens an entity's address space for records with a timestamp
// at or after Timestamp.
type ShardBump struct {
	// Timestamp in milliseconds since the Unix epoch.
	Timestamp int64 `yaml:"timestamp"`

	// CharBits is the number of bits per suffix character (1..5).
	CharBits int `yaml:"charBits"`

	// Chars is the number of suffix characters (0..40). Zero means a single
	// unsuffixed partition.
	Chars int `yaml:"chars"`
}

// Radix returns the numeric base of the shard suffix.
func (b ShardBump) Radix() int {
	return 1 << b.CharBits
}

// GeneratedProperty is a key property composed from other properties.
type GeneratedProperty struct {
	// Sharded properties carry the hash key as an implicit leading element.
	Sharded bool `yaml:"sharded"`

	// Elements are the transcoded properties composing the value, in order.
	Elements []string `yaml:"elements"`
}

// Index is a named secondary index definition.
type Index struct {
	// HashKey is the config HashKey or a sharded generated property.
	HashKey string `yaml:"hashKey"`

	// RangeKey is the config RangeKey, a transcoded property or an unsharded
	// generated property.
	RangeKey string `yaml:"rangeKey"`
}

// DefaultConfig returns a Config with default key names and delimiters and
// no entities.
func DefaultConfig() Config {
	return Config{
		HashKey:                 DefaultHashKey,
		RangeKey:                DefaultRangeKey,
		GeneratedKeyDelimiter:   DefaultGeneratedKeyDelimiter,
		GeneratedValueDelimiter: DefaultGeneratedValueDelimiter,
		ShardKeyDelimiter:       DefaultShardKeyDelimiter,
		Throttle:                DefaultThrottle,
		Entities:                map[string]EntityConfig{},
		GeneratedProperties:     map[string]GeneratedProperty{},
		TranscodedProperties:    map[string]string{},
		Indexes:                 map[string]Index{},
		Transcodes:              DefaultTranscodes(),
	}
}

// Transcode returns the transcode registered for a transcoded property.
func (c *Config) Transcode(property string) (Transcode, bool) {
	name, ok := c.TranscodedProperties[property]
	if !ok {
		return nil, false
	}
	t, ok := c.Transcodes[name]
	return t, ok
}
