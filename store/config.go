package store

// Config holds configuration for the Store.
type Config struct {
	// DefaultTable is used for entities without a registered table.
	// Empty means every entity must be registered.
	DefaultTable string

	// TTLAttribute is the DynamoDB TTL attribute used for soft deletes.
	// Default: "ttl"
	TTLAttribute string
}

// DefaultConfig returns a Config with the default TTL attribute and no
// default table.
func DefaultConfig() Config {
	return Config{
		TTLAttribute: "ttl",
	}
}

// validate fills in missing values.
func (c *Config) validate() {
	if c.TTLAttribute == "" {
		c.TTLAttribute = "ttl"
	}
}
