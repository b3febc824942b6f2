package command

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the environment variable prefix for settings.
const EnvPrefix = "ENTITYMANAGER_"

// Settings holds runtime settings. Loading order (later sources override
// earlier): settings file, environment, command-line flags.
type Settings struct {
	// Schema is the path of the entity schema YAML.
	Schema string `koanf:"schema"`

	// Table is the DynamoDB table holding every entity.
	Table string `koanf:"table"`

	// Region, Profile and Endpoint configure the AWS client.
	Region   string `koanf:"region"`
	Profile  string `koanf:"profile"`
	Endpoint string `koanf:"endpoint"`

	// Throttle overrides the schema throttle when positive.
	Throttle int `koanf:"throttle"`
}

// LoadSettings loads settings from an optional YAML file and the
// environment. ENTITYMANAGER_TABLE sets table, and so on.
func LoadSettings(path string) (Settings, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Settings{}, fmt.Errorf("load settings file %s: %w", path, err)
		}
	}

	envTransformer := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformer), nil); err != nil {
		return Settings{}, fmt.Errorf("load env: %w", err)
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return Settings{}, fmt.Errorf("unmarshal settings: %w", err)
	}
	return s, nil
}
