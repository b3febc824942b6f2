// Package command provides CLI command definitions for entitymanager.
//
// It uses urfave/cli/v2 for command parsing and koanf for settings.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/entitymanager/config"
	"github.com/jacentio/entitymanager/manager"
)

// Build information, set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "entitymanager",
		Usage:   "Sharded entity key and query tool",
		Version: fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			KeysCommand(),
			SpaceCommand(),
			TokenCommand(),
			QueryCommand(),
		},
		Before: func(c *cli.Context) error {
			settings, err := LoadSettings(c.String("settings"))
			if err != nil {
				return err
			}
			applyFlags(c, &settings)
			c.App.Metadata["settings"] = settings
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "settings",
			Usage:   "Settings file (YAML)",
			EnvVars: []string{EnvPrefix + "SETTINGS"},
		},
		&cli.StringFlag{
			Name:    "schema",
			Aliases: []string{"c"},
			Usage:   "Entity schema file (YAML)",
		},
		&cli.StringFlag{
			Name:    "table",
			Aliases: []string{"t"},
			Usage:   "DynamoDB table name",
		},
		&cli.StringFlag{
			Name:  "region",
			Usage: "AWS region",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "AWS shared config profile",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "DynamoDB endpoint override (e.g., http://localhost:8000)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: json, yaml",
			Value:   OutputJSON,
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
	}
}

// applyFlags overrides settings with explicitly set flags.
func applyFlags(c *cli.Context, s *Settings) {
	for name, target := range map[string]*string{
		"schema":   &s.Schema,
		"table":    &s.Table,
		"region":   &s.Region,
		"profile":  &s.Profile,
		"endpoint": &s.Endpoint,
	} {
		if c.IsSet(name) {
			*target = c.String(name)
		}
	}
}

// GetSettings retrieves the loaded settings from context.
func GetSettings(c *cli.Context) Settings {
	if s, ok := c.App.Metadata["settings"].(Settings); ok {
		return s
	}
	return Settings{}
}

// newLogger returns a text logger on stderr, at debug level when verbose.
func newLogger(c *cli.Context) *slog.Logger {
	level := slog.LevelInfo
	if c.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: level}))
}

// loadManager loads the entity schema and creates a Manager.
func loadManager(c *cli.Context) (*manager.Manager, error) {
	settings := GetSettings(c)
	if settings.Schema == "" {
		return nil, fmt.Errorf("no entity schema: set --schema or %sSCHEMA", EnvPrefix)
	}
	cfg, err := config.Load(settings.Schema)
	if err != nil {
		return nil, err
	}
	if settings.Throttle > 0 {
		cfg.Throttle = settings.Throttle
	}
	return manager.New(*cfg, newLogger(c))
}

// parseItem decodes a JSON object into an item. Numbers are kept as
// json.Number so transcodes see their exact value.
func parseItem(s string) (manager.Item, error) {
	if s == "" {
		return manager.Item{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var item manager.Item
	if err := dec.Decode(&item); err != nil {
		return nil, fmt.Errorf("parse item: %w", err)
	}
	return item, nil
}

func printResult(c *cli.Context, data any) error {
	return Print(c.App.Writer, c.String("output"), data)
}
