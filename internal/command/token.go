package command

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/entitymanager/manager"
)

// TokenCommand returns the token command.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Encode and decode page key map tokens",
		Subcommands: []*cli.Command{
			{
				Name:      "decode",
				Usage:     "Decode a token into its cells, or into page keys with --entity",
				ArgsUsage: "<token>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "entity",
						Aliases: []string{"e"},
						Usage:   "Entity token; rehydrates the page key map",
					},
					&cli.StringSliceFlag{
						Name:  "index",
						Usage: "Index tokens of the query (repeatable)",
					},
					&cli.StringFlag{
						Name:    "item",
						Aliases: []string{"i"},
						Usage:   "Query item as a JSON object",
					},
					&cli.Int64Flag{
						Name:  "from",
						Usage: "Start timestamp in ms",
					},
					&cli.Int64Flag{
						Name:  "to",
						Usage: "End timestamp in ms (0 = unbounded)",
					},
				},
				Action: runTokenDecode,
			},
			{
				Name:      "encode",
				Usage:     "Encode a JSON array of cells",
				ArgsUsage: "<json-array>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("expected one JSON array argument")
					}
					var cells []string
					if err := json.Unmarshal([]byte(c.Args().First()), &cells); err != nil {
						return fmt.Errorf("parse cells: %w", err)
					}
					token, err := manager.EncodeToken(cells)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, token)
					return err
				},
			},
		},
	}
}

func runTokenDecode(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one token argument")
	}
	cells, err := manager.DecodeToken(c.Args().First())
	if err != nil {
		return err
	}
	if !c.IsSet("entity") {
		return printResult(c, cells)
	}

	m, err := loadManager(c)
	if err != nil {
		return err
	}
	item, err := parseItem(c.String("item"))
	if err != nil {
		return err
	}
	to := c.Int64("to")
	if to == 0 {
		to = math.MaxInt64
	}
	pageKeyMap, err := m.RehydratePageKeyMap(c.String("entity"), c.StringSlice("index"), item, cells, c.Int64("from"), to)
	if err != nil {
		return err
	}
	return printResult(c, pageKeyMap)
}
