package command

import (
	"github.com/urfave/cli/v2"
)

// KeysCommand returns the keys command.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Derive the keys of a record",
		Description: `Applies the hash key, range key and generated properties to a record.

Example:
  entitymanager -c schema.yaml keys -e user -i '{"userId":"u1","created":1700000000000}'`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "entity",
				Aliases:  []string{"e"},
				Usage:    "Entity token",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "item",
				Aliases: []string{"i"},
				Usage:   "Record as a JSON object",
			},
			&cli.BoolFlag{
				Name:  "primary",
				Usage: "Print only the primary key",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Recompute keys already present on the record",
			},
			&cli.BoolFlag{
				Name:  "remove",
				Usage: "Strip keys from the record instead",
			},
		},
		Action: runKeys,
	}
}

func runKeys(c *cli.Context) error {
	m, err := loadManager(c)
	if err != nil {
		return err
	}
	item, err := parseItem(c.String("item"))
	if err != nil {
		return err
	}

	entity := c.String("entity")
	switch {
	case c.Bool("remove"):
		item, err = m.RemoveKeys(entity, item)
	case c.Bool("primary"):
		item, err = m.GetPrimaryKey(entity, item, c.Bool("overwrite"))
	default:
		item, err = m.AddKeys(entity, item, c.Bool("overwrite"))
	}
	if err != nil {
		return err
	}
	return printResult(c, item)
}
