package command

import (
	"math"

	"github.com/urfave/cli/v2"
)

// SpaceCommand returns the space command.
func SpaceCommand() *cli.Command {
	return &cli.Command{
		Name:  "space",
		Usage: "List the hash keys of an entity over a time range",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "entity",
				Aliases:  []string{"e"},
				Usage:    "Entity token",
				Required: true,
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
		Action: func(c *cli.Context) error {
			m, err := loadManager(c)
			if err != nil {
				return err
			}
			to := c.Int64("to")
			if to == 0 {
				to = math.MaxInt64
			}
			space, err := m.HashKeySpace(c.String("entity"), c.Int64("from"), to)
			if err != nil {
				return err
			}
			return printResult(c, space)
		},
	}
}
