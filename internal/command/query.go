package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/jacentio/entitymanager/manager"
	"github.com/jacentio/entitymanager/store"
)

// QueryCommand returns the query command.
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:  "query",
		Usage: "Run a sharded query against DynamoDB",
		Description: `Queries every shard of one or more indexes and merges the results.

An index is given as a token, optionally followed by the DynamoDB index
name: --index created=byCreated. Without a name the table is queried.

Example:
  entitymanager -c schema.yaml -t entities query -e user --index created --limit 20 --sort -created`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "entity",
				Aliases:  []string{"e"},
				Usage:    "Entity token",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "index",
				Usage:    "Index token, with optional =indexName (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "item",
				Aliases: []string{"i"},
				Usage:   "Query item as a JSON object",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Target item count (0 = entity default, -1 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Items per shard query (0 = entity default)",
			},
			&cli.StringFlag{
				Name:  "page-key-map",
				Usage: "Token returned by the previous page",
			},
			&cli.Int64Flag{
				Name:  "from",
				Usage: "Start timestamp in ms",
			},
			&cli.Int64Flag{
				Name:  "to",
				Usage: "End timestamp in ms (0 = unbounded)",
			},
			&cli.StringSliceFlag{
				Name:  "sort",
				Usage: "Sort property, prefixed with - for descending (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "desc",
				Usage: "Read each shard in descending range key order",
			},
			&cli.IntFlag{
				Name:  "throttle",
				Usage: "Maximum in-flight shard queries (0 = configured)",
			},
		},
		Action: runQuery,
	}
}

func runQuery(c *cli.Context) error {
	item, err := parseItem(c.String("item"))
	if err != nil {
		return err
	}
	indexes, err := parseIndexes(c.StringSlice("index"), c.Bool("desc"))
	if err != nil {
		return err
	}
	s, err := loadStore(c)
	if err != nil {
		return err
	}

	result, err := s.Query(c.Context, store.QueryInput{
		Options: manager.QueryOptions{
			EntityToken:   c.String("entity"),
			Item:          item,
			PageKeyMap:    c.String("page-key-map"),
			Limit:         c.Int("limit"),
			PageSize:      c.Int("page-size"),
			SortOrder:     parseSortOrder(c.StringSlice("sort")),
			TimestampFrom: c.Int64("from"),
			TimestampTo:   c.Int64("to"),
			Throttle:      c.Int("throttle"),
		},
		Indexes: indexes,
	})
	if err != nil {
		return err
	}
	return printResult(c, result)
}

// parseIndexes parses "token[=indexName]" values.
func parseIndexes(values []string, descending bool) ([]store.ShardQueryInput, error) {
	out := make([]store.ShardQueryInput, 0, len(values))
	for _, v := range values {
		token, name, _ := strings.Cut(v, "=")
		if token == "" {
			return nil, fmt.Errorf("invalid index %q", v)
		}
		out = append(out, store.ShardQueryInput{
			IndexToken: token,
			IndexName:  name,
			Descending: descending,
		})
	}
	return out, nil
}

// parseSortOrder parses "[-]property" values.
func parseSortOrder(values []string) []manager.SortKey {
	out := make([]manager.SortKey, 0, len(values))
	for _, v := range values {
		if p, ok := strings.CutPrefix(v, "-"); ok {
			out = append(out, manager.SortKey{Property: p, Desc: true})
			continue
		}
		out = append(out, manager.SortKey{Property: v})
	}
	return out
}
