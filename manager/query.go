package manager

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// Unlimited as a query limit keeps querying until every shard is exhausted.
const Unlimited = -1

// ShardQueryResult is one page returned by a single shard.
type ShardQueryResult struct {
	Count   int
	Items   []Item
	PageKey Item // nil when the shard is exhausted
}

// ShardQueryFunc queries one partition of one index, starting after
// pageKey (nil for the first page).
type ShardQueryFunc func(ctx context.Context, hashKey string, pageKey Item, pageSize int) (ShardQueryResult, error)

// QueryOptions configures a scatter-gather query.
type QueryOptions struct {
	// EntityToken names the entity being queried.
	EntityToken string

	// Item supplies the elements of a sharded generated index hash key.
	Item Item

	// ShardQueryMap maps each index token to queried to its shard query.
	ShardQueryMap map[string]ShardQueryFunc

	// PageKeyMap is the token returned by the previous call, or empty.
	PageKeyMap string

	// Limit is the target item count. 0 uses the entity default.
	Limit int

	// PageSize is passed to every shard query. 0 uses the entity default.
	PageSize int

	// SortOrder orders the returned items.
	SortOrder []SortKey

	// TimestampFrom and TimestampTo bound the shard space in ms.
	// A zero TimestampTo is unbounded.
	TimestampFrom int64
	TimestampTo   int64

	// Throttle caps in-flight shard queries. 0 uses the config throttle.
	Throttle int
}

// QueryResult is one page of a scatter-gather query.
type QueryResult struct {
	Count      int
	Items      []Item
	PageKeyMap string

	// More reports whether any shard still has a cursor. An exhausted
	// query still returns a token, which resumes to an empty page.
	More bool
}

type cell struct {
	indexToken string
	hashKey    string
	pageKey    Item
}

// Query runs every shard query of every index in rounds until at least
// Limit items are collected or every shard is exhausted. Items are
// deduplicated by the entity's unique property (first seen wins) and then
// sorted. Results from different shards interleave at page boundaries.
func (m *Manager) Query(ctx context.Context, opts QueryOptions) (_ *QueryResult, err error) {
	e, err := m.entity(opts.EntityToken)
	if err != nil {
		return nil, err
	}
	if len(opts.ShardQueryMap) == 0 {
		return nil, fmt.Errorf("%w: no shard queries", ErrInvalidIndexToken)
	}

	limit := opts.Limit
	switch {
	case limit == 0:
		limit = e.DefaultLimit
	case limit < 0 && limit != Unlimited:
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	pageSize := opts.PageSize
	switch {
	case pageSize == 0:
		pageSize = e.DefaultPageSize
	case pageSize < 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPageSize, pageSize)
	}
	throttle := opts.Throttle
	if throttle <= 0 {
		throttle = m.config.Throttle
	}
	to := opts.TimestampTo
	if to == 0 {
		to = math.MaxInt64
	}

	start := time.Now()
	items := []Item{}
	defer func() {
		m.metrics.ObserveQuery(opts.EntityToken, len(items), time.Since(start), err)
		if err != nil {
			m.logger.Error("query failed", "entity", opts.EntityToken, "error", err)
		}
	}()

	dehydrated, err := DecodeToken(opts.PageKeyMap)
	if err != nil {
		return nil, err
	}
	if dehydrated != nil && len(dehydrated) == 0 {
		token, err := EncodeToken(dehydrated)
		if err != nil {
			return nil, err
		}
		return &QueryResult{Items: items, PageKeyMap: token}, nil
	}

	indexTokens := sortedKeys(opts.ShardQueryMap)
	pageKeyMap, err := m.RehydratePageKeyMap(opts.EntityToken, indexTokens, opts.Item, dehydrated, opts.TimestampFrom, to)
	if err != nil {
		return nil, err
	}
	fresh := dehydrated == nil

	for round := 0; ; round++ {
		cells := collectCells(pageKeyMap, indexTokens, fresh && round == 0)
		if len(cells) == 0 {
			break
		}
		m.metrics.ObserveRound(opts.EntityToken)
		m.logger.Debug("query round",
			"entity", opts.EntityToken,
			"round", round,
			"shards", len(cells),
		)

		results := make([]ShardQueryResult, len(cells))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(throttle)
		for i, c := range cells {
			query := opts.ShardQueryMap[c.indexToken]
			g.Go(func() error {
				m.metrics.ObserveShardQuery(opts.EntityToken, c.indexToken)
				res, err := query(gctx, c.hashKey, c.pageKey, pageSize)
				if err != nil {
					return fmt.Errorf("query %q shard %q: %w", c.indexToken, c.hashKey, err)
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		for i, c := range cells {
			pageKey := results[i].PageKey
			if len(pageKey) == 0 {
				pageKey = nil
			}
			pageKeyMap[c.indexToken][c.hashKey] = pageKey
			items = append(items, results[i].Items...)
		}

		if (limit != Unlimited && len(items) >= limit) || !pageKeyMap.HasCursor() {
			break
		}
	}

	items, err = m.dedupe(opts.EntityToken, items)
	if err != nil {
		return nil, err
	}
	sortItems(items, opts.SortOrder)

	dehydrated, err = m.DehydratePageKeyMap(opts.EntityToken, pageKeyMap)
	if err != nil {
		return nil, err
	}
	token, err := EncodeToken(dehydrated)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("query complete",
		"entity", opts.EntityToken,
		"count", len(items),
		"more", pageKeyMap.HasCursor(),
	)
	return &QueryResult{Count: len(items), Items: items, PageKeyMap: token, More: pageKeyMap.HasCursor()}, nil
}

// collectCells lists the cells to query in sorted order: every cell when
// all is set, otherwise only those with a cursor.
func collectCells(pageKeyMap PageKeyMap, indexTokens []string, all bool) []cell {
	var cells []cell
	for _, indexToken := range indexTokens {
		shards := pageKeyMap[indexToken]
		for _, hashKey := range sortedKeys(shards) {
			if pageKey := shards[hashKey]; all || pageKey != nil {
				cells = append(cells, cell{indexToken: indexToken, hashKey: hashKey, pageKey: pageKey})
			}
		}
	}
	return cells
}

// dedupe keeps the first item seen for each unique property value. Items
// without one are kept as is.
func (m *Manager) dedupe(entityToken string, items []Item) ([]Item, error) {
	e, err := m.entity(entityToken)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		key, ok, err := m.EncodeElement(e.UniqueProperty, item)
		if err != nil {
			return nil, err
		}
		if ok {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, item)
	}
	return out, nil
}
