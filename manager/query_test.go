package manager_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/entitymanager/manager"
)

// fakeShards serves canned pages per hash key and records calls.
type fakeShards struct {
	mu       sync.Mutex
	pages    map[string][]manager.ShardQueryResult
	calls    map[string][]manager.Item
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	err      map[string]error
}

func newFakeShards() *fakeShards {
	return &fakeShards{
		pages: map[string][]manager.ShardQueryResult{},
		calls: map[string][]manager.Item{},
		err:   map[string]error{},
	}
}

func (f *fakeShards) query(ctx context.Context, hashKey string, pageKey manager.Item, pageSize int) (manager.ShardQueryResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[hashKey] = append(f.calls[hashKey], pageKey)
	if err := f.err[hashKey]; err != nil {
		return manager.ShardQueryResult{}, err
	}
	if len(f.pages[hashKey]) == 0 {
		return manager.ShardQueryResult{}, nil
	}
	page := f.pages[hashKey][0]
	f.pages[hashKey] = f.pages[hashKey][1:]
	return page, nil
}

func event(id string, created int64) manager.Item {
	return manager.Item{"eventId": id, "created": created}
}

func eventCursor(hashKey, id string, created int64) manager.Item {
	return manager.Item{"hashKey": hashKey, "rangeKey": "eventId#" + id, "created": created}
}

func emptyToken(t *testing.T) string {
	t.Helper()
	token, err := manager.EncodeToken([]string{})
	require.NoError(t, err)
	return token
}

func TestQuery_SinglePagePerShard(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	shards.pages["event!0"] = []manager.ShardQueryResult{{Count: 1, Items: []manager.Item{event("e1", 10)}}}
	shards.pages["event!1"] = []manager.ShardQueryResult{{Count: 1, Items: []manager.Item{event("e2", 20)}}}

	opts := manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query},
		PageSize:      1,
	}
	first, err := m.Query(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count)
	assert.Len(t, first.Items, 2)
	assert.NotEmpty(t, first.PageKeyMap)
	assert.False(t, first.More)

	dehydrated, err := manager.DecodeToken(first.PageKeyMap)
	require.NoError(t, err)
	assert.Empty(t, dehydrated)

	opts.PageKeyMap = first.PageKeyMap
	second, err := m.Query(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count)
	assert.Equal(t, []manager.Item{}, second.Items)
	assert.Equal(t, emptyToken(t), second.PageKeyMap)
	assert.False(t, second.More)
	assert.Len(t, shards.calls["event!0"], 1, "exhausted token must not query again")
}

func TestQuery_ResumesFromCursors(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	shards.pages["event!0"] = []manager.ShardQueryResult{
		{Count: 1, Items: []manager.Item{event("e1", 10)}, PageKey: eventCursor("event!0", "e1", 10)},
	}
	shards.pages["event!1"] = []manager.ShardQueryResult{
		{Count: 1, Items: []manager.Item{event("e2", 20)}, PageKey: eventCursor("event!1", "e2", 20)},
	}

	opts := manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query},
		Limit:         2,
		PageSize:      1,
	}
	first, err := m.Query(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Count)
	assert.True(t, first.More)

	dehydrated, err := manager.DecodeToken(first.PageKeyMap)
	require.NoError(t, err)
	require.Len(t, dehydrated, 2)
	assert.NotEmpty(t, dehydrated[0])
	assert.NotEmpty(t, dehydrated[1])

	opts.PageKeyMap = first.PageKeyMap
	second, err := m.Query(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count)
	assert.Equal(t, []manager.Item{}, second.Items)
	assert.Equal(t, emptyToken(t), second.PageKeyMap)

	require.Len(t, shards.calls["event!0"], 2)
	assert.Nil(t, shards.calls["event!0"][0])
	assert.Equal(t, eventCursor("event!0", "e1", 10), shards.calls["event!0"][1])
	assert.Equal(t, eventCursor("event!1", "e2", 20), shards.calls["event!1"][1])
}

func TestQuery_RoundsUntilLimit(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	for _, hashKey := range []string{"event!0", "event!1"} {
		for i := 0; i < 5; i++ {
			id := fmt.Sprintf("%s-%d", hashKey, i)
			shards.pages[hashKey] = append(shards.pages[hashKey], manager.ShardQueryResult{
				Count:   1,
				Items:   []manager.Item{event(id, int64(i))},
				PageKey: eventCursor(hashKey, id, int64(i)),
			})
		}
	}

	res, err := m.Query(context.Background(), manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query},
		Limit:         3,
		PageSize:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Count, "two full rounds")
	assert.Len(t, shards.calls["event!0"], 2)
}

func TestQuery_Unlimited(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	for _, hashKey := range []string{"event!0", "event!1"} {
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("%s-%d", hashKey, i)
			page := manager.ShardQueryResult{Count: 1, Items: []manager.Item{event(id, int64(i))}}
			if i < 2 {
				page.PageKey = eventCursor(hashKey, id, int64(i))
			}
			shards.pages[hashKey] = append(shards.pages[hashKey], page)
		}
	}

	res, err := m.Query(context.Background(), manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query},
		Limit:         manager.Unlimited,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Count)
	assert.Equal(t, emptyToken(t), res.PageKeyMap)
	assert.False(t, res.More)
}

func TestQuery_DedupesFirstSeen(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	shards.pages["event!0"] = []manager.ShardQueryResult{{Items: []manager.Item{{"eventId": "e1", "source": "first"}}}}
	shards.pages["event!1"] = []manager.ShardQueryResult{{Items: []manager.Item{{"eventId": "e1", "source": "second"}}}}

	res, err := m.Query(context.Background(), manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query},
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "first", res.Items[0]["source"])
}

func TestQuery_Sorts(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	shards.pages["event!0"] = []manager.ShardQueryResult{{Items: []manager.Item{
		{"eventId": "a", "score": 1.0},
		{"eventId": "b"},
	}}}
	shards.pages["event!1"] = []manager.ShardQueryResult{{Items: []manager.Item{
		{"eventId": "c", "score": 3.0},
		{"eventId": "d", "score": 1.0},
	}}}

	res, err := m.Query(context.Background(), manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query},
		SortOrder:     []manager.SortKey{{Property: "score", Desc: true}, {Property: "eventId", Desc: true}},
	})
	require.NoError(t, err)

	ids := make([]string, 0, res.Count)
	for _, item := range res.Items {
		ids = append(ids, item["eventId"].(string))
	}
	assert.Equal(t, []string{"b", "c", "d", "a"}, ids)
}

func TestQuery_Throttle(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	shards.delay = 20 * time.Millisecond

	_, err := m.Query(context.Background(), manager.QueryOptions{
		EntityToken:   "user",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query, "name": shards.query},
		TimestampFrom: 1000,
		Throttle:      2,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, shards.maxSeen.Load(), int32(2))
	assert.Len(t, shards.calls, 4, "every shard queried")
}

func TestQuery_ShardErrorAborts(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	boom := errors.New("boom")
	shards.err["event!1"] = boom

	_, err := m.Query(context.Background(), manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": shards.query},
	})
	require.ErrorIs(t, err, boom)
}

func TestQuery_InvalidOptions(t *testing.T) {
	m := newTestManager(t)
	shards := newFakeShards()
	queries := map[string]manager.ShardQueryFunc{"created": shards.query}

	tests := []struct {
		name string
		opts manager.QueryOptions
		want error
	}{
		{"limit", manager.QueryOptions{EntityToken: "event", ShardQueryMap: queries, Limit: -2}, manager.ErrInvalidLimit},
		{"page size", manager.QueryOptions{EntityToken: "event", ShardQueryMap: queries, PageSize: -1}, manager.ErrInvalidPageSize},
		{"entity", manager.QueryOptions{EntityToken: "order", ShardQueryMap: queries}, manager.ErrInvalidEntityToken},
		{"no indexes", manager.QueryOptions{EntityToken: "event"}, manager.ErrInvalidIndexToken},
		{"token", manager.QueryOptions{EntityToken: "event", ShardQueryMap: queries, PageKeyMap: "!!"}, manager.ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Query(context.Background(), tt.opts)
			require.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, shards.calls)
}

func TestQuery_DefaultsFromEntity(t *testing.T) {
	m := newTestManager(t)
	m.EnableMetrics(prometheus.NewRegistry())

	var pageSizes []int
	var mu sync.Mutex
	query := func(ctx context.Context, hashKey string, pageKey manager.Item, pageSize int) (manager.ShardQueryResult, error) {
		mu.Lock()
		pageSizes = append(pageSizes, pageSize)
		mu.Unlock()
		return manager.ShardQueryResult{}, nil
	}

	_, err := m.Query(context.Background(), manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": query},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, pageSizes)
}

func TestQuery_ContextCanceled(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	query := func(ctx context.Context, hashKey string, pageKey manager.Item, pageSize int) (manager.ShardQueryResult, error) {
		return manager.ShardQueryResult{}, ctx.Err()
	}
	_, err := m.Query(ctx, manager.QueryOptions{
		EntityToken:   "event",
		ShardQueryMap: map[string]manager.ShardQueryFunc{"created": query},
	})
	require.ErrorIs(t, err, context.Canceled)
}
