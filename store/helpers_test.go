package store_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/entitymanager/config"
	"github.com/jacentio/entitymanager/manager"
	"github.com/jacentio/entitymanager/store"
)

// fakeClient records requests and replays canned responses.
type fakeClient struct {
	getOut    *dynamodb.GetItemOutput
	getErr    error
	updateErr error
	queryFn   func(*dynamodb.QueryInput) (*dynamodb.QueryOutput, error)

	puts    []*dynamodb.PutItemInput
	gets    []*dynamodb.GetItemInput
	updates []*dynamodb.UpdateItemInput
	deletes []*dynamodb.DeleteItemInput
	queries []*dynamodb.QueryInput
}

func (f *fakeClient) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.gets = append(f.gets, in)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeClient) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updates = append(f.updates, in)
	return &dynamodb.UpdateItemOutput{}, f.updateErr
}

func (f *fakeClient) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes = append(f.deletes, in)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeClient) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if f.queryFn == nil {
		return &dynamodb.QueryOutput{}, nil
	}
	return f.queryFn(in)
}

func testManager(t *testing.T) *manager.Manager {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Throttle = 1
	cfg.Entities = map[string]config.EntityConfig{
		"user": {
			TimestampProperty: "created",
			UniqueProperty:    "userId",
			ShardBumps:        []config.ShardBump{{Timestamp: 0, CharBits: 1, Chars: 1}},
		},
	}
	cfg.GeneratedProperties = map[string]config.GeneratedProperty{
		"nameRangeKey": {Elements: []string{"lastName", "firstName"}},
	}
	cfg.TranscodedProperties = map[string]string{
		"created":   config.TranscodeTimestamp,
		"userId":    config.TranscodeString,
		"firstName": config.TranscodeString,
		"lastName":  config.TranscodeString,
	}
	cfg.Indexes = map[string]config.Index{
		"created": {HashKey: "hashKey", RangeKey: "created"},
		"name":    {HashKey: "hashKey", RangeKey: "nameRangeKey"},
	}
	m, err := manager.New(cfg, nil)
	if err != nil {
		t.Fatalf("manager.New: %v", err)
	}
	return m
}

func newTestStore(t *testing.T, client *fakeClient) *store.Store {
	t.Helper()
	registry := store.NewRegistry()
	registry.Register("user", "users")
	return store.NewWithRegistry(client, testManager(t), store.DefaultConfig(), registry)
}
