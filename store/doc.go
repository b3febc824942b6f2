// Package store provides a DynamoDB data access layer for sharded entities.
//
// A [Store] pairs a DynamoDB client with a [manager.Manager]. Writes derive
// every key before marshalling; reads strip them again, so callers only
// ever see their own properties.
//
// # Key Features
//
//   - Hash, range and generated index keys derived on every Put
//   - Soft deletes via DynamoDB TTL, filtered out of reads and queries
//   - Per-entity table routing through a [Registry]
//   - Scatter-gather queries across every shard of one or more indexes
//
// # Tables
//
// Entities share [Config.DefaultTable] unless registered elsewhere:
//
//	reg := store.NewRegistry()
//	reg.Register("user", "users")
//	s := store.NewWithRegistry(client, m, store.DefaultConfig(), reg)
//
// # Queries
//
// [Store.ShardQuery] adapts one DynamoDB index to a [manager.ShardQueryFunc].
// [Store.Query] builds one per index and hands them to [manager.Manager.Query]:
//
//	res, err := s.Query(ctx, store.QueryInput{
//	    Options: manager.QueryOptions{EntityToken: "user", Limit: 20},
//	    Indexes: []store.ShardQueryInput{{IndexToken: "created", IndexName: "byCreated"}},
//	})
//
// While res.More is set, pass res.PageKeyMap back as Options.PageKeyMap for
// the next page.
//
// # Errors
//
//   - [ErrNotFound] - record doesn't exist or is deleted
//   - [ErrUnknownEntity] - entity has no table
package store
