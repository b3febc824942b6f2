// Package manager derives storage keys for entity records in a sharded
// key-value table and runs paginated queries across every shard.
//
// # Shard Addressing
//
// Each entity has a timeline of shard bumps. A record is addressed by the
// bump active at its timestamp, so widening the address space later never
// moves records that were already written:
//
//	hashKey = entityToken + "!" + suffix
//
// The suffix is the murmur3 hash of the record's unique property in base
// 2^charBits, chars digits wide. A bump with chars 0 has no suffix.
//
// # Keys
//
// [Manager.AddKeys] applies the hash key, range key and generated
// properties to a record; [Manager.RemoveKeys] strips them again.
// Generated properties compose other properties into one sortable value
// for use as secondary index keys.
//
// # Queries
//
// [Manager.Query] fans a [ShardQueryFunc] out over every shard of every
// requested index, in rounds, until enough items are collected. The
// position of every shard is returned as an opaque token:
//
//	res, err := m.Query(ctx, manager.QueryOptions{
//	    EntityToken:   "user",
//	    ShardQueryMap: map[string]manager.ShardQueryFunc{"created": fn},
//	    SortOrder:     []manager.SortKey{{Property: "created", Desc: true}},
//	})
//	// while res.More, pass res.PageKeyMap back as QueryOptions.PageKeyMap
//
// # Errors
//
//   - [ErrInvalidEntityToken], [ErrInvalidIndexToken] - unknown token
//   - [ErrMissingTimestampProperty], [ErrMissingUniqueProperty] - record can't be addressed
//   - [ErrDehydratedLengthMismatch], [ErrInvalidToken] - page key map token doesn't fit the query
//   - [ErrInvalidLimit], [ErrInvalidPageSize] - bad query options
package manager
