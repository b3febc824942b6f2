package store

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/entitymanager/manager"
)

// SortKeyStrategy builds the range key part of a key condition from the
// name of the queried index's range key attribute.
type SortKeyStrategy func(rangeKey string) expression.KeyConditionBuilder

// ShardQueryInput describes the query run against each shard of one index.
type ShardQueryInput struct {
	// EntityToken names the queried entity.
	EntityToken string

	// IndexToken names the index definition whose key attributes are queried.
	IndexToken string

	// IndexName is the DynamoDB index to query. Empty queries the table
	// itself, which requires the index's hash key to be the table hash key.
	IndexName string

	// RangeKeyCondition optionally narrows each shard by range key.
	RangeKeyCondition SortKeyStrategy

	// Filter is an optional filter (TTL filter is automatically merged).
	Filter expression.ConditionBuilder

	// Descending reverses the range key order.
	Descending bool
}

// ShardQuery returns a manager.ShardQueryFunc that queries one partition
// of an index per call. Deleted records are filtered out and keys are
// removed from returned items.
func (s *Store) ShardQuery(input ShardQueryInput) (manager.ShardQueryFunc, error) {
	table, err := s.TableFor(input.EntityToken)
	if err != nil {
		return nil, err
	}
	cfg := s.manager.Config()
	idx, ok := cfg.Indexes[input.IndexToken]
	if !ok {
		return nil, fmt.Errorf("%w: %q", manager.ErrInvalidIndexToken, input.IndexToken)
	}

	return func(ctx context.Context, hashKey string, pageKey manager.Item, pageSize int) (manager.ShardQueryResult, error) {
		key := expression.Key(idx.HashKey).Equal(expression.Value(hashKey))
		if input.RangeKeyCondition != nil {
			key = key.And(input.RangeKeyCondition(idx.RangeKey))
		}
		filter := TTLFilter(s.config.TTLAttribute, time.Now())
		if input.Filter.IsSet() {
			filter = input.Filter.And(filter)
		}

		expr, err := expression.NewBuilder().WithKeyCondition(key).WithFilter(filter).Build()
		if err != nil {
			return manager.ShardQueryResult{}, fmt.Errorf("build query expression: %w", err)
		}

		queryInput := &dynamodb.QueryInput{
			TableName:                 aws.String(table),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			Limit:                     aws.Int32(clampLimit(pageSize)),
			ScanIndexForward:          aws.Bool(!input.Descending),
		}
		if input.IndexName != "" {
			queryInput.IndexName = aws.String(input.IndexName)
		}
		if pageKey != nil {
			if queryInput.ExclusiveStartKey, err = attributevalue.MarshalMap(map[string]any(pageKey)); err != nil {
				return manager.ShardQueryResult{}, fmt.Errorf("marshal page key: %w", err)
			}
		}

		out, err := s.client.Query(ctx, queryInput)
		if err != nil {
			return manager.ShardQueryResult{}, err
		}

		items := make([]manager.Item, 0, len(out.Items))
		for _, raw := range out.Items {
			item, err := s.unmarshalItem(input.EntityToken, raw)
			if err != nil {
				return manager.ShardQueryResult{}, err
			}
			items = append(items, item)
		}

		res := manager.ShardQueryResult{Count: len(items), Items: items}
		if len(out.LastEvaluatedKey) > 0 {
			if res.PageKey, err = unmarshalMap(out.LastEvaluatedKey); err != nil {
				return manager.ShardQueryResult{}, err
			}
		}
		return res, nil
	}, nil
}

// clampLimit fits a page size into the int32 Limit of a DynamoDB query.
func clampLimit(pageSize int) int32 {
	if pageSize > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(pageSize)
}

// QueryInput defines a scatter-gather query over one or more indexes.
type QueryInput struct {
	// Options configures the query. ShardQueryMap is built from Indexes.
	Options manager.QueryOptions

	// Indexes lists the index queries to merge. An empty EntityToken
	// defaults to Options.EntityToken.
	Indexes []ShardQueryInput
}

// Query runs a paginated query across every shard of every index.
func (s *Store) Query(ctx context.Context, input QueryInput) (*manager.QueryResult, error) {
	opts := input.Options
	opts.ShardQueryMap = make(map[string]manager.ShardQueryFunc, len(input.Indexes))
	for _, in := range input.Indexes {
		if in.EntityToken == "" {
			in.EntityToken = opts.EntityToken
		}
		fn, err := s.ShardQuery(in)
		if err != nil {
			return nil, err
		}
		opts.ShardQueryMap[in.IndexToken] = fn
	}
	return s.manager.Query(ctx, opts)
}
