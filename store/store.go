package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/entitymanager/manager"
)

// Client is the subset of the DynamoDB API the Store uses.
// *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ Client = (*dynamodb.Client)(nil)

// Store reads and writes entity records with their keys applied.
type Store struct {
	client   Client
	manager  *manager.Manager
	config   Config
	registry *Registry
}

// New creates a new Store instance.
func New(client Client, m *manager.Manager, config Config) *Store {
	config.validate()
	return &Store{
		client:   client,
		manager:  m,
		config:   config,
		registry: NewRegistry(),
	}
}

// NewWithRegistry creates a new Store instance with an entity table registry.
func NewWithRegistry(client Client, m *manager.Manager, config Config, registry *Registry) *Store {
	s := New(client, m, config)
	s.registry = registry
	return s
}

// Registry returns the entity table registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Config returns the store's config.
func (s *Store) Config() Config {
	return s.config
}

// Manager returns the key manager.
func (s *Store) Manager() *manager.Manager {
	return s.manager
}

// TableFor returns the table holding records of entityToken.
func (s *Store) TableFor(entityToken string) (string, error) {
	if table, ok := s.registry.TableFor(entityToken); ok {
		return table, nil
	}
	if s.config.DefaultTable != "" {
		return s.config.DefaultTable, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, entityToken)
}

// Put writes a record with its keys applied and returns the written item.
// An existing hash key is kept so records never move between shards.
func (s *Store) Put(ctx context.Context, entityToken string, item manager.Item) (manager.Item, error) {
	table, err := s.TableFor(entityToken)
	if err != nil {
		return nil, err
	}
	keyed, err := s.manager.AddKeys(entityToken, item, false)
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.MarshalMap(map[string]any(keyed))
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", entityToken, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	if err != nil {
		return nil, err
	}
	return keyed, nil
}

// Get retrieves a record by its unique and timestamp properties (or its
// primary key), returning ErrNotFound if deleted or missing. Keys are
// removed from the returned item.
func (s *Store) Get(ctx context.Context, entityToken string, item manager.Item) (manager.Item, error) {
	table, key, err := s.primaryKey(entityToken, item)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	// Check if record is deleted (has expired TTL)
	if IsDeleted(result.Item, s.config.TTLAttribute) {
		return nil, ErrNotFound
	}

	return s.unmarshalItem(entityToken, result.Item)
}

// Delete soft deletes a record by setting its TTL to now. Deleting a
// missing or already deleted record is not an error.
func (s *Store) Delete(ctx context.Context, entityToken string, item manager.Item) error {
	return s.SetTTL(ctx, entityToken, item, time.Now())
}

// SetTTL marks a record for deletion at ttl.
func (s *Store) SetTTL(ctx context.Context, entityToken string, item manager.Item, ttl time.Time) error {
	table, key, err := s.primaryKey(entityToken, item)
	if err != nil {
		return err
	}

	hashKey := expression.Name(s.manager.Config().HashKey)
	ttlName := expression.Name(s.config.TTLAttribute)
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(ttlName, expression.Value(ttl.Unix()))).
		WithCondition(expression.AttributeExists(hashKey).And(expression.AttributeNotExists(ttlName))).
		Build()
	if err != nil {
		return fmt.Errorf("build ttl update: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	// Ignore condition failure - missing or already has TTL
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return nil
	}
	return err
}

// Purge removes a record immediately.
func (s *Store) Purge(ctx context.Context, entityToken string, item manager.Item) error {
	table, key, err := s.primaryKey(entityToken, item)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	return err
}

func (s *Store) primaryKey(entityToken string, item manager.Item) (string, map[string]types.AttributeValue, error) {
	table, err := s.TableFor(entityToken)
	if err != nil {
		return "", nil, err
	}
	pk, err := s.manager.GetPrimaryKey(entityToken, item, false)
	if err != nil {
		return "", nil, err
	}
	key, err := attributevalue.MarshalMap(map[string]any(pk))
	if err != nil {
		return "", nil, fmt.Errorf("marshal %s key: %w", entityToken, err)
	}
	return table, key, nil
}

// unmarshalItem converts a DynamoDB item to a record without its keys.
func (s *Store) unmarshalItem(entityToken string, raw map[string]types.AttributeValue) (manager.Item, error) {
	item, err := unmarshalMap(raw)
	if err != nil {
		return nil, err
	}
	return s.manager.RemoveKeys(entityToken, item)
}

func unmarshalMap(raw map[string]types.AttributeValue) (manager.Item, error) {
	var out map[string]any
	if err := attributevalue.UnmarshalMap(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return manager.Item(out), nil
}
