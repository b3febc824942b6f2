package command

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/urfave/cli/v2"

	"github.com/jacentio/entitymanager/store"
)

// newDynamoClient builds a DynamoDB client from the default AWS credential
// chain, narrowed by the region, profile and endpoint settings.
func newDynamoClient(ctx context.Context, settings Settings) (*dynamodb.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if settings.Region != "" {
		opts = append(opts, awsconfig.WithRegion(settings.Region))
	}
	if settings.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(settings.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		}
	}), nil
}

// loadStore creates a Store over the configured table.
func loadStore(c *cli.Context) (*store.Store, error) {
	settings := GetSettings(c)
	if settings.Table == "" {
		return nil, fmt.Errorf("no table: set --table or %sTABLE", EnvPrefix)
	}
	m, err := loadManager(c)
	if err != nil {
		return nil, err
	}
	client, err := newDynamoClient(c.Context, settings)
	if err != nil {
		return nil, err
	}
	cfg := store.DefaultConfig()
	cfg.DefaultTable = settings.Table
	return store.New(client, m, cfg), nil
}
