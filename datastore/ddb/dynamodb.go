/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/suparena/implindex/datastore/keymap"
	"github.com/suparena/implindex/errors"
)

// EntityTypeAttribute is injected into every stored item so polymorphic
// queries can pick the right unmarshal function.
const EntityTypeAttribute = "EntityType"

// API is the subset of the DynamoDB client used by the datastore.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
}

// Credentials selects the AWS account and region. Empty keys fall back to the
// default credential chain (env, shared config, instance role).
type Credentials struct {
	AccessKey string
	SecretKey string
	Region    string
}

// DynamodbDataStore implements datastore.DataStore[T] on a single DynamoDB table.
type DynamodbDataStore[T any] struct {
	client     API
	tableName  string
	entityType string
	logger     *zap.Logger
}

// Option configures a DynamodbDataStore.
type Option func(*options)

type options struct {
	entityType string
	logger     *zap.Logger
}

// WithEntityType overrides the EntityType value written with each item.
// It defaults to the Go type name of T.
func WithEntityType(name string) Option {
	return func(o *options) { o.entityType = name }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDynamoDBClient initializes a DynamoDB client.
func NewDynamoDBClient(ctx context.Context, creds Credentials) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(creds.Region),
	}
	if creds.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return sdk.NewFromConfig(cfg), nil
}

// New constructs a DynamodbDataStore for type T on top of an existing client.
func New[T any](client API, tableName string, opts ...Option) *DynamodbDataStore[T] {
	var zero T
	o := options{
		entityType: reflect.TypeOf(zero).Name(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &DynamodbDataStore[T]{
		client:     client,
		tableName:  tableName,
		entityType: o.entityType,
		logger:     o.logger.With(zap.String("table", tableName), zap.String("entityType", o.entityType)),
	}
}

// NewDynamodbDataStore creates a client from creds and wraps it in a store for T.
func NewDynamodbDataStore[T any](ctx context.Context, creds Credentials, tableName string, opts ...Option) (*DynamodbDataStore[T], error) {
	client, err := NewDynamoDBClient(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create DynamoDB client: %w", err)
	}
	store := New[T](client, tableName, opts...)
	store.logger.Info("DynamoDB datastore initialized", zap.String("region", creds.Region))
	return store, nil
}

// TableName returns the table the store writes to.
func (d *DynamodbDataStore[T]) TableName() string {
	return d.tableName
}

// GetOne retrieves a single item. key fills every macro of T's index map, so
// it suits types whose PK and SK are both derived from one field.
func (d *DynamodbDataStore[T]) GetOne(ctx context.Context, key string) (*T, error) {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return nil, err
	}

	out, err := d.client.GetItem(ctx, &sdk.GetItemInput{
		TableName: &d.tableName,
		Key:       keyMap,
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, errors.NewNotFoundError(d.entityType, key)
	}

	result := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return result, nil
}

// Put stores entity, adding the expanded key attributes and EntityType.
func (d *DynamodbDataStore[T]) Put(ctx context.Context, entity T) error {
	indexMap, ok := keymap.GetIndexMap[T]()
	if !ok {
		return errors.ErrNoIndexMap
	}

	av, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	fields := scalarFields(av)
	for _, attr := range []string{"PK", "SK"} {
		if indexMap[attr] == "" {
			return errors.NewValidationError(attr, "index map has no template")
		}
		if missing := keymap.MissingFields(indexMap[attr], fields); len(missing) > 0 {
			return errors.NewValidationError(attr, fmt.Sprintf("no value for %s", strings.Join(missing, ", ")))
		}
	}
	expanded := keymap.Expand(indexMap, fields)
	for attr, v := range expanded {
		av[attr] = &types.AttributeValueMemberS{Value: v}
	}
	av[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: d.entityType}

	if _, err := d.client.PutItem(ctx, &sdk.PutItemInput{
		TableName: &d.tableName,
		Item:      av,
	}); err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	d.logger.Debug("item stored", zap.String("pk", expanded["PK"]), zap.String("sk", expanded["SK"]))
	return nil
}

// Delete removes the item addressed by key (see GetOne).
func (d *DynamodbDataStore[T]) Delete(ctx context.Context, key string) error {
	keyMap, err := d.keyFor(key)
	if err != nil {
		return err
	}

	_, err = d.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &d.tableName,
		Key:       keyMap,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return fmt.Errorf("delete condition failed: %w", err)
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}

func (d *DynamodbDataStore[T]) keyFor(key string) (map[string]types.AttributeValue, error) {
	indexMap, ok := keymap.GetIndexMap[T]()
	if !ok {
		return nil, errors.ErrNoIndexMap
	}
	expanded := keymap.ExpandKey(indexMap, key)

	pk, sk := expanded["PK"], expanded["SK"]
	if pk == "" || sk == "" {
		return nil, errors.NewValidationError("PK/SK", "expanded index map is missing a key value")
	}
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// scalarFields renders the string, number and bool attributes of an item as
// macro values. Other attribute kinds cannot appear in a key.
func scalarFields(av map[string]types.AttributeValue) map[string]string {
	fields := make(map[string]string, len(av))
	for name, val := range av {
		switch tv := val.(type) {
		case *types.AttributeValueMemberS:
			fields[name] = tv.Value
		case *types.AttributeValueMemberN:
			fields[name] = tv.Value
		case *types.AttributeValueMemberBOOL:
			fields[name] = strconv.FormatBool(tv.Value)
		}
	}
	return fields
}
