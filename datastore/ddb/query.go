/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/implindex/datastore/keymap"
	"github.com/suparena/implindex/models"
)

// Query runs a single query page. Each item is turned into the type registered
// for its EntityType attribute; items without a registration are unmarshaled
// into T.
func (d *DynamodbDataStore[T]) Query(ctx context.Context, params *models.QueryParams) ([]interface{}, error) {
	out, err := d.client.Query(ctx, d.queryInput(params))
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	results := make([]interface{}, 0, len(out.Items))
	for _, item := range out.Items {
		obj, err := d.decodeItem(item)
		if err != nil {
			return nil, err
		}
		results = append(results, obj)
	}
	return results, nil
}

func (d *DynamodbDataStore[T]) queryInput(params *models.QueryParams) *sdk.QueryInput {
	tableName := params.TableName
	if tableName == "" {
		tableName = d.tableName
	}
	return &sdk.QueryInput{
		TableName:                 &tableName,
		KeyConditionExpression:    &params.KeyConditionExpression,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
		FilterExpression:          params.FilterExpression,
		IndexName:                 params.IndexName,
		Limit:                     params.Limit,
		ExclusiveStartKey:         params.ExclusiveStartKey,
		ScanIndexForward:          params.ScanIndexForward,
	}
}

func (d *DynamodbDataStore[T]) decodeItem(item map[string]types.AttributeValue) (interface{}, error) {
	var entityType string
	if attr, ok := item[EntityTypeAttribute]; ok {
		if err := attributevalue.Unmarshal(attr, &entityType); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", EntityTypeAttribute, err)
		}
	}

	if entityType != "" && entityType != d.entityType {
		if unmarshalFn, err := keymap.GetUnmarshalFunc(entityType); err == nil {
			obj, err := unmarshalFn(item)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal item for %s %q: %w", EntityTypeAttribute, entityType, err)
			}
			return obj, nil
		}
	}

	var result T
	if err := attributevalue.UnmarshalMap(item, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item to %T: %w", result, err)
	}
	return result, nil
}
