/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/suparena/implindex/models"
)

type DataStore[T any] interface {
	GetOne(ctx context.Context, key string) (*T, error)

	Put(ctx context.Context, entity T) error

	Query(ctx context.Context, params *models.QueryParams) ([]interface{}, error)

	Stream(ctx context.Context, params *models.QueryParams, opts ...models.StreamOption) <-chan models.StreamResult[T]

	Delete(ctx context.Context, key string) error
}
