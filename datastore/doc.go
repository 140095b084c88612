/*
Package datastore defines the persistence interface used by the archive.

The main interface is DataStore[T], which provides generic operations for any
record type T:

	type DataStore[T any] interface {
	    GetOne(ctx context.Context, key string) (*T, error)
	    Put(ctx context.Context, entity T) error
	    Query(ctx context.Context, params *models.QueryParams) ([]interface{}, error)
	    Stream(ctx context.Context, params *models.QueryParams, opts ...models.StreamOption) <-chan models.StreamResult[T]
	    Delete(ctx context.Context, key string) error
	}

Implementations:
  - ddb: DynamoDB implementation with single-table key templates
  - mock: In-memory implementation for testing

Key templates and type names live in the keymap subpackage.
*/
package datastore
