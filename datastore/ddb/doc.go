/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

The store follows a single-table layout. Every item carries PK and SK plus
whatever other attributes its index map names, all produced by macro
expansion from the item's own fields:

	keymap.RegisterIndexMap[models.ImplementorRecord](map[string]string{
	    "PK":     "REC#{ID}",           // REC#4f0c...
	    "SK":     "REC#{ID}",
	    "GSI1PK": "CAP#{Capability}",   // CAP#core::fmt::Debug
	    "GSI1SK": "{Order}",          // REC#<seq>#<library>#<position>
	})

An EntityType attribute is written with each item so Query can hand back the
registered type for mixed result sets.

Streaming pages through a query on a background goroutine and retries
throttling errors:

	results := store.Stream(ctx, params,
	    models.WithPageSize(25),
	    models.WithMaxRetries(3),
	    models.WithProgressHandler(func(p models.StreamProgress) {
	        logger.Debug("archive restore", zap.Int64("items", p.ItemsProcessed))
	    }),
	)

The store talks to DynamoDB through the API interface, which the SDK client
satisfies; tests substitute an in-memory fake.
*/
package ddb
