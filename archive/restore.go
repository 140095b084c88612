/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package archive

import (
	"context"
	"fmt"
	"sort"

	"github.com/suparena/implindex/datastore"
	"github.com/suparena/implindex/models"
)

// Submitter accepts library tables; *registry.Registry satisfies it.
type Submitter interface {
	Submit(table models.LibraryTable) error
}

// Load reads every archived record of capability, sorted into delivery order.
func Load(ctx context.Context, store datastore.DataStore[models.ImplementorRecord], capability string, opts ...models.StreamOption) ([]models.ImplementorRecord, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var records []models.ImplementorRecord
	for res := range store.Stream(ctx, CapabilityQuery(capability), opts...) {
		if res.Error != nil {
			return nil, fmt.Errorf("loading archive for %s: %w", capability, res.Error)
		}
		if err := res.Item.Validate(); err != nil {
			return nil, fmt.Errorf("archived record %s: %w", res.Item.ID, err)
		}
		records = append(records, res.Item)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortKey() < records[j].SortKey()
	})
	return records, nil
}

// Tables regroups records (already in delivery order) into one table per
// sequence number.
func Tables(records []models.ImplementorRecord) []models.LibraryTable {
	var tables []models.LibraryTable
	var current models.LibraryTable
	for i, rec := range records {
		if i == 0 || rec.Seq != records[i-1].Seq {
			current = models.LibraryTable{}
			tables = append(tables, current)
		}
		current[rec.Library] = append(current[rec.Library], rec.DescriptorValue())
	}
	return tables
}

// Restore loads the archive of capability and submits its tables to sub in
// their original order. It stops at the first failed submission and returns
// the number of tables submitted before it.
func Restore(ctx context.Context, store datastore.DataStore[models.ImplementorRecord], capability string, sub Submitter, opts ...models.StreamOption) (int, error) {
	records, err := Load(ctx, store, capability, opts...)
	if err != nil {
		return 0, err
	}

	tables := Tables(records)
	for i, table := range tables {
		if err := sub.Submit(table); err != nil {
			return i, fmt.Errorf("restoring table %d/%d of %s: %w", i+1, len(tables), capability, err)
		}
	}
	return len(tables), nil
}

// Purge deletes every archived record of capability and returns how many were
// removed.
func Purge(ctx context.Context, store datastore.DataStore[models.ImplementorRecord], capability string) (int, error) {
	records, err := Load(ctx, store, capability)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := store.Delete(ctx, rec.ID); err != nil {
			return i, fmt.Errorf("purging record %s: %w", rec.ID, err)
		}
	}
	return len(records), nil
}
