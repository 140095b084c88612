/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package archive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/implindex/datastore"
	"github.com/suparena/implindex/models"
	"github.com/suparena/implindex/registry"
)

// Archiver stores every table delivered to it as ImplementorRecords.
type Archiver struct {
	store      datastore.DataStore[models.ImplementorRecord]
	capability string
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string

	mu       sync.Mutex
	resumed  bool
	seq      uint64
	archived int
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Archiver) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock replaces time.Now for the archived-at stamp.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) { a.now = now }
}

// WithIDFunc replaces the random UUID generator for record IDs.
func WithIDFunc(newID func() string) Option {
	return func(a *Archiver) { a.newID = newID }
}

// NewArchiver creates an Archiver writing records for capability into store.
func NewArchiver(store datastore.DataStore[models.ImplementorRecord], capability string, opts ...Option) *Archiver {
	a := &Archiver{
		store:      store,
		capability: capability,
		logger:     zap.NewNop(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("capability", capability))
	return a
}

// Consumer returns the registry consumer writing through a. Writes use ctx.
func (a *Archiver) Consumer(ctx context.Context) registry.Consumer {
	return func(table models.LibraryTable) error {
		return a.Archive(ctx, table)
	}
}

// Resume continues numbering after the highest sequence number already
// archived for the capability, so tables from earlier runs keep their own
// numbers. Archive calls it on first use; calling it again is a no-op.
func (a *Archiver) Resume(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resume(ctx)
}

func (a *Archiver) resume(ctx context.Context) error {
	if a.resumed {
		return nil
	}
	records, err := Load(ctx, a.store, a.capability)
	if err != nil {
		return fmt.Errorf("resuming archive: %w", err)
	}
	if n := len(records); n > 0 && records[n-1].Seq >= a.seq {
		a.seq = records[n-1].Seq + 1
	}
	a.resumed = true
	a.logger.Debug("archive resumed", zap.Int("records", len(records)), zap.Uint64("nextSeq", a.seq))
	return nil
}

// Archive stores the descriptors of one delivered table. Tables get
// consecutive sequence numbers in the order Archive is called, even when a
// write fails, so a partial table never shares a number with the next one.
func (a *Archiver) Archive(ctx context.Context, table models.LibraryTable) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.resume(ctx); err != nil {
		return err
	}
	seq := a.seq
	a.seq++
	stamp := a.now()

	for _, lib := range table.Libraries() {
		for pos, desc := range table[lib] {
			rec := models.ImplementorRecord{
				ID:         a.newID(),
				Capability: a.capability,
				Library:    lib,
				Seq:        seq,
				Position:   pos,
				Descriptor: desc.String(),
				Synthetic:  desc.Synthetic(),
			}
			rec.Order = rec.SortKey()
			rec.SetArchivedAt(stamp)

			if err := a.store.Put(ctx, rec); err != nil {
				return fmt.Errorf("archiving %s[%d] of submission %d: %w", lib, pos, seq, err)
			}
			a.archived++
		}
	}

	a.logger.Debug("table archived",
		zap.Uint64("seq", seq),
		zap.Int("descriptors", table.Len()))
	return nil
}

// Archived returns the number of records written so far.
func (a *Archiver) Archived() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.archived
}
