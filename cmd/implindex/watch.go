/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suparena/implindex"
	"github.com/suparena/implindex/fragment"
	"github.com/suparena/implindex/models"
)

// indexSink attaches an Index to a page the first time a fragment for it
// arrives, so every delivery is logged as it happens.
type indexSink struct {
	pages  *implindex.Pages
	logger *zap.Logger

	mu      sync.Mutex
	indexes map[string]*implindex.Index

	hookMu    sync.RWMutex
	onDeliver func(*implindex.Index)
}

// notify registers fn to run after every delivery, with the updated index.
func (s *indexSink) notify(fn func(*implindex.Index)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.onDeliver = fn
}

func newIndexSink(pages *implindex.Pages, logger *zap.Logger) *indexSink {
	return &indexSink{pages: pages, logger: logger, indexes: make(map[string]*implindex.Index)}
}

func (s *indexSink) Submit(capability string, table models.LibraryTable) error {
	if err := s.ensure(capability); err != nil {
		return err
	}
	return s.pages.Submit(capability, table)
}

func (s *indexSink) ensure(capability string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[capability]; ok || capability == "" {
		return nil
	}

	idx := implindex.NewIndex(capability)
	s.indexes[capability] = idx
	return s.pages.Attach(capability, func(table models.LibraryTable) error {
		if err := idx.Consume(table); err != nil {
			return err
		}
		s.logger.Info("implementors delivered",
			zap.String("capability", capability),
			zap.Strings("libraries", table.Libraries()),
			zap.Int("descriptors", table.Len()),
			zap.Int("total", idx.Len()))

		s.hookMu.RLock()
		fn := s.onDeliver
		s.hookMu.RUnlock()
		if fn != nil {
			fn(idx)
		}
		return nil
	})
}

func (s *indexSink) index(capability string) *implindex.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexes[capability]
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Submit fragments as they are regenerated until interrupted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, a, a.fragmentsDir(args))
		},
	}
}

func runWatch(ctx context.Context, a *app, dir string) error {
	pages := implindex.NewPages(implindex.WithLogger(a.logger))
	sink := newIndexSink(pages, a.logger)

	if err := submitTree(a, sink, dir); err != nil {
		return err
	}
	if err := watchUntilDone(ctx, a, dir, sink); err != nil {
		return err
	}

	for _, capability := range pages.Capabilities() {
		if idx := sink.index(capability); idx != nil {
			a.logger.Info("final index",
				zap.String("capability", capability),
				zap.Int("libraries", len(idx.Libraries())),
				zap.Int("submissions", idx.Submissions()))
		}
	}
	return nil
}

// submitTree loads every fragment below dir into sink. Rejected fragments are
// logged; only an unreadable tree is an error.
func submitTree(a *app, sink fragment.Sink, dir string) error {
	frags, err := fragment.Load(dir)
	if err != nil {
		if len(frags) == 0 {
			return err
		}
		a.logger.Warn("some fragments were skipped", zap.Error(err))
	}
	if _, err := fragment.SubmitAll(sink, frags); err != nil {
		a.logger.Warn("some fragments were rejected", zap.Error(err))
	}
	return nil
}

// watchUntilDone feeds regenerated fragments below dir to sink until ctx ends.
func watchUntilDone(ctx context.Context, a *app, dir string, sink fragment.Sink) error {
	w := fragment.NewWatcher(dir, sink,
		fragment.WithLogger(a.logger),
		fragment.WithDebounce(a.cfg.Fragments.Debounce),
	)
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}
