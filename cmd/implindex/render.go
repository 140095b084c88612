/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suparena/implindex"
	"github.com/suparena/implindex/archive"
	"github.com/suparena/implindex/config"
	"github.com/suparena/implindex/errors"
	"github.com/suparena/implindex/fragment"
	"github.com/suparena/implindex/registry"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		capability  string
		fromArchive bool
	)

	cmd := &cobra.Command{
		Use:   "render [dir]",
		Short: "Print the implementor index of every capability in a fragment tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Fragments.Watch && !fromArchive {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return renderWatch(ctx, a, cmd.OutOrStdout(), a.fragmentsDir(args), capability)
			}

			pages := implindex.NewPages(implindex.WithLogger(a.logger))

			if fromArchive {
				if err := restorePage(cmd, a, pages, capability); err != nil {
					return err
				}
			} else if err := loadPages(a, pages, a.fragmentsDir(args)); err != nil {
				return err
			}

			indexes, err := attachIndexes(pages, capability)
			if err != nil {
				return err
			}
			return writeIndexes(cmd.OutOrStdout(), indexes, a.cfg.Output.Format)
		},
	}

	cmd.Flags().StringVar(&capability, "capability", "", "render only this capability (e.g. core::fmt::Debug)")
	cmd.Flags().BoolVar(&fromArchive, "from-archive", false, "read the capability from the DynamoDB archive instead of fragments")
	cmd.Flags().String("format", config.FormatText, "output format: text or yaml")
	_ = a.v.BindPFlag("output.format", cmd.Flags().Lookup("format"))
	cmd.Flags().Bool("watch", false, "keep running and print a page again each time its fragments change")
	_ = a.v.BindPFlag("fragments.watch", cmd.Flags().Lookup("watch"))
	return cmd
}

// loadPages submits every fragment below dir. Unreadable fragments are logged
// and skipped.
func loadPages(a *app, pages *implindex.Pages, dir string) error {
	frags, err := fragment.Load(dir)
	if err != nil {
		if len(frags) == 0 {
			return err
		}
		a.logger.Warn("some fragments were skipped", zap.Error(err))
	}
	n, err := fragment.SubmitAll(pages, frags)
	if err != nil {
		a.logger.Warn("some fragments were rejected", zap.Error(err))
	}
	a.logger.Debug("fragments loaded", zap.String("dir", dir), zap.Int("submitted", n))
	return nil
}

func restorePage(cmd *cobra.Command, a *app, pages *implindex.Pages, capability string) error {
	if capability == "" {
		return errors.NewValidationError("capability", "--from-archive needs --capability")
	}
	if err := a.cfg.ValidateArchive(); err != nil {
		return err
	}
	store, err := a.newStore(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		return err
	}
	n, err := archive.Restore(cmd.Context(), store, capability, pages.Registry(capability))
	if err != nil {
		return err
	}
	a.logger.Debug("archive restored", zap.String("capability", capability), zap.Int("tables", n))
	return nil
}

// attachIndexes attaches a fresh Index to each page, or only to capability
// when it is set.
func attachIndexes(pages *implindex.Pages, capability string) ([]*implindex.Index, error) {
	var indexes []*implindex.Index
	newIndex := func(c string) registry.Consumer {
		idx := implindex.NewIndex(c)
		indexes = append(indexes, idx)
		return idx.Consume
	}

	if capability != "" {
		if _, err := pages.Lookup(capability); err != nil {
			return nil, err
		}
		return indexes, pages.Attach(capability, newIndex(capability))
	}
	return indexes, pages.AttachAll(newIndex)
}

func writeIndexes(w io.Writer, indexes []*implindex.Index, format string) error {
	for i, idx := range indexes {
		var err error
		switch format {
		case config.FormatYAML:
			if _, err = io.WriteString(w, "---\n"); err == nil {
				err = idx.WriteYAML(w)
			}
		default:
			if i > 0 {
				if _, err = io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			err = idx.WriteText(w)
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", idx.Capability(), err)
		}
	}
	return nil
}

// renderWatch prints the pages found below dir, then prints a page again
// whenever a delivery changes it, until ctx ends.
func renderWatch(ctx context.Context, a *app, out io.Writer, dir, capability string) error {
	pages := implindex.NewPages(implindex.WithLogger(a.logger))
	sink := newIndexSink(pages, a.logger)
	if err := submitTree(a, sink, dir); err != nil {
		return err
	}

	wanted := func(c string) bool { return capability == "" || c == capability }
	var initial []*implindex.Index
	for _, c := range pages.Capabilities() {
		if idx := sink.index(c); idx != nil && wanted(c) {
			initial = append(initial, idx)
		}
	}

	var outMu sync.Mutex
	outMu.Lock()
	err := writeIndexes(out, initial, a.cfg.Output.Format)
	outMu.Unlock()
	if err != nil {
		return err
	}

	sink.notify(func(idx *implindex.Index) {
		if !wanted(idx.Capability()) {
			return
		}
		outMu.Lock()
		defer outMu.Unlock()
		if a.cfg.Output.Format != config.FormatYAML {
			if _, err := io.WriteString(out, "\n"); err != nil {
				a.logger.Warn("writing index", zap.Error(err))
				return
			}
		}
		if err := writeIndexes(out, []*implindex.Index{idx}, a.cfg.Output.Format); err != nil {
			a.logger.Warn("writing index", zap.String("capability", idx.Capability()), zap.Error(err))
		}
	})
	return watchUntilDone(ctx, a, dir, sink)
}
