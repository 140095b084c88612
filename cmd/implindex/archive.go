/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suparena/implindex"
	"github.com/suparena/implindex/archive"
	"github.com/suparena/implindex/registry"
)

func newArchiveCmd(a *app) *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "archive [dir]",
		Short: "Store every fragment of a tree in the DynamoDB archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateArchive(); err != nil {
				return err
			}
			ctx := cmd.Context()
			store, err := a.newStore(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}

			pages := implindex.NewPages(implindex.WithLogger(a.logger))
			if err := loadPages(a, pages, a.fragmentsDir(args)); err != nil {
				return err
			}

			if replace {
				for _, capability := range pages.Capabilities() {
					n, err := archive.Purge(ctx, store, capability)
					if err != nil {
						return err
					}
					a.logger.Debug("previous archive purged", zap.String("capability", capability), zap.Int("records", n))
				}
			}

			archivers := map[string]*archive.Archiver{}
			err = pages.AttachAll(func(capability string) registry.Consumer {
				arch := archive.NewArchiver(store, capability, archive.WithLogger(a.logger))
				archivers[capability] = arch
				return arch.Consumer(ctx)
			})

			caps := make([]string, 0, len(archivers))
			for c := range archivers {
				caps = append(caps, c)
			}
			sort.Strings(caps)
			out := cmd.OutOrStdout()
			for _, c := range caps {
				fmt.Fprintf(out, "%s\t%d\n", c, archivers[c].Archived())
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "delete the archived records of each capability first")
	return cmd
}
