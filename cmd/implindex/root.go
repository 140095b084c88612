/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/suparena/implindex/config"
	"github.com/suparena/implindex/datastore"
	"github.com/suparena/implindex/datastore/ddb"
	"github.com/suparena/implindex/models"
)

// storeFactory opens the archive datastore.
type storeFactory func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datastore.DataStore[models.ImplementorRecord], error)

// app carries the state shared by all commands of one invocation.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	logger     *zap.Logger
	ownLogger  bool
	configPath string
	verbose    bool
	newStore   storeFactory
}

func newApp() *app {
	return &app{
		v:        config.New(),
		newStore: dynamoStore,
	}
}

func dynamoStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (datastore.DataStore[models.ImplementorRecord], error) {
	store, err := ddb.NewDynamodbDataStore[models.ImplementorRecord](ctx, ddb.Credentials{
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
		Region:    cfg.AWS.Region,
	}, cfg.AWS.Table, ddb.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "implindex",
		Short:        "Assemble trait implementor indexes from generated fragments",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg

			// tests inject their own logger
			if a.logger != nil {
				return nil
			}
			zc := zap.NewProductionConfig()
			zc.Level = zap.NewAtomicLevelAt(cfg.LogLevel())
			if a.verbose {
				zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zc.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			a.ownLogger = true
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.ownLogger && a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ./implindex.yaml)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newArchiveCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// fragmentsDir returns the directory argument, or the configured one.
func (a *app) fragmentsDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Fragments.Dir
}
