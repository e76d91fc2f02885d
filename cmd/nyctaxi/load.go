package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nyctaxi/internal/ingest"
	"nyctaxi/internal/loader"
	"nyctaxi/internal/reconcile"
)

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Load every staged file in the bucket into the warehouse table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfig(cmd.ErrOrStderr(), a.cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			defer a.setupMetrics("load")()

			store, err := openStore(ctx, a.cfg.ObjectStore)
			if err != nil {
				return a.fail("object store unavailable", err)
			}
			repo, dialect, err := openWarehouse(ctx, a.cfg.DB)
			if err != nil {
				return a.fail("warehouse unavailable", err)
			}
			defer repo.Close()

			table := a.cfg.DB.Table
			r := &ingest.Runner{
				Store:     store,
				Bucket:    a.cfg.ObjectStore.Bucket,
				Suffix:    a.cfg.Load.Suffix,
				TempDir:   a.cfg.Load.TempDir,
				Workers:   a.cfg.Load.Workers,
				BatchSize: a.cfg.Load.BatchSize,
				Reconciler: &reconcile.Reconciler{
					Repo:       repo,
					Dialect:    dialect,
					Table:      table,
					AutoCreate: a.cfg.DB.AutoCreateTable,
					Log:        a.log.Named("reconcile"),
				},
				Loader: &loader.Loader{
					Repo:  repo,
					Table: table,
					Log:   a.log.Named("loader"),
				},
				Log: a.log.Named("ingest"),
			}
			sum, err := r.Run(ctx)
			if err != nil {
				return a.fail("load failed", err)
			}
			a.log.Info("load complete",
				zap.Int("listed", sum.Listed),
				zap.Int("loaded", sum.Loaded),
				zap.Int("failed", sum.Failed),
			)
			return nil
		},
	}
}
