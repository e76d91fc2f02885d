package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nyctaxi/internal/datasource/httpds"
	"nyctaxi/internal/fetch"
	"nyctaxi/internal/period"
)

func newFetchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download monthly files, combine them and upload the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfig(cmd.ErrOrStderr(), a.cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			defer a.setupMetrics("fetch")()
			fc := a.cfg.Fetch

			periods, err := period.ParseRange(fc.Start, fc.End)
			if err != nil {
				return a.fail("invalid period range", err)
			}
			store, err := openStore(ctx, a.cfg.ObjectStore)
			if err != nil {
				return a.fail("object store unavailable", err)
			}

			f := &fetch.Fetcher{
				HTTP:          httpds.NewClient(httpds.Config{Timeout: fc.Timeout, MaxRetries: fc.MaxRetries}),
				Store:         store,
				Bucket:        a.cfg.ObjectStore.Bucket,
				BaseURL:       fc.BaseURL,
				FilePrefix:    fc.FilePrefix,
				Ext:           fc.Ext,
				Periods:       periods,
				DataDir:       fc.DataDir,
				UploadMonthly: fc.UploadMonthly,
				BatchSize:     a.cfg.Load.BatchSize,
				Log:           a.log.Named("fetch"),
			}
			res, err := f.Run(ctx)
			if err != nil {
				return a.fail("fetch failed", err)
			}
			a.log.Info("fetch complete",
				zap.Int("downloaded", len(res.Downloaded)),
				zap.Int("existing", len(res.Existing)),
				zap.Int("failed", len(res.Failed)),
				zap.String("combined", res.Combined),
				zap.Int64("rows", res.Rows),
			)
			return nil
		},
	}
}
