package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nyctaxi/internal/config"
	"nyctaxi/internal/logging"
)

// app carries the configuration and logger resolved before any subcommand
// runs.
type app struct {
	getenv func(string) string
	cfg    config.Config
	log    *zap.Logger
}

// NewRootCmd builds the command tree. getenv is os.Getenv in production and
// a map lookup in tests.
func NewRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv}

	rootCmd := &cobra.Command{
		Use:   "nyctaxi",
		Short: "NYC Yellow Taxi Parquet ETL: HTTP -> object store -> Postgres",
		Long: `nyctaxi fetches monthly NYC Yellow Taxi trip files, stages them in an
S3-compatible bucket, and bulk-loads them into a Postgres table, adding
missing columns and coercing identifier columns along the way.

All settings are read from environment variables (see .env.example).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newFetchCmd(a), newLoadCmd(a), newValidateCmd(a))
	return rootCmd
}

// init resolves configuration and the logger. Errors are written to w
// because no logger exists yet when they happen.
func (a *app) init(w io.Writer) error {
	cfg, err := config.Load(a.getenv)
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		// Fall back to a default logger so the error itself is reported.
		log, _ = logging.New(config.Log{})
		log.Error("invalid log configuration", zap.Error(err))
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// fail logs err at error level and returns it so cobra exits non-zero.
func (a *app) fail(msg string, err error) error {
	a.log.Error(msg, zap.Error(err))
	return err
}
