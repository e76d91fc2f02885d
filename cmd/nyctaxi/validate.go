package main

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"nyctaxi/internal/config"
	"nyctaxi/internal/objectstore"
	"nyctaxi/internal/storage"
)

var errInvalidConfig = errors.New("configuration is invalid")

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfig(cmd.ErrOrStderr(), a.cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration is valid (object store %s, warehouse %s)\n",
				a.cfg.ObjectStore.Kind, a.cfg.DB.Redacted())
			return nil
		},
	}
}

// checkConfig prints every validation issue to w and fails on errors. It
// also checks that the selected backends are compiled in.
func checkConfig(w io.Writer, cfg config.Config) error {
	issues := config.Validate(cfg)
	if !slices.Contains(objectstore.ListKinds(), cfg.ObjectStore.Kind) {
		issues = append(issues, config.Issue{
			Severity: config.SeverityError,
			Path:     "object_store.kind",
			Message:  fmt.Sprintf("no backend registered for %q (have %v)", cfg.ObjectStore.Kind, objectstore.ListKinds()),
		})
	}
	if kind := storageKind(cfg.DB); !slices.Contains(storage.ListKinds(), kind) {
		issues = append(issues, config.Issue{
			Severity: config.SeverityError,
			Path:     "db.engine",
			Message:  fmt.Sprintf("no storage backend registered for %q (have %v)", kind, storage.ListKinds()),
		})
	}
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return errInvalidConfig
	}
	return nil
}
