// Package config provides configuration models and helpers for the ETL.
//
// This file adds a lightweight linter for Config values. It performs static
// checks and returns a list of issues (errors and warnings) that callers can
// surface in the CLI or tests.
package config

import (
	"fmt"
	"strings"

	"nyctaxi/internal/period"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "db.table", "fetch.start").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of a Config. It does not mutate the
// config.
func Validate(c Config) []Issue {
	var issues []Issue
	issues = append(issues, validateObjectStore(c.ObjectStore)...)
	issues = append(issues, validateDB(c.DB)...)
	issues = append(issues, validateFetch(c.Fetch)...)
	issues = append(issues, validateLoad(c.Load)...)
	issues = append(issues, validateLog(c.Log)...)
	issues = append(issues, validateMetrics(c.Metrics)...)
	return issues
}

func validateObjectStore(o ObjectStore) []Issue {
	var issues []Issue

	switch o.Kind {
	case "minio", "s3", "file":
	case "":
		issues = append(issues, errorf("object_store.kind", "object_store.kind must not be empty"))
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "object_store.kind",
			Message:  fmt.Sprintf("unknown object store kind %q; ensure a matching backend is registered", o.Kind),
		})
	}
	if strings.TrimSpace(o.Bucket) == "" {
		issues = append(issues, errorf("object_store.bucket", "object_store.bucket must not be empty"))
	}
	if (o.Kind == "minio" || o.Kind == "file") && strings.TrimSpace(o.Endpoint) == "" {
		issues = append(issues, errorf("object_store.endpoint", o.Kind+" requires an endpoint"))
	}
	if o.Kind != "file" && (o.AccessKey == "" || o.SecretKey == "") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "object_store.access_key",
			Message:  "empty credentials; requests will be anonymous",
		})
	}
	return issues
}

func validateDB(d DBConfig) []Issue {
	var issues []Issue

	if strings.TrimSpace(d.Table) == "" {
		issues = append(issues, errorf("db.table", "db.table must not be empty"))
	}
	if d.DSN != "" {
		return issues
	}
	if !strings.HasPrefix(d.Engine, "postgres") {
		issues = append(issues, errorf("db.engine", fmt.Sprintf("engine %q is not supported; bulk copy requires postgres", d.Engine)))
	}
	if strings.TrimSpace(d.Host) == "" {
		issues = append(issues, errorf("db.host", "db.host must not be empty when db.dsn is unset"))
	}
	if strings.TrimSpace(d.Name) == "" {
		issues = append(issues, errorf("db.name", "db.name must not be empty when db.dsn is unset"))
	}
	return issues
}

func validateFetch(f Fetch) []Issue {
	var issues []Issue

	if strings.TrimSpace(f.BaseURL) == "" {
		issues = append(issues, errorf("fetch.base_url", "fetch.base_url must not be empty"))
	}
	if strings.TrimSpace(f.Ext) == "" {
		issues = append(issues, errorf("fetch.ext", "fetch.ext must not be empty"))
	}
	start, startErr := period.Parse(f.Start)
	if startErr != nil {
		issues = append(issues, errorf("fetch.start", startErr.Error()))
	}
	end, endErr := period.Parse(f.End)
	if endErr != nil {
		issues = append(issues, errorf("fetch.end", endErr.Error()))
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		issues = append(issues, errorf("fetch.end", fmt.Sprintf("end %s precedes start %s", end, start)))
	}
	if f.MaxRetries < 0 {
		issues = append(issues, errorf("fetch.max_retries", "fetch.max_retries must not be negative"))
	}
	if f.Timeout <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "fetch.timeout",
			Message:  "non-positive timeout; the HTTP client default will be used",
		})
	}
	if strings.TrimSpace(f.DataDir) == "" {
		issues = append(issues, errorf("fetch.data_dir", "fetch.data_dir must not be empty"))
	}
	return issues
}

func validateLoad(l LoadConfig) []Issue {
	var issues []Issue

	if l.Workers <= 0 {
		issues = append(issues, errorf("load.workers", fmt.Sprintf("load.workers=%d; at least one worker is required", l.Workers)))
	}
	if l.BatchSize <= 0 {
		issues = append(issues, errorf("load.batch_size", fmt.Sprintf("load.batch_size=%d must be positive", l.BatchSize)))
	}
	if strings.TrimSpace(l.TempDir) == "" {
		issues = append(issues, errorf("load.temp_dir", "load.temp_dir must not be empty"))
	}
	if l.Suffix == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "load.suffix",
			Message:  "empty suffix; every object in the bucket will be treated as a staged file",
		})
	}
	return issues
}

func validateLog(l Log) []Issue {
	switch l.Format {
	case "", "console", "json":
		return nil
	default:
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; falling back to console", l.Format),
		}}
	}
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "prompush":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{errorf("metrics.pushgateway_url", "prompush requires a pushgateway URL")}
		}
	case "datadog":
		if strings.TrimSpace(m.DogStatsDAddr) == "" {
			return []Issue{errorf("metrics.dogstatsd_addr", "datadog requires a DogStatsD address")}
		}
	default:
		return []Issue{errorf("metrics.backend", fmt.Sprintf("unknown metrics backend %q; want none, prompush or datadog", m.Backend))}
	}
	return nil
}

func errorf(path, msg string) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: msg}
}
