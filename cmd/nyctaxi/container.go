package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"nyctaxi/internal/config"
	"nyctaxi/internal/metrics"
	"nyctaxi/internal/metrics/datadog"
	"nyctaxi/internal/metrics/prompush"
	"nyctaxi/internal/objectstore"
	"nyctaxi/internal/storage"
)

// Seams for tests; production wiring goes through the registries.
var (
	newStore      = objectstore.New
	newRepository = storage.New
)

// storageKind resolves the storage backend: the DSN scheme, else the
// explicit engine, else postgres.
func storageKind(d config.DBConfig) string {
	if d.DSN != "" {
		if u, err := url.Parse(d.DSN); err == nil && u.Scheme != "" {
			return strings.ToLower(u.Scheme)
		}
	}
	if d.Engine != "" {
		return strings.ToLower(d.Engine)
	}
	return "postgres"
}

func openStore(ctx context.Context, o config.ObjectStore) (objectstore.Store, error) {
	store, err := newStore(ctx, objectstore.Config{
		Kind:      o.Kind,
		Endpoint:  o.Endpoint,
		AccessKey: o.AccessKey,
		SecretKey: o.SecretKey,
		UseSSL:    o.UseSSL,
		Region:    o.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}
	return store, nil
}

// openWarehouse opens the repository and resolves its dialect. The caller
// must Close the repository.
func openWarehouse(ctx context.Context, d config.DBConfig) (storage.Repository, storage.Dialect, error) {
	kind := storageKind(d)
	dialect, err := storage.DialectFor(kind)
	if err != nil {
		return nil, nil, err
	}
	repo, err := newRepository(ctx, storage.Config{Kind: kind, DSN: d.URL()})
	if err != nil {
		return nil, nil, fmt.Errorf("connect %s: %w", d.Redacted(), err)
	}
	return repo, dialect, nil
}

// setupMetrics installs the configured metrics backend for one command and
// returns a func that flushes it. Backend errors are logged and leave the
// no-op backend in place so a metrics outage never fails a run.
func (a *app) setupMetrics(command string) func() {
	mc := a.cfg.Metrics
	job := mc.Job
	if job == "" {
		job = "nyctaxi"
	}
	job += "_" + command
	log := a.log.With(zap.String("metrics_backend", mc.Backend), zap.String("job", job))

	var (
		b   metrics.Backend
		err error
	)
	switch mc.Backend {
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}
	case "prompush":
		b, err = prompush.NewBackend(job, mc.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       mc.DogStatsDAddr,
			GlobalTags: []string{"job:" + job},
		})
	default:
		err = fmt.Errorf("unknown metrics backend %q", mc.Backend)
	}
	if err != nil {
		log.Warn("metrics backend unavailable; continuing without metrics", zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	log.Info("metrics enabled")
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", zap.Error(err))
		}
	}
}
