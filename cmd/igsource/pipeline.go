package main

import (
	"fmt"

	"igsource/pkg/config"
	"igsource/pkg/files"
	"igsource/pkg/instagram"
	"igsource/pkg/logger"
	"igsource/pkg/nodes"
	"igsource/pkg/ratelimit"
	"igsource/pkg/report"
	"igsource/pkg/retry"
	"igsource/pkg/schema"
	"igsource/pkg/source"
)

const (
	nodeIDSeed = source.Owner
	fileIDSeed = source.Owner + "-files"
)

// pipeline is a Source wired to the on-disk node store, file cache and
// schema registry described by the configuration
type pipeline struct {
	cfg      *config.Config
	client   *instagram.Client
	store    *nodes.MemoryStore
	registry *schema.Registry
	reporter *report.LogReporter
	source   *source.Source
}

func newPipeline(cfg *config.Config, token string, progress source.Progress, log logger.Logger) (*pipeline, error) {
	store := nodes.NewMemoryStore(log)
	if err := store.Load(cfg.NodesPath()); err != nil {
		return nil, fmt.Errorf("failed to load node store: %w", err)
	}

	client := instagram.NewClient(cfg.Graph.BaseURL, cfg.Graph.Timeout, log)

	cache, err := files.NewCache(cfg.CachePath())
	if err != nil {
		return nil, err
	}

	fileMaterializer, err := files.NewRemoteFileMaterializer(files.Options{
		Downloader:  client,
		Cache:       cache,
		Store:       store,
		IDs:         nodes.NewIDGenerator(fileIDSeed),
		Owner:       source.Owner,
		Limiter:     ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute),
		Retry:       retry.FromConfig(cfg.Retry, log),
		MaxFileSize: cfg.Download.MaxFileSize,
		Timeout:     cfg.Download.DownloadTimeout,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	registry := schema.NewRegistry(store)
	reporter := report.NewLogReporter(log)

	sourceCfg := cfg.Source
	sourceCfg.Token = token

	src, err := source.New(source.Options{
		Config:      sourceCfg,
		Concurrency: cfg.Download.ConcurrentDownloads,
		Client:      client,
		Store:       store,
		IDs:         nodes.NewIDGenerator(nodeIDSeed),
		Files:       fileMaterializer,
		Schema:      registry,
		Reporter:    reporter,
		Progress:    progress,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:      cfg,
		client:   client,
		store:    store,
		registry: registry,
		reporter: reporter,
		source:   src,
	}, nil
}

// persist writes the node snapshot and the published schema
func (p *pipeline) persist() error {
	if err := p.store.Save(p.cfg.NodesPath()); err != nil {
		return err
	}
	return p.registry.WriteSDL(p.cfg.SchemaPath())
}
