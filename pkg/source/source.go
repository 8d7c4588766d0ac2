package source

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"igsource/internal/downloader"
	"igsource/pkg/config"
	"igsource/pkg/errors"
	"igsource/pkg/files"
	"igsource/pkg/logger"
	"igsource/pkg/nodes"
	"igsource/pkg/report"

	"golang.org/x/sync/errgroup"
)

// ErrMissingToken is returned by Run when no access token is configured
var ErrMissingToken = stderrors.New("an Instagram access token is required")

// Options wires a Source to its collaborators
type Options struct {
	Config      config.SourceConfig
	Concurrency int
	Client      MediaClient
	Store       nodes.Store
	IDs         nodes.IDGenerator
	Files       files.Materializer
	Schema      SchemaRegistry
	Reporter    report.Reporter
	Progress    Progress
	Logger      logger.Logger
}

// Progress observes asset localization. Calls arrive from a single goroutine.
type Progress interface {
	Begin(total int)
	Localized(nodeID string, size int64)
	Failed(nodeID string, err error)
	Skipped(nodeID string)
}

type nopProgress struct{}

func (nopProgress) Begin(int) {}
func (nopProgress) Localized(string, int64) {}
func (nopProgress) Failed(string, error) {}
func (nopProgress) Skipped(string) {}

// Result summarizes one sourcing cycle
type Result struct {
	Fetched   int
	Created   int
	Updated   int
	Unchanged int
	Removed   int
	Localized int
	Skipped   int
	Failed    []string
	Duration  time.Duration
}

// Source runs sourcing cycles: fetch, materialize, then localize and
// publish the schema in parallel
type Source struct {
	cfg          config.SourceConfig
	concurrency  int
	store        nodes.Store
	fetcher      *Fetcher
	materializer *Materializer
	localizer    *Localizer
	publisher    *Publisher
	reporter     report.Reporter
	progress     Progress
	logger       logger.Logger
}

// New validates opts and builds a Source
func New(opts Options) (*Source, error) {
	switch {
	case opts.Client == nil:
		return nil, fmt.Errorf("source: media client is required")
	case opts.Store == nil:
		return nil, fmt.Errorf("source: node store is required")
	case opts.Files == nil:
		return nil, fmt.Errorf("source: file materializer is required")
	case opts.Schema == nil:
		return nil, fmt.Errorf("source: schema registry is required")
	case opts.Reporter == nil:
		return nil, fmt.Errorf("source: reporter is required")
	}

	cfg := opts.Config
	if cfg.Type == "" {
		cfg.Type = config.DefaultTypeName
	}
	if cfg.Limit == 0 {
		cfg.Limit = config.DefaultLimit
	}
	if cfg.Locale == "" {
		cfg.Locale = config.DefaultLocale
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("type", cfg.Type)

	progress := opts.Progress
	if progress == nil {
		progress = nopProgress{}
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Source{
		cfg:          cfg,
		concurrency:  concurrency,
		store:        opts.Store,
		fetcher:      NewFetcher(opts.Client, log),
		materializer: NewMaterializer(opts.Store, opts.IDs, cfg.Type, log),
		localizer:    NewLocalizer(opts.Files, opts.Store, cfg.Type, log),
		publisher:    NewPublisher(opts.Schema, cfg.Type, cfg.Locale),
		reporter:     opts.Reporter,
		progress:     progress,
		logger:       log,
	}, nil
}

// Publisher returns the schema publisher so callers can declare the schema
// without running a cycle
func (s *Source) Publisher() *Publisher {
	return s.publisher
}

// Run executes one sourcing cycle. A fetch failure halts the cycle before
// any node is created. Download failures halt it in strict mode once the
// downloads already running have finished.
func (s *Source) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	if s.cfg.Token == "" {
		return nil, ErrMissingToken
	}

	logger.LogComponentStart(s.logger, "source", map[string]interface{}{
		"limit":            s.cfg.Limit,
		"locale":           s.cfg.Locale,
		"strict_downloads": s.cfg.Strict(),
		"concurrency":      s.concurrency,
	})

	records, err := s.fetcher.Fetch(ctx, s.cfg.Token, s.cfg.Limit)
	if err != nil {
		if errors.IsIntegrationError(err, errors.StageFetch) {
			return nil, s.reporter.Panic("Failed to fetch Instagram media", err)
		}
		return nil, err
	}

	result := &Result{Fetched: len(records)}

	batch, err := s.materializer.Materialize(records)
	if err != nil {
		return result, s.reporter.Panic("Failed to create nodes", err)
	}
	result.Created = batch.Count(nodes.Created)
	result.Updated = batch.Count(nodes.Updated)
	result.Unchanged = batch.Count(nodes.Unchanged)

	// an empty page leaves the store as it was
	if len(batch.Nodes) > 0 {
		keep := make([]string, len(batch.Nodes))
		for i, n := range batch.Nodes {
			keep[i] = n.ID
		}
		result.Removed = len(s.store.DeleteStale(s.cfg.Type, keep))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.publisher.Publish(); err != nil {
			return s.reporter.Panic("Failed to publish schema", err)
		}
		return nil
	})
	g.Go(func() error {
		return s.localizeAll(gctx, batch.Nodes, result)
	})

	err = g.Wait()
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	s.logger.InfoWithFields("Sourcing cycle completed", map[string]interface{}{
		"fetched":   result.Fetched,
		"created":   result.Created,
		"updated":   result.Updated,
		"unchanged": result.Unchanged,
		"removed":   result.Removed,
		"localized": result.Localized,
		"failed":    len(result.Failed),
		"duration":  result.Duration,
	})
	logger.LogComponentStop(s.logger, "source", "completed")

	return result, nil
}

// Publish declares the schema without running a cycle
func (s *Source) Publish() error {
	return s.publisher.Publish()
}

func (s *Source) localizeAll(ctx context.Context, batch []*nodes.ContentNode, result *Result) error {
	if len(batch) == 0 {
		return nil
	}

	s.progress.Begin(len(batch))

	pool := downloader.NewWorkerPool(ctx, s.concurrency, s.localizer.Localize, s.logger)
	pool.Start()

	go func() {
		defer pool.Stop()
		for _, n := range batch {
			if err := pool.Submit(downloader.Job{Node: n}); err != nil {
				return
			}
		}
	}()

	var fatal error
	for res := range pool.Results() {
		switch {
		case res.Skipped:
			result.Skipped++
			s.progress.Skipped(res.Job.Node.ID)
		case res.Error != nil:
			result.Failed = append(result.Failed, res.Job.Node.ID)
			s.progress.Failed(res.Job.Node.ID, res.Error)
			if s.cfg.Strict() && fatal == nil {
				fatal = s.reporter.Panic("Failed to download Instagram media", res.Error)
				pool.Cancel()
				continue
			}
			s.reporter.Error("Failed to download Instagram media", res.Error)
		case res.File != nil:
			result.Localized++
			s.progress.Localized(res.Job.Node.ID, res.File.Size)
		}
	}

	return fatal
}
