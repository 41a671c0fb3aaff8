package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"takeout/internal/config"
	"takeout/internal/exiftool"
	"takeout/internal/logging"
	"takeout/internal/organizer"
	"takeout/internal/services"
	"takeout/internal/store"
)

// Phase names recorded on log lines and failure rows.
const (
	PhaseDiscovery    = "discovery"
	PhaseMetadataRead = "metadata_read"
	PhaseResolution   = "resolution"
	PhaseExecution    = "execution"
)

// Report summarizes a completed run. WouldCopy counts the files a dry run
// left at target_resolved instead of copying; it is zero on real runs.
type Report struct {
	RunID      string
	Discovered int
	Added      int
	WouldCopy  int
	Summary    store.Summary
}

// Option configures the pipeline.
type Option func(*Pipeline)

// WithTagClient injects a preconstructed tag I/O client, primarily so tests
// can supply one backed by a fake executor.
func WithTagClient(client *exiftool.Client) Option {
	return func(p *Pipeline) {
		if client != nil {
			p.exif = client
		}
	}
}

// Pipeline owns the phase runners and their shared collaborators.
type Pipeline struct {
	cfg    *config.Config
	store  *store.Store
	exif   *exiftool.Client
	org    *organizer.Organizer
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock
}

// New constructs a pipeline. The config's directories must already exist.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("pipeline requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "takeout.lock")
	p := &Pipeline{
		cfg:      cfg,
		store:    st,
		org:      organizer.New(cfg.Paths.DestDir, cfg.Pipeline.DryRun, logger),
		logger:   logger,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.exif == nil {
		client, err := exiftool.New(cfg.ExiftoolBinary(), cfg.Exiftool.TimeoutSeconds)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "tag client", err)
		}
		p.exif = client
	}
	return p, nil
}

// Run executes all four phases and returns the final status summary. A second
// concurrent run against the same state directory is refused via a file lock.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	ok, err := p.lock.TryLock()
	if err != nil {
		return Report{}, fmt.Errorf("acquire run lock %s: %w", p.lockPath, err)
	}
	if !ok {
		return Report{}, fmt.Errorf("another import is already running (lock %s)", p.lockPath)
	}
	defer func() {
		if err := p.lock.Unlock(); err != nil {
			p.logger.Warn("failed to release run lock", logging.Error(err))
		}
	}()

	report := Report{RunID: uuid.NewString()}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("import run starting",
		logging.String("source", p.cfg.Paths.SourceDir),
		logging.String("dest", p.cfg.Paths.DestDir),
		logging.Bool("dry_run", p.cfg.Pipeline.DryRun))

	phases := []struct {
		name string
		run  func(context.Context, *Report) error
	}{
		{PhaseDiscovery, p.discover},
		{PhaseMetadataRead, p.readMetadata},
		{PhaseResolution, p.resolveTargets},
		{PhaseExecution, p.execute},
	}
	for _, phase := range phases {
		phaseCtx := services.WithPhase(ctx, phase.name)
		if err := phase.run(phaseCtx, &report); err != nil {
			return report, fmt.Errorf("%s phase: %w", phase.name, err)
		}
	}

	summary, err := p.store.Summarize(ctx)
	if err != nil {
		return report, services.Wrap(services.ErrPersistence, "pipeline", "summarize", "", err)
	}
	report.Summary = summary

	logger.Info("import run finished",
		logging.Int("discovered", report.Discovered),
		logging.Int("succeeded", summary.Success),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed))
	return report, nil
}

func (p *Pipeline) pageSize() int {
	if p.cfg.Pipeline.PageSize > 0 {
		return p.cfg.Pipeline.PageSize
	}
	return 100
}

// forEachPage pages through rows in the given status and hands each page to
// fn. Rows a page advances (or fails) leave the status, so pagination keys on
// the last seen row ID rather than re-querying from the start.
func (p *Pipeline) forEachPage(ctx context.Context, status store.Status, fn func(context.Context, []*store.File) error) error {
	var afterID int64
	for {
		page, err := p.store.FilesByStatus(ctx, status, afterID, p.pageSize())
		if err != nil {
			return services.Wrap(services.ErrPersistence, "pipeline", "page", string(status), err)
		}
		if len(page) == 0 {
			return nil
		}
		afterID = page[len(page)-1].ID
		if err := fn(ctx, page); err != nil {
			return err
		}
	}
}

// mapPage fans a page out to the configured worker count and returns one
// outcome per row, ordered by row ID so commits are deterministic.
func (p *Pipeline) mapPage(ctx context.Context, files []*store.File, fn func(context.Context, *store.File) FileOutcome) []FileOutcome {
	workers := p.cfg.Pipeline.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan *store.File)
	results := make(chan FileOutcome, len(files))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				results <- fn(services.WithFileID(ctx, file.ID), file)
			}
		}()
	}
	for _, file := range files {
		jobs <- file
	}
	close(jobs)
	wg.Wait()
	close(results)

	outcomes := make([]FileOutcome, 0, len(files))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].FileID < outcomes[j].FileID })
	return outcomes
}
