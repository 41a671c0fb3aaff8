package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"takeout/internal/exiftool"
	"takeout/internal/logging"
	"takeout/internal/mediatype"
	"takeout/internal/metadata"
	"takeout/internal/resolve"
	"takeout/internal/services"
	"takeout/internal/store"
)

// execute materializes every target_resolved row. Targets that already exist
// with effectively identical metadata (a prior partial run) advance to skipped
// without touching disk. Everything else is copied, stamped with the merged
// timestamp, and queued into a tag-write batch flushed once per page. In
// dry-run mode rows stay at target_resolved so a later real run still imports
// them; only targets already materialized on disk advance to skipped.
func (p *Pipeline) execute(ctx context.Context, report *Report) error {
	logger := logging.NewComponentLogger(logging.WithContext(ctx, p.logger), "execution")

	return p.forEachPage(ctx, store.StatusTargetResolved, func(ctx context.Context, page []*store.File) error {
		existing := p.readExistingTargets(ctx, logger, page)

		var (
			mu        sync.Mutex
			writes    []exiftool.WriteOp
			writeRows = make(map[string]int64, len(page))
		)
		outcomes := p.mapPage(ctx, page, func(ctx context.Context, file *store.File) FileOutcome {
			outcome, op := p.executeOne(ctx, file, existing)
			if op != nil {
				mu.Lock()
				writes = append(writes, *op)
				writeRows[op.Path] = file.ID
				mu.Unlock()
			}
			return outcome
		})

		if len(writes) > 0 {
			demoted := make(map[int64]error)
			for _, result := range p.exif.WriteBatch(ctx, writes) {
				if result.Err != nil {
					demoted[writeRows[result.Path]] = result.Err
				}
			}
			for i, outcome := range outcomes {
				if err, ok := demoted[outcome.FileID]; ok {
					outcomes[i] = failed(outcome.FileID, err)
				}
			}
		}
		if p.cfg.Pipeline.DryRun {
			for _, outcome := range outcomes {
				if outcome.Err == nil && outcome.Status == store.StatusTargetResolved {
					report.WouldCopy++
				}
			}
		}
		return p.commitOutcomes(ctx, outcomes)
	})
}

// readExistingTargets batch-reads embedded tags from every target path on the
// page that is already present on disk. A read failure downgrades the page to
// treating those targets as unverified, which re-copies them.
func (p *Pipeline) readExistingTargets(ctx context.Context, logger *slog.Logger, page []*store.File) map[string]map[string]any {
	var present []string
	for _, file := range page {
		if file.TargetPath == "" {
			continue
		}
		if _, err := os.Stat(file.TargetPath); err == nil {
			present = append(present, file.TargetPath)
		}
	}
	if len(present) == 0 {
		return nil
	}

	tags, err := p.exif.ReadBatch(ctx, present, metadata.ReadTags)
	if err != nil {
		logger.Warn("could not verify existing targets; re-copying",
			logging.Int("targets", len(present)), logging.Error(err))
		return nil
	}
	return tags
}

func (p *Pipeline) executeOne(ctx context.Context, file *store.File, existing map[string]map[string]any) (FileOutcome, *exiftool.WriteOp) {
	if file.TargetPath == "" {
		return failed(file.ID, fmt.Errorf("row has no target path")), nil
	}

	merged, ok, err := p.store.Metadata(ctx, file.ID, store.SourceMerged)
	if err != nil {
		return failed(file.ID, services.Wrap(services.ErrPersistence, "execution", "load-merged", file.SourcePath, err)), nil
	}
	if !ok || merged.Timestamp == nil {
		return failed(file.ID, fmt.Errorf("row has no merged record")), nil
	}

	profile := mediatype.Lookup(file.TargetPath)
	if raw, found := existing[file.TargetPath]; found {
		current := metadata.FromTags(raw, profile)
		if current.ApproxEqual(merged) {
			logging.WithContext(ctx, p.logger).Debug("target already materialized",
				logging.String("target", file.TargetPath))
			return succeeded(file.ID, store.StatusSkipped), nil
		}
	}

	if err := p.org.Materialize(file.SourcePath, file.TargetPath, *merged.Timestamp); err != nil {
		return failed(file.ID, err), nil
	}
	if p.cfg.Pipeline.DryRun {
		return succeeded(file.ID, store.StatusTargetResolved), nil
	}

	embedded, sidecarRecord, err := p.sourceRecords(ctx, file.ID)
	if err != nil {
		return failed(file.ID, err), nil
	}
	res := resolve.Resolution{Merged: merged, Suppressed: resolve.Suppress(embedded, sidecarRecord)}
	tags := res.WritePayload().Tags(profile)
	if len(tags) == 0 || !profile.SupportsWrite() {
		return succeeded(file.ID, store.StatusSuccess), nil
	}

	return succeeded(file.ID, store.StatusSuccess), &exiftool.WriteOp{Path: file.TargetPath, Tags: tags}
}
