package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"takeout/internal/logging"
	"takeout/internal/metadata"
	"takeout/internal/resolve"
	"takeout/internal/services"
	"takeout/internal/store"
)

// resolveTargets merges each metadata_read row's source records into the
// authoritative record and claims a collision-free target path. Rows are
// processed serially: a path claim must be visible in the store before the
// next row probes, or two files could resolve to the same target.
func (p *Pipeline) resolveTargets(ctx context.Context, _ *Report) error {
	return p.forEachPage(ctx, store.StatusMetadataRead, func(ctx context.Context, page []*store.File) error {
		outcomes := make([]FileOutcome, 0, len(page))
		for _, file := range page {
			outcomes = append(outcomes, p.resolveOne(services.WithFileID(ctx, file.ID), file))
		}
		return p.commitOutcomes(ctx, outcomes)
	})
}

func (p *Pipeline) resolveOne(ctx context.Context, file *store.File) FileOutcome {
	embedded, sidecarRecord, err := p.sourceRecords(ctx, file.ID)
	if err != nil {
		return failed(file.ID, err)
	}

	info, err := os.Stat(file.SourcePath)
	if err != nil {
		return failed(file.ID, fmt.Errorf("source file unavailable: %w", err))
	}

	res := resolve.Merge(embedded, sidecarRecord, info.ModTime().Unix())
	if err := p.store.SaveMetadata(ctx, file.ID, store.SourceMerged, res.Merged); err != nil {
		return failed(file.ID, services.Wrap(services.ErrPersistence, "resolution", "save-merged", file.SourcePath, err))
	}

	target := p.org.TargetPath(*res.Merged.Timestamp, filepath.Base(file.SourcePath))
	target, err = p.org.ResolveCollision(target, func(path string) (bool, error) {
		return p.store.TargetPathInUse(ctx, path, file.ID)
	})
	if err != nil {
		return failed(file.ID, err)
	}
	if err := p.store.SetTargetPath(ctx, file.ID, target); err != nil {
		return failed(file.ID, services.Wrap(services.ErrPersistence, "resolution", "claim-target", target, err))
	}

	logging.WithContext(ctx, p.logger).Debug("target resolved",
		logging.String("source", file.SourcePath), logging.String("target", target))
	return succeeded(file.ID, store.StatusTargetResolved)
}

// sourceRecords loads the persisted embedded and sidecar records for a row.
// A source that produced nothing is represented by the empty record.
func (p *Pipeline) sourceRecords(ctx context.Context, fileID int64) (embedded, sidecarRecord metadata.Metadata, err error) {
	embedded, _, err = p.store.Metadata(ctx, fileID, store.SourceEmbedded)
	if err != nil {
		return embedded, sidecarRecord, services.Wrap(services.ErrPersistence, "resolution", "load-embedded", "", err)
	}
	sidecarRecord, _, err = p.store.Metadata(ctx, fileID, store.SourceSidecar)
	if err != nil {
		return embedded, sidecarRecord, services.Wrap(services.ErrPersistence, "resolution", "load-sidecar", "", err)
	}
	return embedded, sidecarRecord, nil
}
