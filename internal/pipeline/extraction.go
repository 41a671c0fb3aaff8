package pipeline

import (
	"context"
	"os"

	"takeout/internal/logging"
	"takeout/internal/mediatype"
	"takeout/internal/metadata"
	"takeout/internal/services"
	"takeout/internal/sidecar"
	"takeout/internal/store"
)

// readMetadata extracts both source records for every NEW row: embedded tags
// in one batched tool invocation per page, sidecar JSON per file. Rows advance
// to metadata_read even when one or both sources yielded nothing; resolution
// falls back to the filesystem timestamp.
func (p *Pipeline) readMetadata(ctx context.Context, _ *Report) error {
	logger := logging.NewComponentLogger(logging.WithContext(ctx, p.logger), "extraction")

	return p.forEachPage(ctx, store.StatusNew, func(ctx context.Context, page []*store.File) error {
		paths := make([]string, 0, len(page))
		for _, file := range page {
			paths = append(paths, file.SourcePath)
		}

		embedded, err := p.exif.ReadBatch(ctx, paths, metadata.ReadTags)
		if err != nil {
			// The whole batch fails together; these files proceed on
			// sidecar and filesystem data alone.
			logger.Error("embedded tag read failed for page", logging.Int("files", len(page)), logging.Error(err))
			embedded = nil
		}

		outcomes := p.mapPage(ctx, page, func(ctx context.Context, file *store.File) FileOutcome {
			if raw, ok := embedded[file.SourcePath]; ok {
				record := metadata.FromTags(raw, mediatype.Lookup(file.SourcePath))
				if !record.IsEmpty() {
					if err := p.store.SaveMetadata(ctx, file.ID, store.SourceEmbedded, record); err != nil {
						return failed(file.ID, services.Wrap(services.ErrPersistence, "extraction", "save-embedded", file.SourcePath, err))
					}
				}
			}

			if sidecarPath, ok := sidecar.Find(file.SourcePath); ok {
				if err := p.readSidecar(ctx, file.ID, sidecarPath); err != nil {
					if services.IsFatal(err) {
						return failed(file.ID, err)
					}
					logging.WithContext(ctx, logger).Warn("sidecar unusable",
						logging.String("sidecar", sidecarPath), logging.Error(err))
				}
			}

			return succeeded(file.ID, store.StatusMetadataRead)
		})
		return p.commitOutcomes(ctx, outcomes)
	})
}

// readSidecar parses one sidecar file and persists its record. A malformed or
// unreadable sidecar is a recoverable per-file condition, not a failure.
func (p *Pipeline) readSidecar(ctx context.Context, fileID int64, sidecarPath string) error {
	raw, err := os.ReadFile(sidecarPath)
	if err != nil {
		return err
	}
	record, err := metadata.FromSidecar(raw)
	if err != nil {
		return err
	}
	if record.IsEmpty() {
		return nil
	}
	if err := p.store.SaveMetadata(ctx, fileID, store.SourceSidecar, record); err != nil {
		return services.Wrap(services.ErrPersistence, "extraction", "save-sidecar", sidecarPath, err)
	}
	return nil
}
