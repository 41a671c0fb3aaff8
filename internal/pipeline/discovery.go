package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"takeout/internal/logging"
	"takeout/internal/mediatype"
	"takeout/internal/services"
	"takeout/internal/sidecar"
)

// discover walks the source tree and registers every recognized media file.
// Registration is idempotent: a path seen on a previous run keeps its row and
// its status. Unreadable entries are logged and skipped; only a failure to
// read the source root itself aborts.
func (p *Pipeline) discover(ctx context.Context, report *Report) error {
	logger := logging.NewComponentLogger(logging.WithContext(ctx, p.logger), "discovery")
	root := p.cfg.Paths.SourceDir

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("skipping unreadable entry", logging.String("path", path), logging.Error(walkErr))
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), ".json") {
			return nil
		}
		if sidecar.IsEditedVariant(name) {
			logger.Debug("skipping edited variant", logging.String("path", path))
			return nil
		}
		profile := mediatype.Lookup(name)
		if !profile.Recognized {
			logger.Debug("skipping unrecognized extension", logging.String("path", path))
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			logger.Warn("skipping unstattable entry", logging.String("path", path), logging.Error(err))
			return nil
		}

		_, created, err := p.store.AddFile(ctx, path, profile.Name, info.Size(), info.ModTime().Unix())
		if err != nil {
			return services.Wrap(services.ErrPersistence, "discovery", "add-file", path, err)
		}
		report.Discovered++
		if created {
			report.Added++
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("discovery complete",
		logging.Int("discovered", report.Discovered),
		logging.Int("new", report.Added))
	return nil
}
