// Package organizer derives destination paths from resolved timestamps and
// materializes files into the YYYY/MM library layout.
package organizer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"takeout/internal/fileutil"
	"takeout/internal/logging"
	"takeout/internal/mediatype"
)

// collisionProbeLimit caps the `name_N.ext` probe sequence. Hitting it means
// something pathological is generating same-named files.
const collisionProbeLimit = 1000

// ErrCollisionExhausted indicates the collision probe limit was reached
// without finding a free name.
var ErrCollisionExhausted = errors.New("collision resolution exhausted")

// Organizer computes and materializes destination paths under one root.
type Organizer struct {
	destRoot string
	dryRun   bool
	logger   *slog.Logger
}

// New constructs an organizer rooted at destRoot.
func New(destRoot string, dryRun bool, logger *slog.Logger) *Organizer {
	return &Organizer{
		destRoot: destRoot,
		dryRun:   dryRun,
		logger:   logging.NewComponentLogger(logger, "organizer"),
	}
}

// TargetPath computes `<root>/<YYYY>/<MM>/<filename>` from the local calendar
// date of the resolved timestamp. The filename is preserved verbatim except
// the legacy motion-photo extension, which is rewritten to .mp4.
func (o *Organizer) TargetPath(timestamp int64, filename string) string {
	when := time.Unix(timestamp, 0).Local()
	if strings.EqualFold(filepath.Ext(filename), mediatype.MotionPhotoExt) {
		filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".mp4"
	}
	return filepath.Join(o.destRoot, fmt.Sprintf("%04d", when.Year()), fmt.Sprintf("%02d", int(when.Month())), filename)
}

// ResolveCollision returns targetPath when free, otherwise the first
// `name_N.ext` variant (probing N from 1) that does not exist on disk and is
// not claimed. The claimed callback lets callers also exclude paths reserved
// in the state database but not yet materialized; it may be nil.
func (o *Organizer) ResolveCollision(targetPath string, claimed func(string) (bool, error)) (string, error) {
	free, err := o.available(targetPath, claimed)
	if err != nil {
		return "", err
	}
	if free {
		return targetPath, nil
	}

	dir := filepath.Dir(targetPath)
	ext := filepath.Ext(targetPath)
	stem := strings.TrimSuffix(filepath.Base(targetPath), ext)

	for n := 1; n <= collisionProbeLimit; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		free, err := o.available(candidate, claimed)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCollisionExhausted, targetPath)
}

func (o *Organizer) available(path string, claimed func(string) (bool, error)) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat target: %w", err)
	}
	if claimed == nil {
		return true, nil
	}
	taken, err := claimed(path)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Materialize copies src to dest, creating parent directories and stamping
// the copy's modification time with the resolved timestamp. In dry-run mode
// it only logs the planned copy.
func (o *Organizer) Materialize(src, dest string, timestamp int64) error {
	if o.dryRun {
		o.logger.Info("dry-run: would copy",
			logging.String("source", src),
			logging.String("target", dest))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(src, dest); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := fileutil.SetModTime(dest, timestamp); err != nil {
		return fmt.Errorf("stamp mtime: %w", err)
	}
	return nil
}
