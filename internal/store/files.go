package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"takeout/internal/services"
)

const fileColumns = "id, source_path, media_type, file_size, mtime, status, phase, target_path, error_message, created_at, updated_at"

func scanFile(scanner interface{ Scan(dest ...any) error }) (*File, error) {
	var (
		id           int64
		sourcePath   string
		mediaType    string
		fileSize     int64
		mtime        int64
		statusStr    string
		phase        string
		targetPath   sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&mediaType,
		&fileSize,
		&mtime,
		&statusStr,
		&phase,
		&targetPath,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	file := &File{
		ID:           id,
		SourcePath:   sourcePath,
		MediaType:    mediaType,
		FileSize:     fileSize,
		MTime:        mtime,
		Status:       Status(statusStr),
		Phase:        phase,
		TargetPath:   targetPath.String,
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		file.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		file.UpdatedAt = updated
	}
	return file, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

// AddFile registers a discovered file along with the inventory facts captured
// at discovery time (capability profile name, size in bytes, modification
// time). The insert is idempotent on source_path: re-running discovery over
// the same tree never duplicates rows or disturbs existing state. It returns
// the persisted row and whether this call created it.
func (s *Store) AddFile(ctx context.Context, sourcePath, mediaType string, fileSize, mtime int64) (*File, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO files (source_path, media_type, file_size, mtime, status, phase, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(source_path) DO NOTHING`,
		sourcePath,
		mediaType,
		fileSize,
		mtime,
		StatusNew,
		"discovery",
		now,
		now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert file: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	file, err := s.FileBySourcePath(ctx, sourcePath)
	if err != nil {
		return nil, false, err
	}
	return file, affected > 0, nil
}

// FileByID fetches a tracked file by identifier.
func (s *Store) FileByID(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id = ?`, id)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "file-by-id", fmt.Sprintf("id %d", id), err)
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// FileBySourcePath fetches a tracked file by its source path.
func (s *Store) FileBySourcePath(ctx context.Context, sourcePath string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE source_path = ?`, sourcePath)
	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "file-by-path", sourcePath, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get file by path: %w", err)
	}
	return file, nil
}

// SetStatus advances a file's lifecycle state, recording which phase moved it
// and replacing any previous error message with the supplied one (empty
// clears it).
func (s *Store) SetStatus(ctx context.Context, id int64, status Status, phase, errorMessage string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE files SET status = ?, phase = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		phase,
		nullableString(errorMessage),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// SetTargetPath records the resolved destination for a file.
func (s *Store) SetTargetPath(ctx context.Context, id int64, targetPath string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE files SET target_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(targetPath),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("set target path: %w", err)
	}
	return nil
}

// TargetPathInUse reports whether any other file has already claimed the
// given destination path.
func (s *Store) TargetPathInUse(ctx context.Context, targetPath string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM files WHERE target_path = ? AND id != ?`,
		targetPath,
		excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check target path: %w", err)
	}
	return count > 0, nil
}

// FilesByStatus returns up to limit files in the given state with id greater
// than afterID, ordered by id. Callers page through work by passing the last
// id seen; rows whose status changed mid-run drop out of later pages.
func (s *Store) FilesByStatus(ctx context.Context, status Status, afterID int64, limit int) ([]*File, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM files WHERE status = ? AND id > ? ORDER BY id LIMIT ?`,
		status,
		afterID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query by status: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// Summarize returns aggregated counts per lifecycle state.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM files GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var (
			statusStr string
			count     int
		)
		if err := rows.Scan(&statusStr, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch Status(statusStr) {
		case StatusNew:
			summary.New = count
		case StatusMetadataRead:
			summary.MetadataRead = count
		case StatusTargetResolved:
			summary.TargetResolved = count
		case StatusSuccess:
			summary.Success = count
		case StatusSkipped:
			summary.Skipped = count
		case StatusFailed:
			summary.Failed = count
		}
	}
	return summary, rows.Err()
}
