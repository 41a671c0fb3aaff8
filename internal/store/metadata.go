package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"takeout/internal/metadata"
)

// SaveMetadata upserts one metadata record for a file under a source label
// (sidecar, embedded, merged). The record is stored as JSON so absent fields
// round-trip exactly: a null people array stays distinguishable from an
// empty one.
func (s *Store) SaveMetadata(ctx context.Context, fileID int64, source string, meta metadata.Metadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO file_metadata (file_id, source, payload, updated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(file_id, source) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		fileID,
		source,
		string(payload),
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

// Metadata fetches the record stored for a file under a source label. The
// second return value reports whether a row exists.
func (s *Store) Metadata(ctx context.Context, fileID int64, source string) (metadata.Metadata, bool, error) {
	var payload string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT payload FROM file_metadata WHERE file_id = ? AND source = ?`,
		fileID,
		source,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return metadata.Metadata{}, false, nil
	}
	if err != nil {
		return metadata.Metadata{}, false, fmt.Errorf("get metadata: %w", err)
	}

	var meta metadata.Metadata
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return metadata.Metadata{}, false, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return meta, true, nil
}

// DeleteMetadata removes the record stored for a file under a source label.
func (s *Store) DeleteMetadata(ctx context.Context, fileID int64, source string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`DELETE FROM file_metadata WHERE file_id = ? AND source = ?`,
		fileID,
		source,
	); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}
