package store

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a tracked file.
type Status string

const (
	StatusNew            Status = "new"
	StatusMetadataRead   Status = "metadata_read"
	StatusTargetResolved Status = "target_resolved"
	StatusSuccess        Status = "success"
	StatusSkipped        Status = "skipped"
	StatusFailed         Status = "failed"
)

var allStatuses = []Status{
	StatusNew,
	StatusMetadataRead,
	StatusTargetResolved,
	StatusSuccess,
	StatusSkipped,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the file's lifecycle for this and
// future runs.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusSkipped:
		return true
	default:
		return false
	}
}

// Metadata source labels for persisted metadata rows. A file carries at most
// one row per source.
const (
	SourceSidecar  = "sidecar"
	SourceEmbedded = "embedded"
	SourceMerged   = "merged"
)

// File represents a tracked media file persisted in SQLite. MediaType,
// FileSize, and MTime are captured once at discovery; Phase names the phase
// that last moved the row.
type File struct {
	ID           int64
	SourcePath   string
	MediaType    string
	FileSize     int64
	MTime        int64
	Status       Status
	Phase        string
	TargetPath   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary describes aggregated file counts per lifecycle state.
type Summary struct {
	Total          int
	New            int
	MetadataRead   int
	TargetResolved int
	Success        int
	Skipped        int
	Failed         int
}

// Remaining reports how many files still need work in a future run.
func (s Summary) Remaining() int {
	return s.New + s.MetadataRead + s.TargetResolved
}
