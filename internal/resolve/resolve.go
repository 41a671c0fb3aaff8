// Package resolve merges the two metadata records a file can carry (embedded
// tags and sidecar JSON) into the single authoritative record used for path
// derivation and tag writing.
package resolve

import (
	"time"

	"takeout/internal/metadata"
)

// Cameras with an unset clock stamp files with their firmware epoch, so any
// year before this is treated as no timestamp at all.
const minValidYear = 1999

// ValidTimestamp reports whether a timestamp is plausible: its local
// calendar year is at or after the validity floor.
func ValidTimestamp(ts int64) bool {
	return time.Unix(ts, 0).Local().Year() >= minValidYear
}

// Suppressions marks merged fields that must not be written back to the
// destination file because the source file already carries the correct value.
type Suppressions struct {
	Timestamp bool
	GPS       bool
	URL       bool
}

// Resolution is the outcome of merging a file's metadata records.
type Resolution struct {
	Merged     metadata.Metadata
	Suppressed Suppressions
}

// Suppress computes the write-suppression set from the two source records.
// It depends only on what each source supplied, so it can be recomputed from
// persisted records without re-deriving the full merge.
func Suppress(embedded, sidecar metadata.Metadata) Suppressions {
	return Suppressions{
		Timestamp: embedded.Timestamp != nil && ValidTimestamp(*embedded.Timestamp),
		GPS:       embedded.GPS != nil && sidecar.GPS != nil,
		URL:       embedded.URL != "",
	}
}

// Merge produces the authoritative record field by field:
//
//   - timestamp: embedded wins if valid, else sidecar if valid, else the
//     filesystem modification time. The merged timestamp is always set.
//   - gps: embedded wins if present, else sidecar.
//   - people: the sidecar wins whenever it provided a people field at all.
//     An explicitly empty sidecar list is an authoritative "no people" and
//     overrides a non-empty embedded value; only a sidecar with no people
//     field falls back to embedded.
//   - url: embedded wins if present, else sidecar.
func Merge(embedded, sidecar metadata.Metadata, mtime int64) Resolution {
	res := Resolution{Suppressed: Suppress(embedded, sidecar)}

	switch {
	case embedded.Timestamp != nil && ValidTimestamp(*embedded.Timestamp):
		ts := *embedded.Timestamp
		res.Merged.Timestamp = &ts
	case sidecar.Timestamp != nil && ValidTimestamp(*sidecar.Timestamp):
		ts := *sidecar.Timestamp
		res.Merged.Timestamp = &ts
	default:
		ts := mtime
		res.Merged.Timestamp = &ts
	}

	switch {
	case embedded.GPS != nil:
		res.Merged.GPS = cloneGPS(embedded.GPS)
	case sidecar.GPS != nil:
		res.Merged.GPS = cloneGPS(sidecar.GPS)
	}

	if sidecar.People != nil {
		res.Merged.People = append([]string{}, sidecar.People...)
	} else if embedded.People != nil {
		res.Merged.People = append([]string{}, embedded.People...)
	}

	switch {
	case embedded.URL != "":
		res.Merged.URL = embedded.URL
	case sidecar.URL != "":
		res.Merged.URL = sidecar.URL
	}

	return res
}

// WritePayload returns the merged record with suppressed fields cleared,
// ready to be rendered into write tags.
func (r Resolution) WritePayload() metadata.Metadata {
	payload := r.Merged
	if r.Suppressed.Timestamp {
		payload.Timestamp = nil
	}
	if r.Suppressed.GPS {
		payload.GPS = nil
	}
	if r.Suppressed.URL {
		payload.URL = ""
	}
	return payload
}

func cloneGPS(gps *metadata.GPSData) *metadata.GPSData {
	clone := &metadata.GPSData{Latitude: gps.Latitude, Longitude: gps.Longitude}
	if gps.Altitude != nil {
		alt := *gps.Altitude
		clone.Altitude = &alt
	}
	return clone
}
