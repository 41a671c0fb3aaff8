// Package metadata defines the per-asset metadata value reconciled by the
// pipeline and its conversions to and from the two source representations:
// Takeout sidecar JSON and raw exiftool tag maps.
//
// Field presence is three-state where the merge rules require it. A nil
// People slice means the source said nothing; a non-nil empty slice means the
// source explicitly declared "no people". The distinction survives the JSON
// round-trip through the persistence store (nil marshals to null, empty to
// []), which is what the people-merge rule depends on.
package metadata

import "math"

// GPSData is a decimal-degree coordinate with optional altitude in meters.
type GPSData struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Altitude  *float64 `json:"altitude"`
}

// Metadata is the normalized per-asset metadata value. The zero value is an
// empty record with every field absent.
type Metadata struct {
	// Timestamp is seconds since epoch, nil when the source provided none.
	Timestamp *int64 `json:"timestamp"`
	// GPS is nil when absent. A (0,0) pair is never materialized here; the
	// Takeout export uses it as a "no location" sentinel.
	GPS *GPSData `json:"gps"`
	// People is nil when the source had no people field, non-nil (possibly
	// empty) when it did.
	People []string `json:"people"`
	// URL is empty when absent.
	URL string `json:"url"`
}

// IsEmpty reports whether no field carries a value. An explicitly empty
// people list still counts as a value.
func (m Metadata) IsEmpty() bool {
	return m.Timestamp == nil && m.GPS == nil && m.People == nil && m.URL == ""
}

const (
	timestampTolerance = 1.0    // seconds
	coordinateEpsilon  = 0.0001 // degrees
)

// ApproxEqual reports whether two records are effectively identical:
// timestamps within one second, coordinates within 1e-4 degrees per axis,
// people equal as sets, URL exactly equal. Used by the execution engine to
// detect already-materialized destination files.
func (m Metadata) ApproxEqual(other Metadata) bool {
	if (m.Timestamp == nil) != (other.Timestamp == nil) {
		return false
	}
	if m.Timestamp != nil && math.Abs(float64(*m.Timestamp-*other.Timestamp)) > timestampTolerance {
		return false
	}

	if (m.GPS == nil) != (other.GPS == nil) {
		return false
	}
	if m.GPS != nil {
		if math.Abs(m.GPS.Latitude-other.GPS.Latitude) > coordinateEpsilon {
			return false
		}
		if math.Abs(m.GPS.Longitude-other.GPS.Longitude) > coordinateEpsilon {
			return false
		}
	}

	if (m.People == nil) != (other.People == nil) {
		return false
	}
	if m.People != nil && !sameNameSet(m.People, other.People) {
		return false
	}

	return m.URL == other.URL
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, name := range a {
		seen[name]++
	}
	for _, name := range b {
		seen[name]--
		if seen[name] < 0 {
			return false
		}
	}
	return true
}
