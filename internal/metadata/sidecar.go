package metadata

import (
	"encoding/json"
	"strconv"
	"strings"
)

// sidecarDoc is the subset of the Takeout sidecar schema this tool consumes.
// All fields are optional.
type sidecarDoc struct {
	PhotoTakenTime *struct {
		Timestamp epochSeconds `json:"timestamp"`
	} `json:"photoTakenTime"`
	GeoData *struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Altitude  *float64 `json:"altitude"`
	} `json:"geoData"`
	URL    string `json:"url"`
	People []struct {
		Name string `json:"name"`
	} `json:"people"`
}

// epochSeconds tolerates the timestamp arriving as either a quoted string
// (the documented export format) or a bare number.
type epochSeconds struct {
	value int64
	valid bool
}

func (e *epochSeconds) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	raw = strings.Trim(raw, `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil // unparsable timestamp is treated as absent, not fatal
	}
	e.value = parsed
	e.valid = true
	return nil
}

// FromSidecar parses a Takeout sidecar document into a Metadata record.
// Malformed JSON yields an empty record and the parse error so callers can
// log a warning; the error is never fatal to the pipeline.
func FromSidecar(raw []byte) (Metadata, error) {
	var doc sidecarDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Metadata{}, err
	}

	var meta Metadata

	if doc.PhotoTakenTime != nil && doc.PhotoTakenTime.Timestamp.valid {
		ts := doc.PhotoTakenTime.Timestamp.value
		meta.Timestamp = &ts
	}

	if geo := doc.GeoData; geo != nil && geo.Latitude != nil && geo.Longitude != nil && geo.Altitude != nil {
		lat, lon := *geo.Latitude, *geo.Longitude
		// The export writes (0,0) when location is unknown.
		if !(lat == 0 && lon == 0) {
			gps := &GPSData{Latitude: lat, Longitude: lon}
			// Altitude 0.0 is ambiguous with sea level; treat as absent.
			if *geo.Altitude != 0 {
				alt := *geo.Altitude
				gps.Altitude = &alt
			}
			meta.GPS = gps
		}
	}

	if doc.URL != "" {
		meta.URL = doc.URL
	}

	if doc.People != nil {
		names := make([]string, 0, len(doc.People))
		for _, person := range doc.People {
			if person.Name != "" {
				names = append(names, person.Name)
			}
		}
		// An explicitly empty people list is authoritative "no people" and
		// must stay distinguishable from an absent field.
		meta.People = names
	}

	return meta, nil
}
