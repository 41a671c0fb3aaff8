package metadata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"takeout/internal/mediatype"
)

// ReadTags is the tag list requested from the tag I/O collaborator for
// embedded reads.
var ReadTags = []string{
	"DateTimeOriginal", "CreateDate", "ModifyDate", "DateCreated",
	"GPSLatitude", "GPSLongitude", "GPSAltitude", "GPSCoordinates",
	"GPSLatitudeRef", "GPSLongitudeRef",
	"XMP:Subject", "XMP:PersonInImage", "IPTC:Keywords",
	"ExifIFD:UserComment", "XMP:UserComment",
}

// exiftool serializes timestamps as "YYYY:mm:dd HH:MM:SS", optionally
// followed by subseconds or a zone offset that we strip.
const tagDateLayout = "2006:01:02 15:04:05"

var datePriority = []string{"DateTimeOriginal", "CreateDate", "ModifyDate", "DateCreated"}

// FromTags parses a raw exiftool tag map into a Metadata record. Keys may be
// namespace-qualified ("EXIF:DateTimeOriginal") or bare; for dates, qualified
// EXIF keys win, then XMP keys, so XMP-only formats like gif still resolve.
// The calendar portion of a date string is interpreted as UTC for
// QuickTime-container profiles and as local time otherwise.
func FromTags(tags map[string]any, profile mediatype.Profile) Metadata {
	var meta Metadata

	if ts, ok := parseTagDate(tags, profile); ok {
		meta.Timestamp = &ts
	}
	if gps := parseTagGPS(tags); gps != nil {
		meta.GPS = gps
	}
	if people := parseTagPeople(tags); len(people) > 0 {
		meta.People = people
	}
	if url := parseTagURL(tags); url != "" {
		meta.URL = url
	}
	return meta
}

func parseTagDate(tags map[string]any, profile mediatype.Profile) (int64, bool) {
	var found string
	for _, want := range datePriority {
		matches := make([]string, 0, 2)
		for key := range tags {
			if strings.HasSuffix(key, want) {
				matches = append(matches, key)
			}
		}
		if len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		picked := ""
		for _, namespace := range []string{"EXIF", "XMP"} {
			for _, key := range matches {
				if strings.Contains(key, namespace) {
					picked = key
					break
				}
			}
			if picked != "" {
				break
			}
		}
		if picked == "" {
			picked = matches[0]
		}
		found = fmt.Sprint(tags[picked])
		break
	}
	if found == "" {
		return 0, false
	}

	if len(found) > len(tagDateLayout) {
		found = found[:len(tagDateLayout)]
	}
	loc := time.Local
	if profile.SupportsQT {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation(tagDateLayout, found, loc)
	if err != nil {
		return 0, false
	}
	return parsed.Unix(), true
}

func parseTagGPS(tags map[string]any) *GPSData {
	var (
		lat, lon, alt   *float64
		latRef, lonRef  string
		haveComposite   bool
		compositeLatLon [2]float64
		compositeAlt    *float64
	)

	for key, value := range tags {
		switch {
		case strings.HasSuffix(key, "GPSLatitudeRef"):
			latRef = fmt.Sprint(value)
		case strings.HasSuffix(key, "GPSLongitudeRef"):
			lonRef = fmt.Sprint(value)
		case strings.HasSuffix(key, "GPSLatitude"):
			if v, ok := toFloat(value); ok {
				lat = &v
			}
		case strings.HasSuffix(key, "GPSLongitude"):
			if v, ok := toFloat(value); ok {
				lon = &v
			}
		case strings.HasSuffix(key, "GPSAltitude"):
			if v, ok := toFloat(value); ok {
				alt = &v
			}
		case strings.HasSuffix(key, "GPSCoordinates"):
			// QuickTime composite form: "lat, lon" or "lat, lon, alt".
			parts := strings.Split(fmt.Sprint(value), ",")
			if len(parts) < 2 {
				continue
			}
			parsed := make([]float64, 0, 3)
			ok := true
			for _, part := range parts {
				v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if err != nil {
					ok = false
					break
				}
				parsed = append(parsed, v)
			}
			if ok && len(parsed) >= 2 {
				haveComposite = true
				compositeLatLon = [2]float64{parsed[0], parsed[1]}
				if len(parsed) >= 3 {
					v := parsed[2]
					compositeAlt = &v
				}
			}
		}
	}

	if (lat == nil || lon == nil) && haveComposite {
		lat = &compositeLatLon[0]
		lon = &compositeLatLon[1]
		if alt == nil {
			alt = compositeAlt
		}
	}
	if lat == nil || lon == nil {
		return nil
	}

	latitude, longitude := *lat, *lon
	if strings.HasPrefix(strings.ToUpper(latRef), "S") && latitude > 0 {
		latitude = -latitude
	}
	if strings.HasPrefix(strings.ToUpper(lonRef), "W") && longitude > 0 {
		longitude = -longitude
	}

	if latitude == 0 && longitude == 0 {
		return nil
	}
	gps := &GPSData{Latitude: latitude, Longitude: longitude}
	if alt != nil {
		v := *alt
		gps.Altitude = &v
	}
	return gps
}

var peopleTags = []string{"XMP:Subject", "XMP:PersonInImage", "IPTC:Keywords"}

func parseTagPeople(tags map[string]any) []string {
	var names []string
	for _, tag := range peopleTags {
		value, ok := lookupTag(tags, tag)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case []any:
			for _, entry := range v {
				if s := fmt.Sprint(entry); s != "" {
					names = append(names, s)
				}
			}
		case string:
			if v != "" {
				names = append(names, v)
			}
		}
	}
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	unique := names[:0]
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}
	sort.Strings(unique)
	return unique
}

var urlTags = []string{"XMP:UserComment", "ExifIFD:UserComment"}

func parseTagURL(tags map[string]any) string {
	for _, tag := range urlTags {
		value, ok := lookupTag(tags, tag)
		if !ok {
			continue
		}
		if s, isString := value.(string); isString {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// lookupTag checks the qualified name first, then the bare tag name, since
// exiftool output may or may not carry group prefixes.
func lookupTag(tags map[string]any, qualified string) (any, bool) {
	if value, ok := tags[qualified]; ok {
		return value, true
	}
	if idx := strings.LastIndex(qualified, ":"); idx >= 0 {
		if value, ok := tags[qualified[idx+1:]]; ok {
			return value, true
		}
	}
	return nil, false
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Tags renders the write payload for a profile using the tag vocabulary that
// profile supports. Fields absent from the record produce no tags.
func (m Metadata) Tags(profile mediatype.Profile) map[string]any {
	tags := make(map[string]any)
	if m.Timestamp != nil {
		m.dateTags(profile, tags)
	}
	if m.GPS != nil {
		m.gpsTags(profile, tags)
	}
	if m.People != nil {
		m.peopleTags(profile, tags)
	}
	if m.URL != "" {
		m.urlTags(profile, tags)
	}
	return tags
}

func (m Metadata) dateTags(profile mediatype.Profile, tags map[string]any) {
	ts := time.Unix(*m.Timestamp, 0)
	local := ts.Local().Format(tagDateLayout)
	utc := ts.UTC().Format(tagDateLayout)

	if profile.SupportsQT {
		tags["QuickTime:CreateDate"] = utc
		tags["QuickTime:ModifyDate"] = utc
		tags["QuickTime:TrackCreateDate"] = utc
		tags["QuickTime:MediaCreateDate"] = utc
	}
	if profile.SupportsXMP {
		if profile.SupportsQT {
			tags["XMP:DateCreated"] = utc
		} else {
			tags["XMP:DateCreated"] = local
		}
	}
	if profile.SupportsEXIF {
		tags["DateTimeOriginal"] = local
		tags["CreateDate"] = local
		tags["ModifyDate"] = local
	}
}

func (m Metadata) gpsTags(profile mediatype.Profile, tags map[string]any) {
	gps := m.GPS
	switch {
	case profile.SupportsQT:
		alt := 0.0
		if gps.Altitude != nil {
			alt = *gps.Altitude
		}
		tags["GPSCoordinates"] = fmt.Sprintf("%s, %s, %s",
			formatCoord(gps.Latitude), formatCoord(gps.Longitude), formatCoord(alt))
	case profile.SupportsEXIF:
		tags["GPSLatitude"] = absCoord(gps.Latitude)
		tags["GPSLatitudeRef"] = hemisphere(gps.Latitude, "N", "S")
		tags["GPSLongitude"] = absCoord(gps.Longitude)
		tags["GPSLongitudeRef"] = hemisphere(gps.Longitude, "E", "W")
		if gps.Altitude != nil {
			tags["GPSAltitude"] = *gps.Altitude
		}
	case profile.SupportsXMP:
		// XMP-only formats (gif) take signed values.
		tags["XMP:GPSLatitude"] = gps.Latitude
		tags["XMP:GPSLongitude"] = gps.Longitude
		if gps.Altitude != nil {
			tags["XMP:GPSAltitude"] = *gps.Altitude
		}
	}
}

func (m Metadata) peopleTags(profile mediatype.Profile, tags map[string]any) {
	if profile.SupportsXMP {
		tags["XMP:Subject"] = m.People
		tags["XMP:PersonInImage"] = m.People
	}
	if profile.SupportsIPTC {
		tags["IPTC:Keywords"] = m.People
	}
}

func (m Metadata) urlTags(profile mediatype.Profile, tags map[string]any) {
	if profile.SupportsXMP {
		tags["XMP:UserComment"] = m.URL
	}
	if profile.SupportsEXIF {
		tags["ExifIFD:UserComment"] = m.URL
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func absCoord(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func hemisphere(v float64, positive, negative string) string {
	if v >= 0 {
		return positive
	}
	return negative
}
