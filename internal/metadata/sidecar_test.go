package metadata_test

import (
	"testing"

	"takeout/internal/metadata"
)

func TestFromSidecarFull(t *testing.T) {
	raw := []byte(`{
		"title": "IMG_0001.jpg",
		"photoTakenTime": {"timestamp": "1600000000", "formatted": "Sep 13, 2020"},
		"geoData": {"latitude": 40.7128, "longitude": -74.006, "altitude": 10.5},
		"url": "https://photos.example/AF1x",
		"people": [{"name": "Alice"}, {"name": "Bob"}]
	}`)
	meta, err := metadata.FromSidecar(raw)
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if meta.Timestamp == nil || *meta.Timestamp != 1600000000 {
		t.Fatalf("timestamp = %v", meta.Timestamp)
	}
	if meta.GPS == nil || meta.GPS.Latitude != 40.7128 || meta.GPS.Longitude != -74.006 {
		t.Fatalf("gps = %+v", meta.GPS)
	}
	if meta.GPS.Altitude == nil || *meta.GPS.Altitude != 10.5 {
		t.Fatalf("altitude = %v", meta.GPS.Altitude)
	}
	if meta.URL != "https://photos.example/AF1x" {
		t.Fatalf("url = %q", meta.URL)
	}
	if len(meta.People) != 2 || meta.People[0] != "Alice" || meta.People[1] != "Bob" {
		t.Fatalf("people = %v", meta.People)
	}
}

func TestFromSidecarNumericTimestamp(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{"photoTakenTime": {"timestamp": 1600000000}}`))
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if meta.Timestamp == nil || *meta.Timestamp != 1600000000 {
		t.Fatalf("timestamp = %v", meta.Timestamp)
	}
}

func TestFromSidecarUnparsableTimestamp(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{"photoTakenTime": {"timestamp": "soon"}}`))
	if err != nil {
		t.Fatalf("unparsable timestamp should not be fatal: %v", err)
	}
	if meta.Timestamp != nil {
		t.Fatalf("timestamp = %v, want absent", meta.Timestamp)
	}
}

func TestFromSidecarNullIslandDropped(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{"geoData": {"latitude": 0, "longitude": 0, "altitude": 0}}`))
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if meta.GPS != nil {
		t.Fatalf("gps = %+v, want absent for (0,0)", meta.GPS)
	}
}

func TestFromSidecarZeroAltitudeDropped(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{"geoData": {"latitude": 1.5, "longitude": 2.5, "altitude": 0}}`))
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if meta.GPS == nil {
		t.Fatal("gps absent")
	}
	if meta.GPS.Altitude != nil {
		t.Fatalf("altitude = %v, want absent for 0.0", meta.GPS.Altitude)
	}
}

func TestFromSidecarPartialGeoDropped(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{"geoData": {"latitude": 1.5, "longitude": 2.5}}`))
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if meta.GPS != nil {
		t.Fatalf("gps = %+v, want absent when altitude key missing", meta.GPS)
	}
}

func TestFromSidecarExplicitEmptyPeople(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{"people": []}`))
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if meta.People == nil {
		t.Fatal("explicit empty people became absent")
	}
	if len(meta.People) != 0 {
		t.Fatalf("people = %v", meta.People)
	}

	meta, err = metadata.FromSidecar([]byte(`{}`))
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if meta.People != nil {
		t.Fatalf("absent people became %v", meta.People)
	}
}

func TestFromSidecarEmptyNamesDropped(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{"people": [{"name": ""}, {"name": "Alice"}]}`))
	if err != nil {
		t.Fatalf("FromSidecar: %v", err)
	}
	if len(meta.People) != 1 || meta.People[0] != "Alice" {
		t.Fatalf("people = %v", meta.People)
	}
}

func TestFromSidecarMalformed(t *testing.T) {
	meta, err := metadata.FromSidecar([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !meta.IsEmpty() {
		t.Fatalf("malformed document produced data: %+v", meta)
	}
}
