package metadata_test

import (
	"encoding/json"
	"testing"

	"takeout/internal/metadata"
)

func int64Ptr(v int64) *int64 { return &v }

func TestIsEmpty(t *testing.T) {
	if !(metadata.Metadata{}).IsEmpty() {
		t.Fatal("zero value should be empty")
	}
	if (metadata.Metadata{URL: "http://x"}).IsEmpty() {
		t.Fatal("URL counts as a value")
	}
	if (metadata.Metadata{People: []string{}}).IsEmpty() {
		t.Fatal("explicit empty people counts as a value")
	}
}

func TestApproxEqualTimestampTolerance(t *testing.T) {
	a := metadata.Metadata{Timestamp: int64Ptr(1600000000)}
	b := metadata.Metadata{Timestamp: int64Ptr(1600000001)}
	if !a.ApproxEqual(b) {
		t.Fatal("one-second drift should compare equal")
	}
	c := metadata.Metadata{Timestamp: int64Ptr(1600000002)}
	if a.ApproxEqual(c) {
		t.Fatal("two-second drift should not compare equal")
	}
	if a.ApproxEqual(metadata.Metadata{}) {
		t.Fatal("present vs absent timestamp should not compare equal")
	}
}

func TestApproxEqualCoordinates(t *testing.T) {
	a := metadata.Metadata{GPS: &metadata.GPSData{Latitude: 40.7128, Longitude: -74.006}}
	b := metadata.Metadata{GPS: &metadata.GPSData{Latitude: 40.71285, Longitude: -74.00605}}
	if !a.ApproxEqual(b) {
		t.Fatal("sub-epsilon coordinate drift should compare equal")
	}
	c := metadata.Metadata{GPS: &metadata.GPSData{Latitude: 40.72, Longitude: -74.006}}
	if a.ApproxEqual(c) {
		t.Fatal("coordinate drift above epsilon should not compare equal")
	}
}

func TestApproxEqualPeople(t *testing.T) {
	a := metadata.Metadata{People: []string{"Alice", "Bob"}}
	b := metadata.Metadata{People: []string{"Bob", "Alice"}}
	if !a.ApproxEqual(b) {
		t.Fatal("people order should not matter")
	}
	empty := metadata.Metadata{People: []string{}}
	if a.ApproxEqual(empty) {
		t.Fatal("different people sets should not compare equal")
	}
	if empty.ApproxEqual(metadata.Metadata{}) {
		t.Fatal("explicit empty vs absent people should not compare equal")
	}
	if !empty.ApproxEqual(metadata.Metadata{People: []string{}}) {
		t.Fatal("two explicit empty people lists should compare equal")
	}
}

func TestPeoplePresenceSurvivesJSONRoundTrip(t *testing.T) {
	cases := []metadata.Metadata{
		{},
		{People: []string{}},
		{People: []string{"Alice"}},
	}
	for _, in := range cases {
		raw, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var out metadata.Metadata
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if (in.People == nil) != (out.People == nil) {
			t.Fatalf("people presence lost in round trip: %s", raw)
		}
		if len(in.People) != len(out.People) {
			t.Fatalf("people content lost in round trip: %s", raw)
		}
	}
}
