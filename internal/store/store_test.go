package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"takeout/internal/metadata"
	"takeout/internal/services"
	"takeout/internal/store"
	"takeout/internal/testsupport"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenStore(t, cfg)
}

func TestAddFileIdempotent(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	first, created, err := st.AddFile(ctx, "/in/a.jpg", "image", 2048, 1589709000)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if !created {
		t.Fatal("first insert should create the row")
	}
	if first.Status != store.StatusNew {
		t.Fatalf("status = %q", first.Status)
	}
	if first.MediaType != "image" || first.FileSize != 2048 || first.MTime != 1589709000 {
		t.Fatalf("inventory columns = %q/%d/%d", first.MediaType, first.FileSize, first.MTime)
	}
	if first.Phase != "discovery" {
		t.Fatalf("phase = %q", first.Phase)
	}

	if err := st.SetStatus(ctx, first.ID, store.StatusSuccess, "execution", ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	second, created, err := st.AddFile(ctx, "/in/a.jpg", "image", 4096, 1589709999)
	if err != nil {
		t.Fatalf("AddFile again: %v", err)
	}
	if created {
		t.Fatal("second insert should not create a row")
	}
	if second.ID != first.ID {
		t.Fatalf("id changed: %d -> %d", first.ID, second.ID)
	}
	if second.Status != store.StatusSuccess {
		t.Fatalf("re-adding reset status to %q", second.Status)
	}
	if second.FileSize != 2048 || second.MTime != 1589709000 {
		t.Fatalf("re-adding disturbed inventory columns: %d/%d", second.FileSize, second.MTime)
	}
}

func TestSetStatusRecordsPhaseAndErrorMessage(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	file := testsupport.AddFile(t, st, "/in/a.jpg")
	if err := st.SetStatus(ctx, file.ID, store.StatusFailed, "extraction", "tag read failed"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	got, err := st.FileByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("FileByID: %v", err)
	}
	if got.Status != store.StatusFailed || got.ErrorMessage != "tag read failed" {
		t.Fatalf("file = %+v", got)
	}
	if got.Phase != "extraction" {
		t.Fatalf("phase = %q", got.Phase)
	}

	if err := st.SetStatus(ctx, file.ID, store.StatusMetadataRead, "extraction", ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	got, err = st.FileByID(ctx, file.ID)
	if err != nil {
		t.Fatalf("FileByID: %v", err)
	}
	if got.ErrorMessage != "" {
		t.Fatalf("error message not cleared: %q", got.ErrorMessage)
	}
}

func TestFileLookupsReportNotFound(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	if _, err := st.FileByID(ctx, 9999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("FileByID err = %v", err)
	}
	if _, err := st.FileBySourcePath(ctx, "/in/absent.jpg"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("FileBySourcePath err = %v", err)
	}
}

func TestFilesByStatusKeysetPagination(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	paths := []string{"/in/a.jpg", "/in/b.jpg", "/in/c.jpg", "/in/d.jpg", "/in/e.jpg"}
	for _, path := range paths {
		testsupport.AddFile(t, st, path)
	}

	var (
		afterID int64
		seen    []string
	)
	for {
		page, err := st.FilesByStatus(ctx, store.StatusNew, afterID, 2)
		if err != nil {
			t.Fatalf("FilesByStatus: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, file := range page {
			seen = append(seen, file.SourcePath)
			afterID = file.ID
		}
	}
	if len(seen) != len(paths) {
		t.Fatalf("paged %d files, want %d: %v", len(seen), len(paths), seen)
	}
}

func TestFilesByStatusExcludesAdvancedRows(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	a := testsupport.AddFile(t, st, "/in/a.jpg")
	testsupport.AddFile(t, st, "/in/b.jpg")

	if err := st.SetStatus(ctx, a.ID, store.StatusMetadataRead, "extraction", ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	page, err := st.FilesByStatus(ctx, store.StatusNew, 0, 10)
	if err != nil {
		t.Fatalf("FilesByStatus: %v", err)
	}
	if len(page) != 1 || page[0].SourcePath != "/in/b.jpg" {
		t.Fatalf("page = %+v", page)
	}
}

func TestTargetPath(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	a := testsupport.AddFile(t, st, "/in/a.jpg")
	b := testsupport.AddFile(t, st, "/in/b.jpg")

	target := filepath.Join("/out", "2020", "05", "a.jpg")
	if err := st.SetTargetPath(ctx, a.ID, target); err != nil {
		t.Fatalf("SetTargetPath: %v", err)
	}

	inUse, err := st.TargetPathInUse(ctx, target, b.ID)
	if err != nil {
		t.Fatalf("TargetPathInUse: %v", err)
	}
	if !inUse {
		t.Fatal("target should be claimed by another file")
	}

	inUse, err = st.TargetPathInUse(ctx, target, a.ID)
	if err != nil {
		t.Fatalf("TargetPathInUse: %v", err)
	}
	if inUse {
		t.Fatal("a file's own claim should not count")
	}
}

func TestMetadataRoundTripPreservesPresence(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	file := testsupport.AddFile(t, st, "/in/a.jpg")

	ts := int64(1600000000)
	alt := 12.5
	in := metadata.Metadata{
		Timestamp: &ts,
		GPS:       &metadata.GPSData{Latitude: 40.7128, Longitude: -74.006, Altitude: &alt},
		People:    []string{},
		URL:       "https://photos.example/AF1x",
	}
	if err := st.SaveMetadata(ctx, file.ID, store.SourceSidecar, in); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}

	out, ok, err := st.Metadata(ctx, file.ID, store.SourceSidecar)
	if err != nil || !ok {
		t.Fatalf("Metadata: ok=%v err=%v", ok, err)
	}
	if out.Timestamp == nil || *out.Timestamp != ts {
		t.Fatalf("timestamp = %v", out.Timestamp)
	}
	if out.GPS == nil || out.GPS.Altitude == nil || *out.GPS.Altitude != alt {
		t.Fatalf("gps = %+v", out.GPS)
	}
	if out.People == nil || len(out.People) != 0 {
		t.Fatalf("explicit empty people lost: %v", out.People)
	}

	if _, ok, err := st.Metadata(ctx, file.ID, store.SourceEmbedded); err != nil || ok {
		t.Fatalf("embedded row should be absent: ok=%v err=%v", ok, err)
	}
}

func TestSaveMetadataUpserts(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	file := testsupport.AddFile(t, st, "/in/a.jpg")

	first := metadata.Metadata{URL: "https://photos.example/v1"}
	if err := st.SaveMetadata(ctx, file.ID, store.SourceMerged, first); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}
	second := metadata.Metadata{URL: "https://photos.example/v2"}
	if err := st.SaveMetadata(ctx, file.ID, store.SourceMerged, second); err != nil {
		t.Fatalf("SaveMetadata upsert: %v", err)
	}

	out, ok, err := st.Metadata(ctx, file.ID, store.SourceMerged)
	if err != nil || !ok {
		t.Fatalf("Metadata: ok=%v err=%v", ok, err)
	}
	if out.URL != "https://photos.example/v2" {
		t.Fatalf("url = %q", out.URL)
	}
}

func TestSummarize(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	a := testsupport.AddFile(t, st, "/in/a.jpg")
	b := testsupport.AddFile(t, st, "/in/b.jpg")
	testsupport.AddFile(t, st, "/in/c.jpg")

	if err := st.SetStatus(ctx, a.ID, store.StatusSuccess, "execution", ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if err := st.SetStatus(ctx, b.ID, store.StatusFailed, "execution", "boom"); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	summary, err := st.Summarize(ctx)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.Total != 3 || summary.Success != 1 || summary.Failed != 1 || summary.New != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Remaining() != 1 {
		t.Fatalf("remaining = %d", summary.Remaining())
	}
}

func TestOpenRejectsBlankPath(t *testing.T) {
	if _, err := store.Open("  "); err == nil {
		t.Fatal("expected error")
	}
}

func TestInMemoryStore(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	file, _, err := st.AddFile(context.Background(), "/in/a.jpg", "image", 1024, 1589709000)
	if err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if file.ID == 0 {
		t.Fatal("missing id")
	}
}
