package exiftool_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"takeout/internal/exiftool"
	"takeout/internal/services"
)

type fakeExecutor struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, _ string, args []string) ([]byte, error) {
	call := make([]string, len(args))
	copy(call, args)
	f.calls = append(f.calls, call)
	return f.output, f.err
}

func newClient(t *testing.T, exec exiftool.Executor) *exiftool.Client {
	t.Helper()
	client, err := exiftool.New("exiftool", 30, exiftool.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestNewRequiresBinary(t *testing.T) {
	_, err := exiftool.New("  ", 30)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestReadBatchParsesPerPathTags(t *testing.T) {
	exec := &fakeExecutor{output: []byte(`[
		{"SourceFile": "/in/a.jpg", "EXIF:DateTimeOriginal": "2020:02:03 04:05:06", "EXIF:GPSLatitude": 40.7128},
		{"SourceFile": "/in/b.jpg", "XMP:Subject": ["Alice"]}
	]`)}
	client := newClient(t, exec)

	tags, err := client.ReadBatch(context.Background(), []string{"/in/a.jpg", "/in/b.jpg"}, []string{"DateTimeOriginal", "GPSLatitude", "XMP:Subject"})
	if err != nil {
		t.Fatalf("ReadBatch: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("got %d records", len(tags))
	}
	a := tags["/in/a.jpg"]
	if a["EXIF:DateTimeOriginal"] != "2020:02:03 04:05:06" {
		t.Fatalf("a tags = %v", a)
	}
	if _, ok := a["SourceFile"]; ok {
		t.Fatal("SourceFile should be stripped from tag maps")
	}
	if len(exec.calls) != 1 {
		t.Fatalf("calls = %d", len(exec.calls))
	}
	args := strings.Join(exec.calls[0], " ")
	for _, want := range []string{"-json", "-G", "-n", "-DateTimeOriginal", "/in/a.jpg", "/in/b.jpg"} {
		if !strings.Contains(args, want) {
			t.Fatalf("args missing %q: %s", want, args)
		}
	}
}

func TestReadBatchEmptyInput(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)
	tags, err := client.ReadBatch(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ReadBatch: %v", err)
	}
	if len(tags) != 0 || len(exec.calls) != 0 {
		t.Fatalf("empty input should not invoke tool: %v %v", tags, exec.calls)
	}
}

func TestReadBatchToolFailureFailsWholeBatch(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	client := newClient(t, exec)
	_, err := client.ReadBatch(context.Background(), []string{"/in/a.jpg"}, []string{"CreateDate"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("marker missing: %v", err)
	}
}

func TestWriteBatchPerOpResults(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)

	results := client.WriteBatch(context.Background(), []exiftool.WriteOp{
		{Path: "/out/a.jpg", Tags: map[string]any{"DateTimeOriginal": "2020:02:03 04:05:06"}},
		{Path: "/out/b.jpg", Tags: map[string]any{"XMP:Subject": []string{"Alice", "Bob"}}},
		{Path: "/out/c.jpg"},
	})
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	for _, result := range results {
		if result.Err != nil {
			t.Fatalf("%s: %v", result.Path, result.Err)
		}
	}
	// The no-tag op must not invoke the tool.
	if len(exec.calls) != 2 {
		t.Fatalf("calls = %d", len(exec.calls))
	}

	second := strings.Join(exec.calls[1], " ")
	if !strings.Contains(second, "-XMP:Subject=Alice") || !strings.Contains(second, "-XMP:Subject=Bob") {
		t.Fatalf("list values not repeated: %s", second)
	}
	if !strings.Contains(second, "-overwrite_original") {
		t.Fatalf("missing overwrite flag: %s", second)
	}
}

func TestWriteBatchClearsWithEmptyList(t *testing.T) {
	exec := &fakeExecutor{}
	client := newClient(t, exec)

	client.WriteBatch(context.Background(), []exiftool.WriteOp{
		{Path: "/out/a.jpg", Tags: map[string]any{"XMP:Subject": []string{}}},
	})
	if len(exec.calls) != 1 {
		t.Fatalf("calls = %d", len(exec.calls))
	}
	found := false
	for _, arg := range exec.calls[0] {
		if arg == "-XMP:Subject=" {
			found = true
		}
	}
	if !found {
		t.Fatalf("clearing assignment missing: %v", exec.calls[0])
	}
}

func TestWriteBatchFailureDoesNotAbortBatch(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("exit status 1")}
	client := newClient(t, exec)

	results := client.WriteBatch(context.Background(), []exiftool.WriteOp{
		{Path: "/out/a.jpg", Tags: map[string]any{"CreateDate": "2020:01:01 00:00:00"}},
		{Path: "/out/b.jpg", Tags: map[string]any{"CreateDate": "2020:01:01 00:00:00"}},
	})
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	for _, result := range results {
		if result.Err == nil {
			t.Fatalf("%s: expected error", result.Path)
		}
		if !errors.Is(result.Err, services.ErrExternalTool) {
			t.Fatalf("marker missing: %v", result.Err)
		}
	}
	if len(exec.calls) != 2 {
		t.Fatalf("both ops should still be attempted, calls = %d", len(exec.calls))
	}
}
