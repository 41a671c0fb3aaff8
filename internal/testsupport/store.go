package testsupport

import (
	"context"
	"os"
	"testing"

	"takeout/internal/config"
	"takeout/internal/mediatype"
	"takeout/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	st, err := store.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// AddFile registers a file for tests using the provided store. Size and
// modification time come from the file when it exists on disk and are zero
// otherwise, so tests can register paths that were never created.
func AddFile(t testing.TB, st *store.Store, sourcePath string) *store.File {
	t.Helper()

	var size, mtime int64
	if info, err := os.Stat(sourcePath); err == nil {
		size = info.Size()
		mtime = info.ModTime().Unix()
	}
	file, _, err := st.AddFile(context.Background(), sourcePath, mediatype.Lookup(sourcePath).Name, size, mtime)
	if err != nil {
		t.Fatalf("store.AddFile: %v", err)
	}
	return file
}
