package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"aiarena/engine/internal/logging"
)

func TestCleanerEnforcesMaxBundles(t *testing.T) {
	tmp := t.TempDir()
	now := time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	//1.- Seed three synthetic bundles so the cleaner has something to prune.
	writeBundleDirectory(t, tmp, "alpha-20240715T090000Z", now.Add(-3*time.Hour), 4)
	writeBundleDirectory(t, tmp, "bravo-20240715T100000Z", now.Add(-2*time.Hour), 2)
	writeBundleDirectory(t, tmp, "charlie-20240715T110000Z", now.Add(-time.Hour), 3)

	cleaner := NewCleaner(tmp, RetentionPolicy{MaxBundles: 2}, logging.NewTestLogger())
	cleaner.now = func() time.Time { return now }
	stats := cleaner.RunOnce()

	remaining := listEntries(t, tmp)
	if len(remaining) != 2 || remaining[0] != "bravo-20240715T100000Z" || remaining[1] != "charlie-20240715T110000Z" {
		t.Fatalf("unexpected retained bundles: %v", remaining)
	}
	if stats.Bundles != 2 || stats.Removed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	// manifest.json ("{}") plus one byte per frame file
	if stats.Bytes != int64(2+2+2+3) {
		t.Fatalf("expected byte total 9, got %d", stats.Bytes)
	}
	if stats.LastSweep.IsZero() {
		t.Fatalf("expected last sweep timestamp to be recorded")
	}
}

func TestCleanerPrunesByAgeAndIgnoresForeignEntries(t *testing.T) {
	tmp := t.TempDir()
	now := time.Date(2024, 7, 16, 9, 0, 0, 0, time.UTC)
	writeBundleDirectory(t, tmp, "echo-20240714T080000Z", now.Add(-72*time.Hour), 3)
	writeBundleDirectory(t, tmp, "foxtrot-20240716T070000Z", now.Add(-time.Hour), 5)
	//1.- A stray file and a directory without a manifest are not bundles.
	if err := os.WriteFile(filepath.Join(tmp, "notes.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tmp, "scratch"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	cleaner := NewCleaner(tmp, RetentionPolicy{MaxAge: 36 * time.Hour, MaxBundles: 5}, logging.NewTestLogger())
	cleaner.now = func() time.Time { return now }
	cleaner.RunOnce()

	remaining := listEntries(t, tmp)
	want := []string{"foxtrot-20240716T070000Z", "notes.txt", "scratch"}
	if len(remaining) != len(want) {
		t.Fatalf("expected %v, got %v", want, remaining)
	}
	for idx := range want {
		if remaining[idx] != want[idx] {
			t.Fatalf("expected %v, got %v", want, remaining)
		}
	}
}

func writeBundleDirectory(t *testing.T, dir, name string, mod time.Time, files int) {
	t.Helper()
	bundle := filepath.Join(dir, name)
	if err := os.MkdirAll(bundle, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	paths := []string{filepath.Join(bundle, manifestFile)}
	if err := os.WriteFile(paths[0], []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile manifest: %v", err)
	}
	for i := 0; i < files; i++ {
		path := filepath.Join(bundle, fmt.Sprintf("frame-%d.bin", i))
		if err := os.WriteFile(path, []byte{byte(i)}, 0o644); err != nil {
			t.Fatalf("WriteFile frame: %v", err)
		}
		paths = append(paths, path)
	}
	for _, path := range append(paths, bundle) {
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatalf("Chtimes: %v", err)
		}
	}
}

func listEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}
