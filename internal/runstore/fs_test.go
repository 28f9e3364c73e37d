package runstore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicFileCommitReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(target, []byte("old\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := CreateAtomic(target)
	if err != nil {
		t.Fatalf("create atomic: %v", err)
	}
	if _, err := f.WriteString("new\n"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "old\n" {
		t.Fatalf("target changed before commit: %q", data)
	}

	if err := f.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	f.Abort()

	data, err = os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new\n" {
		t.Fatalf("expected new content, got %q", data)
	}
	assertOnlyEntries(t, dir, "out.txt")
}

func TestAtomicFileAbortLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	f, err := CreateAtomic(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("partial"); err != nil {
		t.Fatal(err)
	}
	f.Abort()
	if err := f.Commit(); err == nil {
		t.Fatal("expected commit after abort to fail")
	}
	assertOnlyEntries(t, dir)
}

func TestCreateAtomicMissingDirectory(t *testing.T) {
	if _, err := CreateAtomic(filepath.Join(t.TempDir(), "missing", "out.txt")); err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestWriteReadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cfg.json")
	in := map[string]int{"workers": 3}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var out map[string]int
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if out["workers"] != 3 {
		t.Fatalf("unexpected round trip: %#v", out)
	}
}

func TestEnsureWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureWritableDir(dir); err != nil {
		t.Fatalf("ensure writable: %v", err)
	}
	assertOnlyEntries(t, dir)
}

func assertOnlyEntries(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	if len(entries) != len(names) {
		got := make([]string, 0, len(entries))
		for _, e := range entries {
			got = append(got, e.Name())
		}
		t.Fatalf("expected entries %v, got %v", names, got)
	}
	for _, e := range entries {
		if !want[e.Name()] {
			t.Fatalf("unexpected entry %q", e.Name())
		}
	}
}
