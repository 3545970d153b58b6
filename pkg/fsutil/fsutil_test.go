package fsutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")

	if Exists(path) {
		t.Fatal("missing file reported as existing")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !Exists(path) {
		t.Fatal("existing file reported as missing")
	}
	if !Exists(dir) {
		t.Fatal("directory reported as missing")
	}
}

func TestCopyFileCreatesParentsAndOverwrites(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "deep", "nested", "dst.txt")

	if err := os.WriteFile(src, []byte("first"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "first" {
		t.Fatalf("copy mismatch: %q, %v", data, err)
	}

	// Overwrite with shorter content; no leftover bytes allowed.
	if err := os.WriteFile(src, []byte("2"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("second CopyFile failed: %v", err)
	}
	data, _ = os.ReadFile(dst)
	if string(data) != "2" {
		t.Fatalf("overwrite left stale bytes: %q", data)
	}
}

func TestCopyFileMissingSource(t *testing.T) {
	if err := CopyFile(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestCopyDirMergesIntoExisting(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	files := map[string]string{
		"a.txt":          "A",
		"sub/b.txt":      "B",
		"sub/deep/c.txt": "C",
	}
	for name, content := range files {
		path := filepath.Join(src, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir failed: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	// Pre-existing files in dst survive unless same-named.
	if err := os.WriteFile(filepath.Join(dst, "keep.txt"), []byte("keep"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dst, "a.txt"), []byte("old"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if err := CopyDir(src, dst); err != nil {
		t.Fatalf("CopyDir failed: %v", err)
	}

	for name, want := range files {
		data, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(name)))
		if err != nil || string(data) != want {
			t.Fatalf("%s: %q, %v", name, data, err)
		}
	}
	if data, _ := os.ReadFile(filepath.Join(dst, "keep.txt")); string(data) != "keep" {
		t.Fatalf("unrelated file clobbered: %q", data)
	}
	if data, _ := os.ReadFile(filepath.Join(dst, "a.txt")); string(data) != "A" {
		t.Fatalf("same-named file not overwritten: %q", data)
	}
}
