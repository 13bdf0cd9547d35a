package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "poster.jpg")

	content := []byte("hello world")
	if err := WriteFileAtomic(dst, content, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicMode(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "dst.bin")
	if err := WriteFileAtomic(dst, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "missing", "dst.bin")
	if err := WriteFileAtomic(dst, []byte("x"), 0o644); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestSameContent(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "a.bin")
	if SameContent(dst, []byte("x")) {
		t.Fatal("missing file should not match")
	}
	if err := os.WriteFile(dst, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !SameContent(dst, []byte("abc")) {
		t.Fatal("identical bytes should match")
	}
	if SameContent(dst, []byte("abd")) || SameContent(dst, []byte("abcd")) {
		t.Fatal("different bytes should not match")
	}
}

func TestSyncFile(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "sync.bin")
	changed, err := SyncFile(dst, []byte("v1"), 0o644)
	if err != nil || !changed {
		t.Fatalf("first sync: changed=%v err=%v", changed, err)
	}
	changed, err = SyncFile(dst, []byte("v1"), 0o644)
	if err != nil || changed {
		t.Fatalf("identical sync should be a no-op: changed=%v err=%v", changed, err)
	}
	changed, err = SyncFile(dst, []byte("v2"), 0o644)
	if err != nil || !changed {
		t.Fatalf("changed content should rewrite: changed=%v err=%v", changed, err)
	}
}
