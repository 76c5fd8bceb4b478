package output

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriterSkipsUnchangedFiles(t *testing.T) {
	root := t.TempDir()
	cacheDir := filepath.Join(root, ".cache")

	cache := NewCache(cacheDir)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	w := NewWriter(root, cache)
	f, err := w.Write("vhdl/base/Clock.vhd", "Clock", []byte("ENTITY Clock IS\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !f.Written || f.Path != "vhdl/base/Clock.vhd" || len(f.Hash) != 16 {
		t.Fatalf("first write = %+v", f)
	}
	if err := cache.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh process reloads the index and skips the identical file.
	cache = NewCache(cacheDir)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	w = NewWriter(root, cache)
	f, err = w.Write("vhdl/base/Clock.vhd", "Clock", []byte("ENTITY Clock IS\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if f.Written || cache.Hits() != 1 {
		t.Fatalf("unchanged file rewritten: %+v, hits %d", f, cache.Hits())
	}

	f, err = w.Write("vhdl/base/Clock.vhd", "Clock", []byte("ENTITY Clock IS -- changed\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !f.Written {
		t.Fatalf("changed file not written")
	}
	data, err := os.ReadFile(filepath.Join(root, "vhdl", "base", "Clock.vhd"))
	if err != nil || string(data) != "ENTITY Clock IS -- changed\n" {
		t.Fatalf("file content = %q, %v", data, err)
	}
}

func TestCacheDetectsEditedOrDeletedFile(t *testing.T) {
	root := t.TempDir()
	cache := NewCache(filepath.Join(root, ".cache"))
	w := NewWriter(root, cache)
	if _, err := w.Write("a.v", "A", []byte("module A;\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	path := filepath.Join(root, "a.v")
	if err := os.WriteFile(path, []byte("edited by hand\n"), 0o644); err != nil {
		t.Fatalf("edit: %v", err)
	}
	f, err := w.Write("a.v", "A", []byte("module A;\n"))
	if err != nil || !f.Written {
		t.Fatalf("edited file not restored: %+v, %v", f, err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	f, err = w.Write("a.v", "A", []byte("module A;\n"))
	if err != nil || !f.Written {
		t.Fatalf("deleted file not rewritten: %+v, %v", f, err)
	}
}

func TestCacheVersionMismatchResets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.json"), []byte(`{"version": 99, "entries": {"a.v": {"hash": "x"}}}`), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	cache := NewCache(dir)
	if err := cache.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cache.Fresh("a.v", "x", filepath.Join(dir, "a.v")) {
		t.Fatalf("entry from another index version reported fresh")
	}
}

func TestNilCacheAlwaysWrites(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root, nil)
	for i := 0; i < 2; i++ {
		f, err := w.Write("x.vhd", "X", []byte("x"))
		if err != nil || !f.Written {
			t.Fatalf("write %d: %+v, %v", i, f, err)
		}
	}
}

func TestFingerprintIsStable(t *testing.T) {
	if Fingerprint([]byte("abc")) != Fingerprint([]byte("abc")) {
		t.Fatalf("fingerprint not deterministic")
	}
	if Fingerprint([]byte("abc")) == Fingerprint([]byte("abd")) {
		t.Fatalf("fingerprint collision on trivial input")
	}
}
