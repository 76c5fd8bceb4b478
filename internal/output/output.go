// Package output writes generated artifacts under an output root. Files are
// replaced atomically, and a fingerprint cache skips files whose content did
// not change since the last run.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// File is one artifact handed to or produced by the writer.
type File struct {
	// Path is relative to the output root, slash separated.
	Path   string `json:"path"`
	Module string `json:"module"`
	Hash   string `json:"hash"`
	// Written is false when the cache showed the file already up to date.
	Written bool `json:"-"`
}

// Fingerprint returns the content hash recorded for an artifact.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Writer writes artifacts below Root.
type Writer struct {
	Root  string
	cache *Cache
}

// NewWriter returns a writer for root. A nil cache writes every file.
func NewWriter(root string, cache *Cache) *Writer {
	return &Writer{Root: root, cache: cache}
}

// Write stores data at rel below the root unless the cache shows an identical
// file is already there.
func (w *Writer) Write(rel, module string, data []byte) (File, error) {
	f := File{Path: filepath.ToSlash(rel), Module: module, Hash: Fingerprint(data)}
	path := filepath.Join(w.Root, filepath.FromSlash(rel))
	if w.cache.Fresh(f.Path, f.Hash, path) {
		return f, nil
	}
	if err := WriteAtomic(path, data); err != nil {
		return File{}, err
	}
	w.cache.Put(f.Path, f.Hash)
	f.Written = true
	return f, nil
}

// WriteAtomic replaces path with data through a temporary file in the same directory.
func WriteAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("temp output file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}

// WriteJSONAtomic writes v as indented JSON.
func WriteJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return WriteAtomic(path, append(data, '\n'))
}
