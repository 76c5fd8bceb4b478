package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveDesigns(t *testing.T) {
	root := t.TempDir()
	top := filepath.Join(root, "top.yaml")
	alu := filepath.Join(root, "designs", "cpu", "alu.yml")
	old := filepath.Join(root, "designs", "old", "legacy.yaml")
	writeFile(t, top, "circuit: top")
	writeFile(t, alu, "circuit: alu")
	writeFile(t, old, "circuit: legacy")
	writeFile(t, filepath.Join(root, "designs", "notes.txt"), "not a design")
	writeFile(t, filepath.Join(root, "hdlgen.json"), "{}")

	cfg := DefaultConfig()
	cfg.Designs.Files = append(cfg.Designs.Files, "*.json")
	cfg.Designs.Exclude = []string{"designs/old/*"}

	got, err := cfg.ResolveDesigns(root)
	if err != nil {
		t.Fatalf("ResolveDesigns: %v", err)
	}
	want := []string{alu, top}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ResolveDesigns = %v, want %v", got, want)
	}
}

func TestResolveDesignsMissingDirectory(t *testing.T) {
	cfg := &Config{Designs: DesignsConfig{Files: []string{"nowhere/**/*.yaml"}}}
	got, err := cfg.ResolveDesigns(t.TempDir())
	if err != nil {
		t.Fatalf("ResolveDesigns: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ResolveDesigns = %v, want none", got)
	}
}
