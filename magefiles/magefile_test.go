package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCountGoLines(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, filepath.Join(dir, "x.go"), "package x\n\nfunc F() int {\n\treturn 1\n}\n")
	writeSource(t, filepath.Join(dir, "x_test.go"), "package x\n\nimport \"testing\"\n\nfunc TestF(t *testing.T) {}\n")
	writeSource(t, filepath.Join(dir, "notes.md"), "not go\n")
	sub := filepath.Join(dir, "sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, filepath.Join(sub, "y.go"), "package y\n")

	prod, tests, err := countGoLines(dir)
	if err != nil {
		t.Fatalf("countGoLines: %v", err)
	}
	if prod != 5 {
		t.Errorf("prod = %d, want 5 (blank lines and non-Go files skipped)", prod)
	}
	if tests != 3 {
		t.Errorf("tests = %d, want 3", tests)
	}
}

func TestCountGoLinesMissingRoot(t *testing.T) {
	prod, tests, err := countGoLines(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("countGoLines: %v", err)
	}
	if prod != 0 || tests != 0 {
		t.Errorf("prod, tests = %d, %d, want 0, 0", prod, tests)
	}
}

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
