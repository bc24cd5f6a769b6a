package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// THelper creates fixtures in a per-test directory.
type THelper struct {
	t   *testing.T
	dir string
}

// T wraps a testing.T. Files live in t.TempDir and are removed with it.
func T(t *testing.T) *THelper {
	t.Helper()
	return &THelper{t: t, dir: t.TempDir()}
}

// Dir returns the fixture directory.
func (h *THelper) Dir() string { return h.dir }

// Path returns the path name would have in the fixture directory.
func (h *THelper) Path(name string) string { return filepath.Join(h.dir, name) }

// File writes content to name and returns its path.
func (h *THelper) File(name, content string) string {
	h.t.Helper()
	path := h.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		h.t.Fatalf("failed to create fixture dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

// Table writes lines as a newline-terminated table and returns its path.
func (h *THelper) Table(name string, lines ...string) string {
	h.t.Helper()
	return h.File(name, Text(lines...))
}

// Read returns the content of a fixture file.
func (h *THelper) Read(name string) string {
	h.t.Helper()
	data, err := os.ReadFile(h.Path(name))
	if err != nil {
		h.t.Fatalf("failed to read %s: %v", name, err)
	}
	return string(data)
}

// Text joins lines into table text, each line newline-terminated.
func Text(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Lines splits table text into its lines. Empty text has no lines.
func Lines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
