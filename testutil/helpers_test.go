package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTextLines(t *testing.T) {
	text := Text("a\t1", "b\t2")
	if text != "a\t1\nb\t2\n" {
		t.Errorf("unexpected text %q", text)
	}
	lines := Lines(text)
	if len(lines) != 2 || lines[1] != "b\t2" {
		t.Errorf("unexpected lines %q", lines)
	}
	if Text() != "" {
		t.Error("no lines should render as empty text")
	}
	if Lines("") != nil {
		t.Error("empty text should have no lines")
	}
}

func TestTHelper_Table(t *testing.T) {
	h := T(t)
	path := h.Table("nested/t.tsv", "x", "y")
	if filepath.Dir(path) != filepath.Join(h.Dir(), "nested") {
		t.Errorf("unexpected path %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "x\ny\n" {
		t.Errorf("unexpected content %q", data)
	}
	if h.Read("nested/t.tsv") != "x\ny\n" {
		t.Error("Read should return the fixture content")
	}
}
