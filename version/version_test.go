package version

import (
	"strings"
	"testing"
	"time"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() {
		Version, GitCommit, BuildTime = v, c, b
	}
}

func TestGetUsesLinkerValues(t *testing.T) {
	defer saveAndRestore()()
	Version = "1.4.0"
	GitCommit = "abc1234def"
	BuildTime = "2024-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.4.0" {
		t.Errorf("expected '1.4.0', got %q", info.Version)
	}
	if info.GitCommit != "abc1234def" {
		t.Errorf("expected linker commit to win, got %q", info.GitCommit)
	}
	if info.BuildDate.Year() != 2024 {
		t.Errorf("expected build year 2024, got %d", info.BuildDate.Year())
	}
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "1.0.0"}, true},
		{Info{Version: "1.0.0-dirty"}, false},
		{Info{Version: "1.0.0", Dirty: true}, false},
	}
	for _, tc := range tests {
		if got := tc.info.IsRelease(); got != tc.want {
			t.Errorf("%+v IsRelease() = %v, want %v", tc.info, got, tc.want)
		}
	}
}

func TestShort(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", GitCommit: "abc1234def"}, "1.0.0-abc1234"},
		{Info{Version: "1.0.0", GitCommit: "abc", Dirty: true}, "1.0.0-abc-dirty"},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.want {
			t.Errorf("Short() = %q, want %q", got, tc.want)
		}
	}
}

func TestString(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GitCommit: "abc1234",
		GoVersion: "go1.26.0",
		BuildDate: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}
	s := info.String()
	for _, want := range []string{"tabletool 1.0.0-abc1234", "go1.26.0", "2024-01-15T10:30:00Z"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}

	bare := Info{Version: "dev"}.String()
	if strings.Contains(bare, "built") {
		t.Errorf("expected no build line without a date, got %q", bare)
	}
}

func TestFields(t *testing.T) {
	f := Info{Version: "dev", GoVersion: "go1.26.0"}.Fields()
	if f["version"] != "dev" || f["go"] != "go1.26.0" {
		t.Errorf("unexpected fields %v", f)
	}
}
