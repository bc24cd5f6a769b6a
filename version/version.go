package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Set with -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info describes the running binary.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"build_date,omitempty"`
	Dirty     bool      `json:"dirty"`
}

// Get collects version information from the linker variables and the
// embedded build info.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildDate = t
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildDate = t
				}
			}
		}
	}
	return info
}

// IsRelease reports whether the build carries a released version.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !i.Dirty && !strings.HasSuffix(i.Version, "-dirty")
}

// Short returns "version[-commit][-dirty]" with the commit cut to 7
// characters.
func (i Info) Short() string {
	parts := []string{i.Version}
	if c := i.GitCommit; c != "" {
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, c)
	}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// String renders the multi-line block printed by `tabletool version`.
func (i Info) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "tabletool %s\n", i.Short())
	if i.GoVersion != "" {
		fmt.Fprintf(&b, "  go:    %s\n", i.GoVersion)
	}
	if !i.BuildDate.IsZero() {
		fmt.Fprintf(&b, "  built: %s\n", i.BuildDate.UTC().Format(time.RFC3339))
	}
	return b.String()
}

// Fields returns the build as structured log fields.
func (i Info) Fields() map[string]interface{} {
	return map[string]interface{}{
		"version": i.Short(),
		"go":      i.GoVersion,
	}
}
