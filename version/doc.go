// Package version reports the tabletool build.
//
// Values are injected at link time and fall back to the VCS stamps Go
// embeds in the binary:
//
//	go build -ldflags "-X github.com/kbukum/tabletool/version.Version=1.4.0" ./cmd/tabletool
package version
