// Package buildinfo exposes the version identity stamped into the binary.
package buildinfo

import "runtime"

// These vars are set at build time via ldflags:
// -X github.com/ietf2vcon/ietf2vcon/pkg/buildinfo.Version=v0.2.0
// -X github.com/ietf2vcon/ietf2vcon/pkg/buildinfo.Commit=abc1234
// -X github.com/ietf2vcon/ietf2vcon/pkg/buildinfo.BuildTime=2026-08-30T10:30:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information for the binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build info of this binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String returns a human-readable one-liner like "v0.2.0 (abc1234, 2026-08-30T10:30:00Z)"
func String() string {
	return Version + " (" + Commit + ", " + BuildTime + ")"
}
