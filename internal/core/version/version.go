// Package version reports the running binary's release, commit and build date
package version

import "runtime/debug"

// BuildInfo identifies a build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Overridden with -ldflags "-X sitebuilder/internal/core/version.version=v0.3.0"
var (
	service = "sitebuilder"
	version = "dev"
	commit  = ""
	date    = ""
)

// Info returns the linker-stamped values, falling back to the vcs settings
// the go toolchain records
func Info() BuildInfo {
	bi := BuildInfo{Service: service, Version: version, Commit: commit, Date: date}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.Date == "":
				bi.Date = s.Value
			}
		}
	}
	if bi.Commit == "" {
		bi.Commit = "none"
	}
	if bi.Date == "" {
		bi.Date = "unknown"
	}
	return bi
}
