// Package version reports build metadata for palicanon.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Release builds set these with
// -ldflags "-X github.com/Aman-CERP/palicanon/pkg/version.Version=v1.2.3 ...".
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GoVersion is the toolchain that built the binary.
var GoVersion = runtime.Version()

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetInfo returns the build metadata. Without ldflags the commit and date fall
// back to the VCS stamp embedded by the go command, when present.
func GetInfo() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromVCS(&info, bi.Settings)
	}
	return info
}

func fillFromVCS(info *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" && s.Value != "" {
				info.Date = s.Value
			}
		}
	}
}

// String returns a one-line description with all build info.
func String() string {
	info := GetInfo()
	return fmt.Sprintf("palicanon %s (commit: %s, built: %s, go: %s)",
		info.Version, info.Commit, info.Date, info.GoVersion)
}

// Short returns just the version string.
func Short() string {
	return Version
}
