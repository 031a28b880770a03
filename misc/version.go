// Package misc holds small helpers shared across the program.
package misc

import (
	"runtime/debug"
)

const appName = "margo"

// GetAppName returns short program name used in logs, temp files and reports.
func GetAppName() string {
	return appName
}

// GetVersion returns module version recorded at build time.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "development"
}

// GetGitHash returns VCS revision recorded at build time.
func GetGitHash() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
