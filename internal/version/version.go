// Package version holds build information set with -ldflags.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// These variables are set during build time
var (
	// Version is the current version
	Version = "0.0.0"

	// Revision is the short commit hash of source tree
	Revision = "unknown"

	// BuiltAt is the build time
	BuiltAt = "unknown"
)

// Info contains version information
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision"`
	BuiltAt   string `json:"builtAt"`
	GoVersion string `json:"goVersion"`
}

// GetVersionInfo returns version information, falling back to the VCS
// data the go tool embeds when no ldflags were given.
func GetVersionInfo() Info {
	info := Info{
		Version:   Version,
		Revision:  Revision,
		BuiltAt:   BuiltAt,
		GoVersion: runtime.Version(),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "0.0.0" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Revision == "unknown" && len(s.Value) >= 7 {
					info.Revision = s.Value[:7]
				}
			case "vcs.time":
				if info.BuiltAt == "unknown" {
					info.BuiltAt = s.Value
				}
			}
		}
	}

	return info
}

// String returns a string representation of version information
func (i Info) String() string {
	return fmt.Sprintf("Version: %s\nRevision: %s\nBuilt At: %s\nGo Version: %s",
		i.Version, i.Revision, i.BuiltAt, i.GoVersion)
}
