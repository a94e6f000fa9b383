// Package version provides build metadata and version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Name is the program name reported to clients.
const Name = "restaurantmcp"

var (
	// BuildVersion is the semantic version of the build
	BuildVersion = "0.1.0"

	// BuildCommit is the git commit hash of the build. When not set with
	// -ldflags it falls back to the VCS stamp in the binary.
	BuildCommit = "unknown"

	// BuildDate is the date and time of the build
	BuildDate = "unknown"

	// GoVersion is the version of Go used to build
	GoVersion = runtime.Version()
)

// BuildInfo is the payload of the version endpoint.
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Modified  bool   `json:"modified,omitempty"`
}

var (
	vcsOnce sync.Once
	vcs     map[string]string
)

func vcsSettings() map[string]string {
	vcsOnce.Do(func() {
		vcs = map[string]string{}
		if bi, ok := debug.ReadBuildInfo(); ok {
			vcs = settingsOf(bi)
		}
	})
	return vcs
}

func settingsOf(bi *debug.BuildInfo) map[string]string {
	out := make(map[string]string, len(bi.Settings))
	for _, s := range bi.Settings {
		out[s.Key] = s.Value
	}
	return out
}

// resolve fills unset ldflags values from the VCS settings.
func resolve(settings map[string]string) BuildInfo {
	info := BuildInfo{
		Name:      Name,
		Version:   BuildVersion,
		Commit:    BuildCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
	if info.Commit == "unknown" && settings["vcs.revision"] != "" {
		info.Commit = settings["vcs.revision"]
	}
	if info.BuildDate == "unknown" && settings["vcs.time"] != "" {
		info.BuildDate = settings["vcs.time"]
	}
	info.Modified = settings["vcs.modified"] == "true"
	return info
}

// Info returns the build metadata of the running binary.
func Info() BuildInfo {
	return resolve(vcsSettings())
}

// String returns a formatted version string
func String() string {
	info := Info()
	s := fmt.Sprintf("%s version %s (%s) built on %s with %s",
		info.Name, info.Version, info.Commit, info.BuildDate, info.GoVersion)
	if info.Modified {
		s += " (modified)"
	}
	return s
}
