// Package compileinfo reports which revision of flotilla the running binary
// was built from.
package compileinfo

import (
	"fmt"
	"runtime/debug"
)

type CompileInfo struct {
	Path       string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	if c.Commit == "" {
		return fmt.Sprintf("%s %s (%s), no VCS information", c.Path, c.version(), c.GoVersion)
	}

	dirty := ""
	if c.Modified {
		dirty = ", modified"
	}

	return fmt.Sprintf("%s %s (%s) commit %s at %s%s", c.Path, c.version(), c.GoVersion, c.short(), c.CommitTime, dirty)
}

func (c CompileInfo) version() string {
	if c.Version == "" {
		return "(devel)"
	}
	return c.Version
}

func (c CompileInfo) short() string {
	if len(c.Commit) > 12 {
		return c.Commit[:12]
	}
	return c.Commit
}

// Get reads the build info embedded by the Go toolchain. Fields are empty
// when it is unavailable, as under some test runners.
func Get() CompileInfo {
	z, ok := debug.ReadBuildInfo()
	if !ok {
		return CompileInfo{Path: "flotilla"}
	}

	return FromBuildInfo(z)
}

func FromBuildInfo(z *debug.BuildInfo) CompileInfo {
	out := CompileInfo{
		Path:      z.Path,
		Version:   z.Main.Version,
		GoVersion: z.GoVersion,
	}
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}
