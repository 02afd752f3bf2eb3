// Package buildinfo reports the version of the running binary.
package buildinfo

import (
	"runtime/debug"
	"sync"
)

// Set with -ldflags at build time, e.g.
//
//	-X 'github.com/d4n3436/fergun/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/d4n3436/fergun/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/d4n3436/fergun/core/buildinfo.Date=2025-08-30T12:00:00Z'
var (
	Version = "dev"
	Commit  = "local"
	Date    = ""
)

var fillOnce sync.Once

// fill takes the module version and VCS stamp embedded by the go tool
// for values the linker flags left at their defaults.
func fill() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if v := info.Main.Version; Version == "dev" && v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && Commit == "local" && s.Value != "":
			Commit = s.Value[:min(len(s.Value), 7)]
		case s.Key == "vcs.time" && Date == "":
			Date = s.Value
		}
	}
}

// String formats the build as "fergun <version> (<commit>[, <date>])".
func String() string {
	fillOnce.Do(fill)
	s := "fergun " + Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
