package duckdb

import (
	"fmt"
	"runtime"
)

// EngineInfo describes whether a usable engine library was found on
// this host and, if so, which one.
type EngineInfo struct {
	Available    bool   // Whether the engine library could be located and loaded
	Platform     string // Current platform (darwin, linux, windows)
	Architecture string // Current architecture (arm64, amd64, etc.)
	Path         string // Path to the located library, if any
	Version      string // Engine version reported by the loaded library
	Error        string // Why the engine is unavailable, when it is
}

// GetEngineInfo probes for the engine library and reports the outcome.
// Probing loads the library when one is found.
func GetEngineInfo() EngineInfo {
	info := EngineInfo{
		Platform:     runtime.GOOS,
		Architecture: runtime.GOARCH,
	}

	path, err := LocateLibrary()
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Path = path

	lib, err := OpenLibrary(path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	defer lib.Close()

	if v, err := lib.Version(); err == nil {
		info.Version = v.String()
	}
	info.Available = true
	return info
}

// String returns a human-readable summary of the engine status.
func (i EngineInfo) String() string {
	if i.Available {
		return fmt.Sprintf("Engine: Available\nPlatform: %s/%s\nVersion: %s\nLibrary: %s",
			i.Platform, i.Architecture, i.Version, i.Path)
	}

	return fmt.Sprintf("Engine: Not available\nPlatform: %s/%s\nError: %s",
		i.Platform, i.Architecture, i.Error)
}

// BuildInfo describes this module and the engine it binds.
type BuildInfo struct {
	ModuleVersion   string // Version of this Go module
	EngineVersion   string // Version reported by the engine library
	GoVersion       string // Go runtime version
	EngineAvailable bool   // Whether the engine library could be loaded
}

// GetBuildInfo returns version information about the module and the
// engine library it found, if any.
func GetBuildInfo() BuildInfo {
	engine := VersionString()
	return BuildInfo{
		ModuleVersion:   ModuleVersion,
		EngineVersion:   engine,
		GoVersion:       runtime.Version(),
		EngineAvailable: engine != "",
	}
}

// String returns a human-readable summary of version information.
func (b BuildInfo) String() string {
	engine := b.EngineVersion
	if !b.EngineAvailable {
		engine = "not available"
	}

	return fmt.Sprintf("Module version: %s\nEngine version: %s\nGo version: %s",
		b.ModuleVersion, engine, b.GoVersion)
}
