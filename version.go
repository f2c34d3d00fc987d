package duckdb

import (
	"fmt"
	"strings"
)

// ModuleVersion is the version of this Go module, independent of the
// engine library it binds.
const ModuleVersion = "0.1.0"

// Version represents the engine version information
type Version struct {
	Major      int
	Minor      int
	Patch      int
	VersionStr string
}

// String returns the version as a string
func (v Version) String() string {
	if v.VersionStr != "" {
		return v.VersionStr
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast checks if the version is at least the given major, minor, patch
func (v Version) AtLeast(major, minor, patch int) bool {
	if v.Major > major {
		return true
	}
	if v.Major < major {
		return false
	}
	// Major is equal, check minor
	if v.Minor > minor {
		return true
	}
	if v.Minor < minor {
		return false
	}
	// Minor is equal, check patch
	return v.Patch >= patch
}

// ParseVersion parses an engine version string. Release builds report
// "v1.4.0"; development builds report strings like
// "v0.8.0-1014-gf41c0e9a4e", where only the leading triple is taken.
func ParseVersion(s string) Version {
	v := Version{VersionStr: s}

	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "v")
	if i := strings.IndexByte(trimmed, '-'); i >= 0 {
		trimmed = trimmed[:i]
	}

	var major, minor, patch int
	if n, err := fmt.Sscanf(trimmed, "%d.%d.%d", &major, &minor, &patch); err == nil && n == 3 {
		v.Major, v.Minor, v.Patch = major, minor, patch
	}
	return v
}

// VersionString returns the loaded engine's version as a string, or
// the empty string when no engine library can be loaded.
func VersionString() string {
	lib, err := DefaultLibrary()
	if err != nil {
		return ""
	}
	v, err := lib.Version()
	if err != nil {
		return ""
	}
	return v.String()
}
