// Package platform resolves the host architecture and the file names the
// frozen engine binaries are published under.
package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// EngineVersion is the engine build the frozen distribution pins.
// Cache directories and release URLs derive from it.
const EngineVersion = "1.4.0"

// Architecture labels used in published binary names.
const (
	ArchX86 = "x86_64"
	ArchARM = "arm64"
)

// Environment variables honored across the module.
const (
	// EnvArch forces the architecture label, overriding detection.
	EnvArch = "ARCH"
	// EnvLibDir points at a directory holding the engine library.
	EnvLibDir = "DUCKDB_LIB_DIR"
	// EnvCacheRoot relocates the binary cache root.
	EnvCacheRoot = "FROZEN_DUCKDB_DIR"
)

// Arch returns the architecture label for the running process.
// The ARCH environment variable overrides detection so builds and CI
// jobs can force a target.
func Arch() string {
	if v := os.Getenv(EnvArch); v != "" {
		return normalizeArch(v)
	}
	return normalizeArch(runtime.GOARCH)
}

// normalizeArch folds the spellings seen in uname, Go and release
// tooling onto the two labels binaries are published under.
func normalizeArch(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "amd64", "x86_64", "x86-64", "x64":
		return ArchX86
	case "arm64", "aarch64":
		return ArchARM
	default:
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// SharedLibraryExt returns the shared library suffix for the host OS.
func SharedLibraryExt() string {
	switch runtime.GOOS {
	case "darwin":
		return "dylib"
	case "windows":
		return "dll"
	default:
		return "so"
	}
}

// LibraryCandidates lists engine file names to probe, most specific
// first: the arch-qualified frozen name, then the generic upstream name.
// Windows builds ship without the lib prefix.
func LibraryCandidates(arch string) []string {
	ext := SharedLibraryExt()
	if runtime.GOOS == "windows" {
		return []string{
			fmt.Sprintf("duckdb_%s.%s", arch, ext),
			"duckdb." + ext,
		}
	}
	return []string{
		fmt.Sprintf("libduckdb_%s.%s", arch, ext),
		"libduckdb." + ext,
	}
}

// CacheRoot returns the root of the frozen binary cache,
// ~/.frozen-duckdb/cache unless FROZEN_DUCKDB_DIR points elsewhere.
func CacheRoot() (string, error) {
	if v := os.Getenv(EnvCacheRoot); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".frozen-duckdb", "cache"), nil
}

// CacheDir returns the cache directory for one engine build,
// e.g. ~/.frozen-duckdb/cache/v1.4.0-arm64.
func CacheDir(version, arch string) (string, error) {
	root, err := CacheRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, fmt.Sprintf("v%s-%s", version, arch)), nil
}
