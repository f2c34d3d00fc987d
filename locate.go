package duckdb

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/seanchatmangpt/frozen-duckdb/internal/platform"
)

// InMemoryPath opens a transient in-memory database.
const InMemoryPath = ":memory:"

// LocateLibrary finds the engine's shared library on this host without
// loading it. Search order: DUCKDB_LIB_DIR (a file or a directory), the
// frozen binary cache, the executable's directory, the working
// directory, then common system library directories. Arch-qualified
// file names win over generic ones.
func LocateLibrary() (string, error) {
	arch := platform.Arch()
	names := platform.LibraryCandidates(arch)

	var dirs []string
	if v := os.Getenv(platform.EnvLibDir); v != "" {
		if fi, err := os.Stat(v); err == nil && !fi.IsDir() {
			return v, nil
		}
		dirs = append(dirs, v)
	}
	if cache, err := platform.CacheDir(platform.EngineVersion, arch); err == nil {
		dirs = append(dirs, cache)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	dirs = append(dirs, systemLibDirs()...)

	for _, dir := range dirs {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
				return path, nil
			}
		}
	}

	return "", NewError(ErrInit, fmt.Sprintf(
		"engine library not found for %s (looked for %s); set %s or run `frozen-duckdb fetch`",
		arch, strings.Join(names, ", "), platform.EnvLibDir))
}

func systemLibDirs() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/opt/homebrew/lib", "/usr/local/lib", "/opt/local/lib"}
	case "windows":
		// LoadLibrary consults PATH on its own.
		return nil
	default:
		return []string{
			"/usr/local/lib",
			"/usr/lib",
			"/usr/lib/x86_64-linux-gnu",
			"/usr/lib/aarch64-linux-gnu",
		}
	}
}
