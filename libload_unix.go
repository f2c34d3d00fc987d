//go:build !windows
// +build !windows

package duckdb

import (
	"github.com/ebitengine/purego"
)

// Load a dynamic library on Unix systems using purego
func loadDynamicLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// Close the library
func closeLibrary(handle uintptr) {
	if handle != 0 {
		purego.Dlclose(handle)
	}
}
