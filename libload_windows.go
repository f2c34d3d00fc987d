//go:build windows
// +build windows

package duckdb

import (
	"syscall"
)

// Load a dynamic library on Windows systems
func loadDynamicLibrary(path string) (uintptr, error) {
	handle, err := syscall.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(handle), nil
}

// Close the library
func closeLibrary(handle uintptr) {
	if handle != 0 {
		syscall.FreeLibrary(syscall.Handle(handle))
	}
}
