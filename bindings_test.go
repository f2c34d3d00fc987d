package duckdb

import (
	"testing"
	"unsafe"
)

func TestGoString(t *testing.T) {
	buf := []byte("hello\x00world")
	if got := goString(unsafe.Pointer(&buf[0])); got != "hello" {
		t.Errorf("Expected %q, got %q", "hello", got)
	}

	empty := []byte{0}
	if got := goString(unsafe.Pointer(&empty[0])); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}

	if got := goString(nil); got != "" {
		t.Errorf("Expected empty string for nil pointer, got %q", got)
	}
}

func TestGoStringCopies(t *testing.T) {
	buf := []byte("abc\x00")
	got := goString(unsafe.Pointer(&buf[0]))
	buf[0] = 'x'
	if got != "abc" {
		t.Errorf("Expected copied string to stay %q, got %q", "abc", got)
	}
}

func TestCopyBools(t *testing.T) {
	src := []bool{true, false, true}
	got := copyBools(unsafe.Pointer(&src[0]), 3)
	if len(got) != 3 {
		t.Fatalf("Expected 3 elements, got %d", len(got))
	}
	for i, want := range src {
		if got[i] != want {
			t.Errorf("Element %d: expected %v, got %v", i, want, got[i])
		}
	}

	// The copy must not alias the source buffer.
	src[1] = true
	if got[1] {
		t.Error("Expected copy to be independent of the source")
	}
}

func TestCopyBoolsNil(t *testing.T) {
	got := copyBools(nil, 2)
	if len(got) != 2 {
		t.Fatalf("Expected 2 elements, got %d", len(got))
	}
	if got[0] || got[1] {
		t.Error("Expected all-false slice for nil buffer")
	}
}

func TestCopyBoolsZeroRows(t *testing.T) {
	src := []bool{true}
	if got := copyBools(unsafe.Pointer(&src[0]), 0); len(got) != 0 {
		t.Errorf("Expected empty slice, got %d elements", len(got))
	}
}
