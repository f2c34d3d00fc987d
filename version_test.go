package duckdb

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	v := ParseVersion("v1.4.0")
	if v.Major != 1 || v.Minor != 4 || v.Patch != 0 {
		t.Errorf("Expected 1.4.0, got %d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.String() != "v1.4.0" {
		t.Errorf("Expected raw string to be kept, got %q", v.String())
	}
}

func TestParseVersionDevBuild(t *testing.T) {
	v := ParseVersion("v0.8.0-1014-gf41c0e9a4e")
	if v.Major != 0 || v.Minor != 8 || v.Patch != 0 {
		t.Errorf("Expected 0.8.0, got %d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

func TestParseVersionWithoutPrefix(t *testing.T) {
	v := ParseVersion("1.2.3")
	if v.Major != 1 || v.Minor != 2 || v.Patch != 3 {
		t.Errorf("Expected 1.2.3, got %d.%d.%d", v.Major, v.Minor, v.Patch)
	}
}

func TestParseVersionGarbage(t *testing.T) {
	v := ParseVersion("not-a-version")
	if v.Major != 0 || v.Minor != 0 || v.Patch != 0 {
		t.Errorf("Expected zero version, got %d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	// The raw string is still reported.
	if v.String() != "not-a-version" {
		t.Errorf("Expected raw string, got %q", v.String())
	}
}

func TestVersionStringSynthesized(t *testing.T) {
	v := Version{Major: 1, Minor: 4, Patch: 1}
	if v.String() != "1.4.1" {
		t.Errorf("Expected 1.4.1, got %q", v.String())
	}
}

func TestVersionAtLeast(t *testing.T) {
	v := Version{Major: 1, Minor: 4, Patch: 0}

	cases := []struct {
		major, minor, patch int
		want                bool
	}{
		{1, 4, 0, true},
		{1, 3, 9, true},
		{0, 9, 9, true},
		{1, 4, 1, false},
		{1, 5, 0, false},
		{2, 0, 0, false},
	}
	for _, c := range cases {
		if got := v.AtLeast(c.major, c.minor, c.patch); got != c.want {
			t.Errorf("AtLeast(%d,%d,%d): expected %v, got %v", c.major, c.minor, c.patch, c.want, got)
		}
	}
}
