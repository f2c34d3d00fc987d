package fetcher

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"
)

// Meta is the stamp written next to each installed library. It records
// where the binary came from so `frozen-duckdb info` can show cache
// provenance.
type Meta struct {
	Version   string    `yaml:"version"`
	Arch      string    `yaml:"arch"`
	Source    string    `yaml:"source"`
	SHA256    string    `yaml:"sha256"`
	SizeBytes int64     `yaml:"size_bytes"`
	FetchedAt time.Time `yaml:"fetched_at"`
}

// metaPath returns the stamp location for one installed library.
func metaPath(libPath string) string {
	return libPath + ".meta.yaml"
}

// WriteMeta stamps the library at libPath.
func WriteMeta(libPath string, m Meta) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := os.WriteFile(metaPath(libPath), data, 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}
	return nil
}

// ReadMeta loads the stamp for the library at libPath. Libraries
// placed in the cache by hand have no stamp; callers treat that as
// unknown provenance, not an error worth failing on.
func ReadMeta(libPath string) (Meta, error) {
	data, err := os.ReadFile(metaPath(libPath))
	if err != nil {
		return Meta{}, err
	}
	var m Meta
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Meta{}, fmt.Errorf("parse metadata: %w", err)
	}
	return m, nil
}
