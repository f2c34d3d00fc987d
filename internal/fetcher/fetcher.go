// Package fetcher ensures a prebuilt engine binary is present in the
// local cache, downloading it from an S3-compatible mirror or the
// GitHub release when missing. Nothing is ever compiled.
package fetcher

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/seanchatmangpt/frozen-duckdb/internal/config"
	"github.com/seanchatmangpt/frozen-duckdb/internal/logger"
	"github.com/seanchatmangpt/frozen-duckdb/internal/platform"
)

// Options configures a Fetcher. Zero values fall back to the pinned
// engine version, the detected architecture and the default cache.
type Options struct {
	Version   string
	Arch      string
	CacheRoot string

	// GitHub release coordinates the binaries are published under.
	ReleaseOwner string
	ReleaseRepo  string
	// ReleaseBaseURL exists for tests and enterprise mirrors of the
	// release host itself; it defaults to https://github.com.
	ReleaseBaseURL string

	// SHA256 is the expected digest of the installed library file.
	// Empty skips verification.
	SHA256 string

	// Mirror, when enabled, is tried before the GitHub release.
	Mirror config.Mirror

	HTTPClient *http.Client
	Log        *logger.Logger
}

// Fetcher acquires one engine build. Safe for sequential reuse; the
// CLI builds one per invocation.
type Fetcher struct {
	opts   Options
	client *http.Client
	log    *logger.Logger
	mirror objectStore
}

// New builds a Fetcher, filling unset options with defaults and
// connecting the mirror client when one is configured.
func New(opts Options) (*Fetcher, error) {
	if opts.Version == "" {
		opts.Version = platform.EngineVersion
	}
	if opts.Arch == "" {
		opts.Arch = platform.Arch()
	}
	if opts.ReleaseOwner == "" {
		opts.ReleaseOwner = "seanchatmangpt"
	}
	if opts.ReleaseRepo == "" {
		opts.ReleaseRepo = "frozen-duckdb"
	}
	if opts.ReleaseBaseURL == "" {
		opts.ReleaseBaseURL = "https://github.com"
	}

	f := &Fetcher{
		opts:   opts,
		client: opts.HTTPClient,
		log:    opts.Log,
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: 5 * time.Minute}
	}
	if f.log == nil {
		f.log = logger.Nop()
	}
	if opts.Mirror.Enabled() {
		mirror, err := newS3Mirror(opts.Mirror)
		if err != nil {
			return nil, fmt.Errorf("configure mirror: %w", err)
		}
		f.mirror = mirror
	}
	return f, nil
}

// LibraryName returns the arch-qualified file name this fetcher
// installs, e.g. libduckdb_arm64.so.
func (f *Fetcher) LibraryName() string {
	return platform.LibraryCandidates(f.opts.Arch)[0]
}

// CacheDir returns the versioned cache directory this fetcher uses.
func (f *Fetcher) CacheDir() (string, error) {
	if f.opts.CacheRoot != "" {
		return filepath.Join(f.opts.CacheRoot, fmt.Sprintf("v%s-%s", f.opts.Version, f.opts.Arch)), nil
	}
	return platform.CacheDir(f.opts.Version, f.opts.Arch)
}

// CachedPath reports the installed library path if the cache already
// holds this build.
func (f *Fetcher) CachedPath() (string, bool) {
	dir, err := f.CacheDir()
	if err != nil {
		return "", false
	}
	p := filepath.Join(dir, f.LibraryName())
	if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
		return p, true
	}
	return "", false
}

// Ensure returns the path of a cached engine library, acquiring it
// first when the cache misses. Acquisition order: configured mirror,
// then the GitHub release. Each source is tried with every payload
// form the distribution publishes.
func (f *Fetcher) Ensure(ctx context.Context) (string, error) {
	if p, ok := f.CachedPath(); ok {
		f.log.With().Str("path", p).Logger().Debug("using cached engine binary")
		return p, nil
	}

	dir, err := f.CacheDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir %s: %w", dir, err)
	}

	libName := f.LibraryName()
	var attempts []string

	if f.mirror != nil {
		for _, asset := range assetCandidates(libName) {
			key := f.mirrorKey(asset.name)
			p, err := f.fetchFromMirror(ctx, key, asset.kind, dir, libName)
			if err != nil {
				attempts = append(attempts, fmt.Sprintf("mirror %s: %v", key, err))
				continue
			}
			return p, nil
		}
	}

	for _, asset := range assetCandidates(libName) {
		url := f.releaseURL(asset.name)
		p, err := f.fetchFromURL(ctx, url, asset.kind, dir, libName)
		if err != nil {
			attempts = append(attempts, fmt.Sprintf("%s: %v", url, err))
			continue
		}
		return p, nil
	}

	return "", fmt.Errorf("engine v%s for %s not retrievable: %s",
		f.opts.Version, f.opts.Arch, strings.Join(attempts, "; "))
}

// payloadKind is the wire form one release asset uses.
type payloadKind int

const (
	payloadRaw payloadKind = iota
	payloadXZ
	payloadTarXZ
)

type asset struct {
	name string
	kind payloadKind
}

// assetCandidates lists the published payload forms for one library,
// cheapest to decode first.
func assetCandidates(libName string) []asset {
	return []asset{
		{name: libName, kind: payloadRaw},
		{name: libName + ".xz", kind: payloadXZ},
		{name: libName + ".tar.xz", kind: payloadTarXZ},
	}
}

// releaseURL builds the GitHub release download URL for one asset.
func (f *Fetcher) releaseURL(assetName string) string {
	return fmt.Sprintf("%s/%s/%s/releases/download/v%s/%s",
		strings.TrimRight(f.opts.ReleaseBaseURL, "/"),
		f.opts.ReleaseOwner, f.opts.ReleaseRepo, f.opts.Version, assetName)
}

// mirrorKey builds the object key for one asset in the mirror bucket.
func (f *Fetcher) mirrorKey(assetName string) string {
	return path.Join(f.opts.Mirror.Prefix, "v"+f.opts.Version, assetName)
}

func (f *Fetcher) fetchFromMirror(ctx context.Context, key string, kind payloadKind, dir, libName string) (string, error) {
	log := f.log.With().Str("key", key).Str("bucket", f.opts.Mirror.Bucket).Logger()
	log.Info("fetching engine binary from mirror")

	rc, err := f.mirror.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	p, err := f.install(rc, kind, dir, libName, "s3://"+path.Join(f.opts.Mirror.Bucket, key))
	if err != nil {
		return "", err
	}
	log.Info("engine binary installed from mirror")
	return p, nil
}

func (f *Fetcher) fetchFromURL(ctx context.Context, url string, kind payloadKind, dir, libName string) (string, error) {
	log := f.log.With().Str("url", url).Logger()
	log.Info("fetching engine binary from release")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %s", resp.Status)
	}

	p, err := f.install(resp.Body, kind, dir, libName, url)
	if err != nil {
		return "", err
	}
	log.Info("engine binary installed from release")
	return p, nil
}

// install decodes one payload stream into the cache: write to a temp
// file next to the final location, hash while writing, verify, fsync,
// chmod 0755, then atomically rename into place and stamp the
// metadata file.
func (f *Fetcher) install(r io.Reader, kind payloadKind, dir, libName, source string) (string, error) {
	payload, err := decodePayload(r, kind)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), payload)
	if err != nil {
		return "", fmt.Errorf("download payload: %w", err)
	}
	if n == 0 {
		return "", errors.New("payload is empty")
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if f.opts.SHA256 != "" && !strings.EqualFold(sum, f.opts.SHA256) {
		return "", fmt.Errorf("sha256 mismatch: got %s, want %s", sum, f.opts.SHA256)
	}

	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o755); err != nil {
		return "", fmt.Errorf("chmod library: %w", err)
	}

	final := filepath.Join(dir, libName)
	if err := os.Rename(tmpName, final); err != nil {
		return "", fmt.Errorf("install library: %w", err)
	}

	meta := Meta{
		Version:   f.opts.Version,
		Arch:      f.opts.Arch,
		Source:    source,
		SHA256:    sum,
		SizeBytes: n,
		FetchedAt: time.Now().UTC(),
	}
	if err := WriteMeta(final, meta); err != nil {
		// The library itself is installed and usable; a failed stamp
		// only degrades `info` output.
		f.log.With().Err(err).Logger().Warn("write cache metadata failed")
	}
	return final, nil
}

// decodePayload unwraps the asset's wire form down to the bare shared
// library stream.
func decodePayload(r io.Reader, kind payloadKind) (io.Reader, error) {
	switch kind {
	case payloadRaw:
		return r, nil
	case payloadXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		return xr, nil
	case payloadTarXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		return findLibraryInTar(tar.NewReader(xr))
	default:
		return nil, fmt.Errorf("unknown payload kind %d", kind)
	}
}

// findLibraryInTar advances the archive to its first shared library
// entry. Archives published for this distribution hold exactly one.
func findLibraryInTar(tr *tar.Reader) (io.Reader, error) {
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, errors.New("archive holds no shared library")
		}
		if err != nil {
			return nil, fmt.Errorf("read archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if isSharedLibrary(filepath.Base(hdr.Name)) {
			return tr, nil
		}
	}
}

func isSharedLibrary(name string) bool {
	return strings.HasSuffix(name, ".so") ||
		strings.HasSuffix(name, ".dylib") ||
		strings.HasSuffix(name, ".dll") ||
		strings.Contains(name, ".so.")
}
