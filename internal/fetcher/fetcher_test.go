package fetcher

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/seanchatmangpt/frozen-duckdb/internal/platform"
)

// enginePayload stands in for a shared library; content only matters
// for integrity checks.
var enginePayload = []byte("\x7fELF frozen duckdb engine test payload")

func payloadSHA() string {
	h := sha256.Sum256(enginePayload)
	return hex.EncodeToString(h[:])
}

func xzCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func tarXZCompress(t *testing.T, entryName string, data []byte) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     entryName,
		Mode:     0o755,
		Size:     int64(len(data)),
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write(data)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	return xzCompress(t, tarBuf.Bytes())
}

// releaseServer serves the given assets under GitHub release paths and
// counts requests.
func releaseServer(t *testing.T, version string, assets map[string][]byte) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		prefix := "/owner/repo/releases/download/v" + version + "/"
		name, ok := strings.CutPrefix(r.URL.Path, prefix)
		if !ok {
			http.NotFound(w, r)
			return
		}
		body, ok := assets[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newTestFetcher(t *testing.T, baseURL, cacheRoot string) *Fetcher {
	t.Helper()
	f, err := New(Options{
		Version:        "1.4.0",
		Arch:           platform.ArchX86,
		CacheRoot:      cacheRoot,
		ReleaseOwner:   "owner",
		ReleaseRepo:    "repo",
		ReleaseBaseURL: baseURL,
	})
	require.NoError(t, err)
	return f
}

func libName() string {
	return platform.LibraryCandidates(platform.ArchX86)[0]
}

func TestEnsureDownloadsRawAsset(t *testing.T) {
	srv, _ := releaseServer(t, "1.4.0", map[string][]byte{
		libName(): enginePayload,
	})
	cacheRoot := t.TempDir()

	f := newTestFetcher(t, srv.URL, cacheRoot)
	p, err := f.Ensure(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(cacheRoot, "v1.4.0-x86_64", libName()), p)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, enginePayload, got)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o755), fi.Mode().Perm())
	}

	meta, err := ReadMeta(p)
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", meta.Version)
	assert.Equal(t, platform.ArchX86, meta.Arch)
	assert.Equal(t, payloadSHA(), meta.SHA256)
	assert.Equal(t, int64(len(enginePayload)), meta.SizeBytes)
	assert.Contains(t, meta.Source, srv.URL)
	assert.False(t, meta.FetchedAt.IsZero())
}

func TestEnsureUsesCache(t *testing.T) {
	srv, hits := releaseServer(t, "1.4.0", nil)
	cacheRoot := t.TempDir()

	dir := filepath.Join(cacheRoot, "v1.4.0-x86_64")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, libName()), enginePayload, 0o755))

	f := newTestFetcher(t, srv.URL, cacheRoot)
	p, err := f.Ensure(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, libName()), p)
	assert.Zero(t, *hits, "cache hit must not touch the network")
}

func TestEnsureDecodesXZ(t *testing.T) {
	srv, _ := releaseServer(t, "1.4.0", map[string][]byte{
		libName() + ".xz": xzCompress(t, enginePayload),
	})

	f := newTestFetcher(t, srv.URL, t.TempDir())
	p, err := f.Ensure(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, enginePayload, got)
}

func TestEnsureDecodesTarXZ(t *testing.T) {
	srv, _ := releaseServer(t, "1.4.0", map[string][]byte{
		libName() + ".tar.xz": tarXZCompress(t, "libduckdb.so", enginePayload),
	})

	f := newTestFetcher(t, srv.URL, t.TempDir())
	p, err := f.Ensure(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, enginePayload, got)
}

func TestEnsureSkipsNonLibraryTarEntries(t *testing.T) {
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	readme := []byte("see upstream release notes")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "README.md", Mode: 0o644, Size: int64(len(readme)), Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write(readme)
	require.NoError(t, err)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "lib/libduckdb.so", Mode: 0o755, Size: int64(len(enginePayload)), Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write(enginePayload)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	srv, _ := releaseServer(t, "1.4.0", map[string][]byte{
		libName() + ".tar.xz": xzCompress(t, tarBuf.Bytes()),
	})

	f := newTestFetcher(t, srv.URL, t.TempDir())
	p, err := f.Ensure(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, enginePayload, got)
}

func TestEnsureVerifiesSHA256(t *testing.T) {
	srv, _ := releaseServer(t, "1.4.0", map[string][]byte{
		libName(): enginePayload,
	})
	cacheRoot := t.TempDir()

	f := newTestFetcher(t, srv.URL, cacheRoot)
	f.opts.SHA256 = "deadbeef"

	_, err := f.Ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sha256 mismatch")

	// Nothing may be left installed after a failed verification.
	_, ok := f.CachedPath()
	assert.False(t, ok)
}

func TestEnsureAcceptsMatchingSHA256(t *testing.T) {
	srv, _ := releaseServer(t, "1.4.0", map[string][]byte{
		libName(): enginePayload,
	})

	f := newTestFetcher(t, srv.URL, t.TempDir())
	f.opts.SHA256 = payloadSHA()

	_, err := f.Ensure(context.Background())
	require.NoError(t, err)
}

func TestEnsureFailsWhenNothingServes(t *testing.T) {
	srv, _ := releaseServer(t, "1.4.0", nil)

	f := newTestFetcher(t, srv.URL, t.TempDir())
	_, err := f.Ensure(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not retrievable")
}

// fakeMirror serves payloads from memory, recording requested keys.
type fakeMirror struct {
	objects map[string][]byte
	keys    []string
}

func (m *fakeMirror) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.keys = append(m.keys, key)
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func TestEnsurePrefersMirror(t *testing.T) {
	srv, hits := releaseServer(t, "1.4.0", map[string][]byte{
		libName(): []byte("wrong payload from release"),
	})

	f := newTestFetcher(t, srv.URL, t.TempDir())
	f.opts.Mirror.Bucket = "engines"
	f.opts.Mirror.Prefix = "frozen"
	f.mirror = &fakeMirror{objects: map[string][]byte{
		"frozen/v1.4.0/" + libName(): enginePayload,
	}}

	p, err := f.Ensure(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, enginePayload, got)
	assert.Zero(t, *hits, "mirror hit must not touch the release host")

	meta, err := ReadMeta(p)
	require.NoError(t, err)
	assert.Equal(t, "s3://engines/frozen/v1.4.0/"+libName(), meta.Source)
}

func TestEnsureFallsBackFromMirror(t *testing.T) {
	srv, _ := releaseServer(t, "1.4.0", map[string][]byte{
		libName(): enginePayload,
	})

	f := newTestFetcher(t, srv.URL, t.TempDir())
	f.opts.Mirror.Bucket = "engines"
	mirror := &fakeMirror{objects: nil}
	f.mirror = mirror

	p, err := f.Ensure(context.Background())
	require.NoError(t, err)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, enginePayload, got)
	assert.NotEmpty(t, mirror.keys, "mirror must be tried first")
}

func TestMetaRoundTrip(t *testing.T) {
	dir := t.TempDir()
	libPath := filepath.Join(dir, "libduckdb_x86_64.so")

	meta := Meta{
		Version:   "1.4.0",
		Arch:      platform.ArchX86,
		Source:    "https://example.com/lib.so",
		SHA256:    payloadSHA(),
		SizeBytes: 42,
	}
	require.NoError(t, WriteMeta(libPath, meta))

	got, err := ReadMeta(libPath)
	require.NoError(t, err)
	assert.Equal(t, meta.Version, got.Version)
	assert.Equal(t, meta.Arch, got.Arch)
	assert.Equal(t, meta.Source, got.Source)
	assert.Equal(t, meta.SHA256, got.SHA256)
	assert.Equal(t, meta.SizeBytes, got.SizeBytes)
}

func TestReadMetaMissing(t *testing.T) {
	_, err := ReadMeta(filepath.Join(t.TempDir(), "libduckdb.so"))
	require.Error(t, err)
}

func TestAssetCandidatesOrder(t *testing.T) {
	got := assetCandidates("libduckdb_arm64.so")
	require.Len(t, got, 3)
	assert.Equal(t, asset{"libduckdb_arm64.so", payloadRaw}, got[0])
	assert.Equal(t, asset{"libduckdb_arm64.so.xz", payloadXZ}, got[1])
	assert.Equal(t, asset{"libduckdb_arm64.so.tar.xz", payloadTarXZ}, got[2])
}

func TestIsSharedLibrary(t *testing.T) {
	assert.True(t, isSharedLibrary("libduckdb.so"))
	assert.True(t, isSharedLibrary("libduckdb.so.1.4"))
	assert.True(t, isSharedLibrary("libduckdb_arm64.dylib"))
	assert.True(t, isSharedLibrary("duckdb.dll"))
	assert.False(t, isSharedLibrary("README.md"))
	assert.False(t, isSharedLibrary("duckdb.h"))
}
