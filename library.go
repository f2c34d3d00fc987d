package duckdb

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Library is one loaded engine binary together with its bound symbol
// table. Process-global native state is kept explicit: callers may load
// several engine builds side by side, or share DefaultLibrary.
type Library struct {
	path   string
	handle uintptr
	api    *api

	mu          sync.Mutex
	closed      int32 // atomic
	liveDBs     int64 // atomic
	liveResults int64 // atomic
}

// OpenLibrary loads the engine's shared library at path and binds the
// full API surface. Symbol binding failures surface as ErrInit, so an
// incompatible binary is rejected at load time.
func OpenLibrary(path string) (*Library, error) {
	handle, err := loadDynamicLibrary(path)
	if err != nil {
		return nil, NewError(ErrInit, fmt.Sprintf("load %s: %v", path, err))
	}
	a, err := bindAPI(handle)
	if err != nil {
		closeLibrary(handle)
		return nil, err
	}
	return &Library{path: path, handle: handle, api: a}, nil
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Version reports the engine's version string, parsed.
func (l *Library) Version() (Version, error) {
	if atomic.LoadInt32(&l.closed) != 0 {
		return Version{}, NewError(ErrClosed, "library is closed")
	}
	return ParseVersion(goString(l.api.libraryVersion())), nil
}

// Open opens the database at path through this library. An empty path
// or ":memory:" opens a transient in-memory database.
func (l *Library) Open(path string) (*Database, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if atomic.LoadInt32(&l.closed) != 0 {
		return nil, NewError(ErrClosed, "library is closed")
	}
	if path == "" {
		path = InMemoryPath
	}

	var handle *nativeDatabase
	if state := State(l.api.open(path, &handle)); state != StateSuccess {
		// A failed open can still hand back a partially constructed
		// handle, which must be released like any other.
		if handle != nil {
			l.api.close(&handle)
		}
		return nil, &Error{Type: ErrOpen, Message: fmt.Sprintf("open database %q failed", path), Code: int(state)}
	}

	atomic.AddInt64(&l.liveDBs, 1)
	return newDatabase(l, handle, path), nil
}

// OpenInMemory opens a transient in-memory database.
func (l *Library) OpenInMemory() (*Database, error) {
	return l.Open(InMemoryPath)
}

// Close unloads the engine binary. It fails with ErrBusy while any
// database or result obtained through this library is still live,
// because the engine code must stay mapped for their release calls.
// Closing twice is a no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := atomic.LoadInt64(&l.liveDBs); n != 0 {
		return NewError(ErrBusy, fmt.Sprintf("library close refused: %d database(s) still open", n))
	}
	if n := atomic.LoadInt64(&l.liveResults); n != 0 {
		return NewError(ErrBusy, fmt.Sprintf("library close refused: %d result(s) still open", n))
	}
	if !atomic.CompareAndSwapInt32(&l.closed, 0, 1) {
		return nil
	}
	closeLibrary(l.handle)
	l.handle = 0
	return nil
}

// LiveHandles reports the number of open databases and results held
// against this library. Useful for leak checks in tests.
func (l *Library) LiveHandles() (databases, results int64) {
	return atomic.LoadInt64(&l.liveDBs), atomic.LoadInt64(&l.liveResults)
}

// Process default library, located and loaded on first use.
var (
	defaultLibOnce sync.Once
	defaultLib     *Library
	defaultLibErr  error
)

// DefaultLibrary returns the process-wide engine library, locating the
// binary on first call. The database/sql driver and the package-level
// Open helpers share it.
func DefaultLibrary() (*Library, error) {
	defaultLibOnce.Do(func() {
		path, err := LocateLibrary()
		if err != nil {
			defaultLibErr = err
			return
		}
		defaultLib, defaultLibErr = OpenLibrary(path)
	})
	return defaultLib, defaultLibErr
}
