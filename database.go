package duckdb

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Database is an open database handle. It is created through a Library
// and owns the connections made against it.
type Database struct {
	lib    *Library
	handle *nativeDatabase
	path   string

	mu        sync.Mutex
	closed    int32 // atomic
	liveConns int64 // atomic
}

func newDatabase(lib *Library, handle *nativeDatabase, path string) *Database {
	db := &Database{lib: lib, handle: handle, path: path}
	runtime.SetFinalizer(db, (*Database).finalize)
	return db
}

// Path returns the location the database was opened at.
func (db *Database) Path() string {
	return db.path
}

// Library returns the library this database was opened through.
func (db *Database) Library() *Library {
	return db.lib
}

// Connect opens a new connection scoped to this database.
func (db *Database) Connect() (*Connection, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if atomic.LoadInt32(&db.closed) != 0 {
		return nil, NewError(ErrClosed, "database is closed")
	}

	var handle *nativeConnection
	if state := State(db.lib.api.connect(db.handle, &handle)); state != StateSuccess {
		return nil, &Error{Type: ErrConnection, Message: "connect to database failed", Code: int(state)}
	}

	atomic.AddInt64(&db.liveConns, 1)
	return newConnection(db, handle), nil
}

// Close releases the database handle. Connections must be closed
// first; Close reports ErrBusy otherwise. Closing twice is a no-op, so
// callers never have to null out handles themselves.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if n := atomic.LoadInt64(&db.liveConns); n != 0 {
		return NewError(ErrBusy, fmt.Sprintf("database close refused: %d connection(s) still open", n))
	}
	if !atomic.CompareAndSwapInt32(&db.closed, 0, 1) {
		return nil
	}
	runtime.SetFinalizer(db, nil)
	db.lib.api.close(&db.handle)
	db.handle = nil
	atomic.AddInt64(&db.lib.liveDBs, -1)
	return nil
}

func (db *Database) finalize() {
	_ = db.Close()
}
