// Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API.
package duckdb

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Connection is a single connection to an open database. A Connection
// serializes its native calls with a mutex; open one connection per
// goroutine for parallel work.
type Connection struct {
	db     *Database
	handle *nativeConnection

	mu     sync.Mutex
	closed int32 // atomic
}

func newConnection(db *Database, handle *nativeConnection) *Connection {
	c := &Connection{db: db, handle: handle}
	runtime.SetFinalizer(c, (*Connection).finalize)
	return c
}

// Database returns the database this connection belongs to.
func (c *Connection) Database() *Database {
	return c.db
}

// Query executes sqlText and materializes the whole result set. The
// returned Result must be closed. The native call blocks until the
// engine finishes; use QueryContext when a deadline matters.
func (c *Connection) Query(sqlText string) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if atomic.LoadInt32(&c.closed) != 0 {
		return nil, NewError(ErrClosed, "connection is closed")
	}

	api := c.db.lib.api
	var handle *nativeResult
	state := State(api.query(c.handle, sqlText, &handle))
	if state != StateSuccess {
		// The failed result still carries the engine's diagnostic and
		// must still be destroyed.
		msg := goString(api.resultError(&handle))
		api.destroyResult(&handle)
		if msg == "" {
			msg = "query failed"
		}
		return nil, &Error{Type: ErrQuery, Message: msg, Code: int(state)}
	}

	return newResult(c.db.lib, handle), nil
}

// QueryContext is Query with context checks before and after the
// native call. The engine call itself cannot be interrupted.
func (c *Connection) QueryContext(ctx context.Context, sqlText string) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	res, err := c.Query(sqlText)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		res.Close()
		return nil, ctx.Err()
	default:
	}
	return res, nil
}

// Exec runs sqlText and discards any rows, returning only the error.
func (c *Connection) Exec(sqlText string) error {
	res, err := c.Query(sqlText)
	if err != nil {
		return err
	}
	return res.Close()
}

// ExecContext is Exec with a context check before the native call.
func (c *Connection) ExecContext(ctx context.Context, sqlText string) error {
	res, err := c.QueryContext(ctx, sqlText)
	if err != nil {
		return err
	}
	return res.Close()
}

// Close releases the connection handle. Closing twice is a no-op.
// Results obtained from this connection stay readable: the engine ties
// their lifetime to the library, not to the connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	runtime.SetFinalizer(c, nil)
	c.db.lib.api.disconnect(&c.handle)
	c.handle = nil
	atomic.AddInt64(&c.db.liveConns, -1)
	return nil
}

func (c *Connection) finalize() {
	_ = c.Close()
}
