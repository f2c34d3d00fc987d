// Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API.
package duckdb

import (
	"context"
	"database/sql/driver"
	"sync/atomic"
)

// Statement is a driver.Stmt over one SQL string. The bound engine
// surface has no prepare/bind API, so a Statement accepts zero
// parameters and submits its text unchanged on every execution.
type Statement struct {
	conn   *Connection
	query  string
	closed int32
}

var (
	_ driver.Stmt             = (*Statement)(nil)
	_ driver.StmtExecContext  = (*Statement)(nil)
	_ driver.StmtQueryContext = (*Statement)(nil)
)

// Close releases the statement. The connection stays open.
func (s *Statement) Close() error {
	atomic.StoreInt32(&s.closed, 1)
	return nil
}

// NumInput returns 0: parameters are not supported, and database/sql
// rejects argument lists against it before reaching the engine.
func (s *Statement) NumInput() int {
	return 0
}

// Exec runs the statement and reports the engine's change count.
func (s *Statement) Exec(args []driver.Value) (driver.Result, error) {
	if len(args) > 0 {
		return nil, errNoParameters
	}
	return s.ExecContext(context.Background(), nil)
}

// ExecContext runs the statement and reports the engine's change count.
func (s *Statement) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	if len(args) > 0 {
		return nil, errNoParameters
	}
	if atomic.LoadInt32(&s.closed) != 0 {
		return nil, NewError(ErrClosed, "statement is closed")
	}
	res, err := s.conn.QueryContext(ctx, s.query)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return execResult{rows: affectedRows(res)}, nil
}

// Query runs the statement and returns its rows.
func (s *Statement) Query(args []driver.Value) (driver.Rows, error) {
	if len(args) > 0 {
		return nil, errNoParameters
	}
	return s.QueryContext(context.Background(), nil)
}

// QueryContext runs the statement and returns its rows.
func (s *Statement) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) > 0 {
		return nil, errNoParameters
	}
	if atomic.LoadInt32(&s.closed) != 0 {
		return nil, NewError(ErrClosed, "statement is closed")
	}
	res, err := s.conn.QueryContext(ctx, s.query)
	if err != nil {
		return nil, err
	}
	return &Rows{res: res}, nil
}
