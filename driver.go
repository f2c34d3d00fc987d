// Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"sync/atomic"
)

func init() {
	sql.Register("duckdb", &Driver{})
}

// Driver implements database/sql/driver.Driver. The DSN is a database
// path; empty or ":memory:" opens an in-memory database.
type Driver struct{}

// Open opens a single connection to the database at the DSN path.
func (d *Driver) Open(name string) (driver.Conn, error) {
	c, err := d.OpenConnector(name)
	if err != nil {
		return nil, err
	}
	return c.Connect(context.Background())
}

// OpenConnector returns a Connector that shares one database handle
// across all pooled connections, the engine's intended usage.
func (d *Driver) OpenConnector(name string) (driver.Connector, error) {
	return NewConnector(name), nil
}

var (
	_ driver.Driver        = (*Driver)(nil)
	_ driver.DriverContext = (*Driver)(nil)
)

// Connector opens pooled connections against a single shared database.
// The database itself is opened lazily on the first Connect, through
// the process default library.
type Connector struct {
	path string

	mu sync.Mutex
	db *Database
}

// NewConnector creates a Connector for the database at path. Use with
// sql.OpenDB to avoid DSN parsing entirely.
func NewConnector(path string) *Connector {
	return &Connector{path: path}
}

// Connect opens one new connection.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		lib, err := DefaultLibrary()
		if err != nil {
			return nil, err
		}
		db, err := lib.Open(c.path)
		if err != nil {
			return nil, err
		}
		c.db = db
	}

	conn, err := c.db.Connect()
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: conn}, nil
}

// Driver returns the Connector's driver.
func (c *Connector) Driver() driver.Driver {
	return &Driver{}
}

// Close releases the shared database. database/sql calls it when the
// pool shuts down; it fails with ErrBusy while connections are open.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return err
	}
	c.db = nil
	return nil
}

// sqlConn adapts a Connection to driver.Conn. Queries run through
// QueryerContext/ExecerContext directly; the prepared-statement path
// exists only for parameterless statements because the bound C surface
// has no prepare/bind API.
type sqlConn struct {
	conn *Connection
}

var (
	_ driver.Conn           = (*sqlConn)(nil)
	_ driver.ConnBeginTx    = (*sqlConn)(nil)
	_ driver.QueryerContext = (*sqlConn)(nil)
	_ driver.ExecerContext  = (*sqlConn)(nil)
	_ driver.Pinger         = (*sqlConn)(nil)
	_ driver.Validator      = (*sqlConn)(nil)
)

// Prepare returns a statement for a parameterless query.
func (c *sqlConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

// PrepareContext returns a statement for a parameterless query.
func (c *sqlConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if atomic.LoadInt32(&c.conn.closed) != 0 {
		return nil, driver.ErrBadConn
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	return &Statement{conn: c.conn, query: query}, nil
}

// Close closes the underlying connection. The shared database stays
// open for the pool's other connections.
func (c *sqlConn) Close() error {
	return c.conn.Close()
}

// Begin starts a transaction with default options.
func (c *sqlConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx starts a transaction by issuing BEGIN TRANSACTION. The engine
// runs serializable transactions only, so any other requested isolation
// level is rejected rather than silently weakened.
func (c *sqlConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if atomic.LoadInt32(&c.conn.closed) != 0 {
		return nil, driver.ErrBadConn
	}
	if opts.ReadOnly {
		return nil, NewError(ErrTransaction, "read-only transactions are not supported")
	}
	switch sql.IsolationLevel(opts.Isolation) {
	case sql.LevelDefault, sql.LevelSerializable:
	default:
		return nil, NewError(ErrTransaction, fmt.Sprintf("unsupported isolation level: %d", opts.Isolation))
	}

	if err := c.conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return nil, err
	}
	return &Transaction{conn: c.conn}, nil
}

// QueryContext executes a parameterless query.
func (c *sqlConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if len(args) > 0 {
		return nil, errNoParameters
	}
	res, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &Rows{res: res}, nil
}

// ExecContext executes a parameterless statement and reports the change
// count the engine returns.
func (c *sqlConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if len(args) > 0 {
		return nil, errNoParameters
	}
	res, err := c.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	return execResult{rows: affectedRows(res)}, nil
}

// Ping verifies the connection with a trivial round trip.
func (c *sqlConn) Ping(ctx context.Context) error {
	res, err := c.conn.QueryContext(ctx, "SELECT 1")
	if err != nil {
		if IsError(err, ErrClosed) {
			return driver.ErrBadConn
		}
		return err
	}
	return res.Close()
}

// IsValid reports whether the pool may reuse this connection.
func (c *sqlConn) IsValid() bool {
	return atomic.LoadInt32(&c.conn.closed) == 0
}

// errNoParameters is returned for any statement carrying bind
// parameters.
var errNoParameters = NewError(ErrPrepare,
	"parameter binding is not supported by the bound engine surface; inline literal values")

// affectedRows reads the change count a data-modifying statement
// reports through its single-cell BIGINT result.
func affectedRows(res *Result) int64 {
	if res.ColumnCount() != 1 || res.RowCount() != 1 {
		return 0
	}
	t, err := res.ColumnType(0)
	if err != nil || t != TypeBigInt {
		return 0
	}
	isNull, err := res.IsNull(0, 0)
	if err != nil || isNull {
		return 0
	}
	n, err := res.ValueInt64(0, 0)
	if err != nil {
		return 0
	}
	return n
}

// execResult implements driver.Result for statements without rows.
type execResult struct {
	rows int64
}

// LastInsertId is not supported by the engine.
func (r execResult) LastInsertId() (int64, error) {
	return 0, NewError(ErrGeneric, "last insert id is not supported")
}

// RowsAffected returns the engine-reported change count.
func (r execResult) RowsAffected() (int64, error) {
	return r.rows, nil
}
