package duckdb

import (
	"database/sql/driver"
	"sync/atomic"
)

// Transaction is a driver.Tx. The bound engine surface has no native
// transaction API, so control flows through plain SQL: BeginTx issues
// BEGIN TRANSACTION, and Commit/Rollback issue the matching statement
// exactly once.
type Transaction struct {
	conn *Connection
	done int32
}

var _ driver.Tx = (*Transaction)(nil)

// Commit commits the transaction.
func (tx *Transaction) Commit() error {
	if !atomic.CompareAndSwapInt32(&tx.done, 0, 1) {
		return NewError(ErrTransaction, "transaction already finished")
	}
	return tx.conn.Exec("COMMIT")
}

// Rollback aborts the transaction.
func (tx *Transaction) Rollback() error {
	if !atomic.CompareAndSwapInt32(&tx.done, 0, 1) {
		return NewError(ErrTransaction, "transaction already finished")
	}
	return tx.conn.Exec("ROLLBACK")
}
