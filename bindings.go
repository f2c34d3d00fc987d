// Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API.
package duckdb

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Opaque native handle types. The engine owns the memory behind them;
// the binding never dereferences one and never assumes a layout.
type (
	nativeDatabase   struct{}
	nativeConnection struct{}
	nativeResult     struct{}
)

// api is the symbol table of one loaded engine library. Every field is
// bound with purego.RegisterLibFunc against the exported C symbol.
//
// ABI notes, fixed by the engine header:
//   - duckdb_state is a 4-byte enum, crossed as int32
//   - idx_t is uint64
//   - the result handle is opaque and result functions take its address
//   - char* returns are never auto-converted to Go strings: ownership
//     differs per symbol (engine-owned vs caller-freed), so they cross
//     as unsafe.Pointer and are copied by goString
type api struct {
	open           func(path string, out **nativeDatabase) int32
	close          func(db **nativeDatabase)
	connect        func(db *nativeDatabase, out **nativeConnection) int32
	disconnect     func(conn **nativeConnection)
	query          func(conn *nativeConnection, sql string, out **nativeResult) int32
	destroyResult  func(res **nativeResult)
	libraryVersion func() unsafe.Pointer
	columnCount    func(res **nativeResult) uint64
	rowCount       func(res **nativeResult) uint64
	columnName     func(res **nativeResult, col uint64) unsafe.Pointer
	columnType     func(res **nativeResult, col uint64) int32
	columnData     func(res **nativeResult, col uint64) unsafe.Pointer
	nullmaskData   func(res **nativeResult, col uint64) unsafe.Pointer
	resultError    func(res **nativeResult) unsafe.Pointer
	valueBoolean   func(res **nativeResult, col, row uint64) bool
	valueInt8      func(res **nativeResult, col, row uint64) int8
	valueInt16     func(res **nativeResult, col, row uint64) int16
	valueInt32     func(res **nativeResult, col, row uint64) int32
	valueInt64     func(res **nativeResult, col, row uint64) int64
	valueFloat     func(res **nativeResult, col, row uint64) float32
	valueDouble    func(res **nativeResult, col, row uint64) float64
	valueVarchar   func(res **nativeResult, col, row uint64) unsafe.Pointer
	free           func(ptr unsafe.Pointer)
}

// bindAPI resolves every symbol the binding uses. RegisterLibFunc
// panics on a missing symbol, so the recover turns an incompatible
// binary into an ErrInit at load time instead of a crash mid-query.
func bindAPI(handle uintptr) (a *api, err error) {
	defer func() {
		if r := recover(); r != nil {
			a = nil
			err = NewError(ErrInit, fmt.Sprintf("bind engine symbols: %v", r))
		}
	}()

	a = &api{}
	purego.RegisterLibFunc(&a.open, handle, "duckdb_open")
	purego.RegisterLibFunc(&a.close, handle, "duckdb_close")
	purego.RegisterLibFunc(&a.connect, handle, "duckdb_connect")
	purego.RegisterLibFunc(&a.disconnect, handle, "duckdb_disconnect")
	purego.RegisterLibFunc(&a.query, handle, "duckdb_query")
	purego.RegisterLibFunc(&a.destroyResult, handle, "duckdb_destroy_result")
	purego.RegisterLibFunc(&a.libraryVersion, handle, "duckdb_library_version")
	purego.RegisterLibFunc(&a.columnCount, handle, "duckdb_column_count")
	purego.RegisterLibFunc(&a.rowCount, handle, "duckdb_row_count")
	purego.RegisterLibFunc(&a.columnName, handle, "duckdb_column_name")
	purego.RegisterLibFunc(&a.columnType, handle, "duckdb_column_type")
	purego.RegisterLibFunc(&a.columnData, handle, "duckdb_column_data")
	purego.RegisterLibFunc(&a.nullmaskData, handle, "duckdb_nullmask_data")
	purego.RegisterLibFunc(&a.resultError, handle, "duckdb_result_error")
	purego.RegisterLibFunc(&a.valueBoolean, handle, "duckdb_value_boolean")
	purego.RegisterLibFunc(&a.valueInt8, handle, "duckdb_value_int8")
	purego.RegisterLibFunc(&a.valueInt16, handle, "duckdb_value_int16")
	purego.RegisterLibFunc(&a.valueInt32, handle, "duckdb_value_int32")
	purego.RegisterLibFunc(&a.valueInt64, handle, "duckdb_value_int64")
	purego.RegisterLibFunc(&a.valueFloat, handle, "duckdb_value_float")
	purego.RegisterLibFunc(&a.valueDouble, handle, "duckdb_value_double")
	purego.RegisterLibFunc(&a.valueVarchar, handle, "duckdb_value_varchar")
	purego.RegisterLibFunc(&a.free, handle, "duckdb_free")
	return a, nil
}

// goString copies a NUL-terminated C string into a Go string. The
// native buffer is left untouched; freeing it, when required, is the
// caller's job.
func goString(ptr unsafe.Pointer) string {
	if ptr == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(ptr), n))
}

// copyBools copies n one-byte bools out of a native buffer. A nil
// buffer yields an all-false slice of the requested length.
func copyBools(ptr unsafe.Pointer, n uint64) []bool {
	out := make([]bool, n)
	if ptr == nil || n == 0 {
		return out
	}
	copy(out, unsafe.Slice((*bool)(ptr), n))
	return out
}
