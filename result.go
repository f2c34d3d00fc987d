// Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API.
package duckdb

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Result is a fully materialized query result. Column count, row count,
// names and types are cached at construction, so introspection never
// touches the native handle again. Cell and column reads are guarded
// against released handles, bad indexes and type mismatches; the one
// thing the caller still owns is checking IsNull before trusting a
// decoded value, because no native accessor signals nullness.
type Result struct {
	lib    *Library
	api    *api
	handle *nativeResult

	rowCount    int64
	columnCount int
	columnNames []string
	columnTypes []Type

	mu     sync.RWMutex
	closed int32 // atomic
}

func newResult(lib *Library, handle *nativeResult) *Result {
	r := &Result{lib: lib, api: lib.api, handle: handle}

	r.columnCount = int(r.api.columnCount(&r.handle))
	r.rowCount = int64(r.api.rowCount(&r.handle))

	// Column names are engine-owned and freed with the result; they are
	// copied here so they survive Close.
	r.columnNames = make([]string, r.columnCount)
	r.columnTypes = make([]Type, r.columnCount)
	for i := 0; i < r.columnCount; i++ {
		r.columnNames[i] = goString(r.api.columnName(&r.handle, uint64(i)))
		r.columnTypes[i] = Type(r.api.columnType(&r.handle, uint64(i)))
	}

	atomic.AddInt64(&lib.liveResults, 1)
	runtime.SetFinalizer(r, (*Result).finalize)
	return r
}

// Close destroys the native result. Closing twice is a no-op. Cached
// metadata stays readable after Close; cell reads fail with ErrClosed.
func (r *Result) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !atomic.CompareAndSwapInt32(&r.closed, 0, 1) {
		return nil
	}
	runtime.SetFinalizer(r, nil)
	r.api.destroyResult(&r.handle)
	r.handle = nil
	atomic.AddInt64(&r.lib.liveResults, -1)
	return nil
}

func (r *Result) finalize() {
	_ = r.Close()
}

// RowCount returns the number of rows in the result set.
func (r *Result) RowCount() int64 {
	return r.rowCount
}

// ColumnCount returns the number of columns in the result set.
func (r *Result) ColumnCount() int {
	return r.columnCount
}

// ColumnNames returns a copy of the column names in column order.
func (r *Result) ColumnNames() []string {
	names := make([]string, len(r.columnNames))
	copy(names, r.columnNames)
	return names
}

// ColumnTypes returns a copy of the declared column types.
func (r *Result) ColumnTypes() []Type {
	types := make([]Type, len(r.columnTypes))
	copy(types, r.columnTypes)
	return types
}

// ColumnName returns the name of one column.
func (r *Result) ColumnName(col int) (string, error) {
	if col < 0 || col >= r.columnCount {
		return "", r.boundsErr("column", int64(col), int64(r.columnCount))
	}
	return r.columnNames[col], nil
}

// ColumnType returns the declared type of one column.
func (r *Result) ColumnType(col int) (Type, error) {
	if col < 0 || col >= r.columnCount {
		return TypeInvalid, r.boundsErr("column", int64(col), int64(r.columnCount))
	}
	return r.columnTypes[col], nil
}

// ErrorMessage returns the engine's diagnostic for this result, empty
// when there is none or after Close.
func (r *Result) ErrorMessage() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if atomic.LoadInt32(&r.closed) != 0 {
		return ""
	}
	return goString(r.api.resultError(&r.handle))
}

// IsNull reports whether the cell at (col, row) is NULL. Callers must
// consult it before trusting any typed accessor's value.
func (r *Result) IsNull(col int, row int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeInvalid); err != nil {
		return false, err
	}
	mask := r.api.nullmaskData(&r.handle, uint64(col))
	if mask == nil {
		return false, nil
	}
	return *(*bool)(unsafe.Add(mask, row)), nil
}

// ValueBoolean decodes the BOOLEAN cell at (col, row). NULL cells
// decode to the zero value; check IsNull first.
func (r *Result) ValueBoolean(col int, row int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeBoolean); err != nil {
		return false, err
	}
	return r.api.valueBoolean(&r.handle, uint64(col), uint64(row)), nil
}

// ValueInt8 decodes the TINYINT cell at (col, row).
func (r *Result) ValueInt8(col int, row int64) (int8, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeTinyInt); err != nil {
		return 0, err
	}
	return r.api.valueInt8(&r.handle, uint64(col), uint64(row)), nil
}

// ValueInt16 decodes the SMALLINT cell at (col, row).
func (r *Result) ValueInt16(col int, row int64) (int16, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeSmallInt); err != nil {
		return 0, err
	}
	return r.api.valueInt16(&r.handle, uint64(col), uint64(row)), nil
}

// ValueInt32 decodes the INTEGER cell at (col, row).
func (r *Result) ValueInt32(col int, row int64) (int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeInteger); err != nil {
		return 0, err
	}
	return r.api.valueInt32(&r.handle, uint64(col), uint64(row)), nil
}

// ValueInt64 decodes the BIGINT cell at (col, row).
func (r *Result) ValueInt64(col int, row int64) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeBigInt); err != nil {
		return 0, err
	}
	return r.api.valueInt64(&r.handle, uint64(col), uint64(row)), nil
}

// ValueFloat decodes the FLOAT cell at (col, row).
func (r *Result) ValueFloat(col int, row int64) (float32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeFloat); err != nil {
		return 0, err
	}
	return r.api.valueFloat(&r.handle, uint64(col), uint64(row)), nil
}

// ValueDouble decodes the DOUBLE cell at (col, row).
func (r *Result) ValueDouble(col int, row int64) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeDouble); err != nil {
		return 0, err
	}
	return r.api.valueDouble(&r.handle, uint64(col), uint64(row)), nil
}

// ValueVarchar decodes the VARCHAR cell at (col, row). The engine
// allocates the C string; it is copied and freed before returning.
func (r *Result) ValueVarchar(col int, row int64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.cellCheck(col, row, TypeVarchar); err != nil {
		return "", err
	}
	ptr := r.api.valueVarchar(&r.handle, uint64(col), uint64(row))
	if ptr == nil {
		return "", nil
	}
	s := goString(ptr)
	r.api.free(ptr)
	return s, nil
}

// GetValue decodes the cell at (col, row) into a Go value chosen by the
// column's declared type, along with its null flag.
func (r *Result) GetValue(col int, row int64) (interface{}, bool, error) {
	isNull, err := r.IsNull(col, row)
	if err != nil {
		return nil, false, err
	}
	if isNull {
		return nil, true, nil
	}

	switch r.columnTypes[col] {
	case TypeBoolean:
		v, err := r.ValueBoolean(col, row)
		return v, false, err
	case TypeTinyInt:
		v, err := r.ValueInt8(col, row)
		return v, false, err
	case TypeSmallInt:
		v, err := r.ValueInt16(col, row)
		return v, false, err
	case TypeInteger:
		v, err := r.ValueInt32(col, row)
		return v, false, err
	case TypeBigInt:
		v, err := r.ValueInt64(col, row)
		return v, false, err
	case TypeFloat:
		v, err := r.ValueFloat(col, row)
		return v, false, err
	case TypeDouble:
		v, err := r.ValueDouble(col, row)
		return v, false, err
	case TypeVarchar:
		v, err := r.ValueVarchar(col, row)
		return v, false, err
	default:
		return nil, false, NewError(ErrType, fmt.Sprintf("unsupported column type %s", r.columnTypes[col]))
	}
}

// ColumnData returns the raw native buffer for one column. The pointer
// is valid until Close; the layout is the engine's column-major array
// for the declared type. Most callers want the Extract helpers instead.
func (r *Result) ColumnData(col int) (unsafe.Pointer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeInvalid); err != nil {
		return nil, err
	}
	return r.api.columnData(&r.handle, uint64(col)), nil
}

// NullmaskData returns a copy of one column's null-bitmap. Its length
// always equals RowCount.
func (r *Result) NullmaskData(col int) ([]bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeInvalid); err != nil {
		return nil, err
	}
	return copyBools(r.api.nullmaskData(&r.handle, uint64(col)), uint64(r.rowCount)), nil
}

// ExtractBoolColumn copies a BOOLEAN column into Go slices. Both
// returned slices have RowCount elements; values at null positions are
// zero.
func (r *Result) ExtractBoolColumn(col int) ([]bool, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeBoolean); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	vals := make([]bool, n)
	if ptr := r.api.columnData(&r.handle, uint64(col)); ptr != nil && n > 0 {
		copy(vals, unsafe.Slice((*bool)(ptr), n))
	}
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	return vals, nulls, nil
}

// ExtractInt8Column copies a TINYINT column into Go slices.
func (r *Result) ExtractInt8Column(col int) ([]int8, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeTinyInt); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	vals := make([]int8, n)
	if ptr := r.api.columnData(&r.handle, uint64(col)); ptr != nil && n > 0 {
		copy(vals, unsafe.Slice((*int8)(ptr), n))
	}
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	return vals, nulls, nil
}

// ExtractInt16Column copies a SMALLINT column into Go slices.
func (r *Result) ExtractInt16Column(col int) ([]int16, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeSmallInt); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	vals := make([]int16, n)
	if ptr := r.api.columnData(&r.handle, uint64(col)); ptr != nil && n > 0 {
		copy(vals, unsafe.Slice((*int16)(ptr), n))
	}
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	return vals, nulls, nil
}

// ExtractInt32Column copies an INTEGER column into Go slices.
func (r *Result) ExtractInt32Column(col int) ([]int32, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeInteger); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	vals := make([]int32, n)
	if ptr := r.api.columnData(&r.handle, uint64(col)); ptr != nil && n > 0 {
		copy(vals, unsafe.Slice((*int32)(ptr), n))
	}
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	return vals, nulls, nil
}

// ExtractInt64Column copies a BIGINT column into Go slices.
func (r *Result) ExtractInt64Column(col int) ([]int64, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeBigInt); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	vals := make([]int64, n)
	if ptr := r.api.columnData(&r.handle, uint64(col)); ptr != nil && n > 0 {
		copy(vals, unsafe.Slice((*int64)(ptr), n))
	}
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	return vals, nulls, nil
}

// ExtractFloat32Column copies a FLOAT column into Go slices.
func (r *Result) ExtractFloat32Column(col int) ([]float32, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeFloat); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	vals := make([]float32, n)
	if ptr := r.api.columnData(&r.handle, uint64(col)); ptr != nil && n > 0 {
		copy(vals, unsafe.Slice((*float32)(ptr), n))
	}
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	return vals, nulls, nil
}

// ExtractFloat64Column copies a DOUBLE column into Go slices.
func (r *Result) ExtractFloat64Column(col int) ([]float64, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeDouble); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	vals := make([]float64, n)
	if ptr := r.api.columnData(&r.handle, uint64(col)); ptr != nil && n > 0 {
		copy(vals, unsafe.Slice((*float64)(ptr), n))
	}
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	return vals, nulls, nil
}

// ExtractStringColumn copies a VARCHAR column into Go slices. Each
// non-null cell goes through the engine's value accessor, which hands
// over an allocation that is freed after copying. The raw column
// buffer is not used because its varchar layout is engine-version
// dependent.
func (r *Result) ExtractStringColumn(col int) ([]string, []bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.columnCheck(col, TypeVarchar); err != nil {
		return nil, nil, err
	}
	n := uint64(r.rowCount)
	nulls := copyBools(r.api.nullmaskData(&r.handle, uint64(col)), n)
	vals := make([]string, n)
	for row := uint64(0); row < n; row++ {
		if nulls[row] {
			continue
		}
		ptr := r.api.valueVarchar(&r.handle, uint64(col), row)
		if ptr == nil {
			continue
		}
		vals[row] = goString(ptr)
		r.api.free(ptr)
	}
	return vals, nulls, nil
}

// boundsErr builds the shared out-of-range error.
func (r *Result) boundsErr(kind string, idx, n int64) error {
	return NewError(ErrBounds, fmt.Sprintf("%s index %d out of range [0,%d)", kind, idx, n))
}

// columnCheck validates handle state, column index and, unless want is
// TypeInvalid, the declared column type. Callers hold at least a read
// lock.
func (r *Result) columnCheck(col int, want Type) error {
	if atomic.LoadInt32(&r.closed) != 0 {
		return NewError(ErrClosed, "result is closed")
	}
	if col < 0 || col >= r.columnCount {
		return r.boundsErr("column", int64(col), int64(r.columnCount))
	}
	if want != TypeInvalid && r.columnTypes[col] != want {
		return NewError(ErrType, fmt.Sprintf("column %d is %s, not %s", col, r.columnTypes[col], want))
	}
	return nil
}

// cellCheck is columnCheck plus the row bound.
func (r *Result) cellCheck(col int, row int64, want Type) error {
	if err := r.columnCheck(col, want); err != nil {
		return err
	}
	if row < 0 || row >= r.rowCount {
		return r.boundsErr("row", row, r.rowCount)
	}
	return nil
}
