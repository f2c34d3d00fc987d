// Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API.
package duckdb

import (
	"database/sql/driver"
	"fmt"
	"io"
	"reflect"
)

// Rows adapts a materialized Result to driver.Rows, decoding cells
// through the typed accessors and honoring the null-bitmap.
type Rows struct {
	res *Result
	row int64
}

var (
	_ driver.Rows                           = (*Rows)(nil)
	_ driver.RowsColumnTypeDatabaseTypeName = (*Rows)(nil)
	_ driver.RowsColumnTypeNullable         = (*Rows)(nil)
	_ driver.RowsColumnTypeScanType         = (*Rows)(nil)
)

// Columns returns the column names.
func (r *Rows) Columns() []string {
	return r.res.ColumnNames()
}

// Close releases the underlying result.
func (r *Rows) Close() error {
	return r.res.Close()
}

// Next decodes the next row into dest, io.EOF at the end.
func (r *Rows) Next(dest []driver.Value) error {
	if r.row >= r.res.RowCount() {
		return io.EOF
	}

	for i := range dest {
		v, isNull, err := r.res.GetValue(i, r.row)
		if err != nil {
			return err
		}
		if isNull {
			dest[i] = nil
			continue
		}
		// database/sql accepts only int64/float64/bool/string/[]byte.
		switch val := v.(type) {
		case bool, int64, float64, string:
			dest[i] = val
		case int8:
			dest[i] = int64(val)
		case int16:
			dest[i] = int64(val)
		case int32:
			dest[i] = int64(val)
		case float32:
			dest[i] = float64(val)
		default:
			return NewError(ErrType, fmt.Sprintf("unsupported value type %T", v))
		}
	}

	r.row++
	return nil
}

// ColumnTypeDatabaseTypeName reports the column's SQL type name.
func (r *Rows) ColumnTypeDatabaseTypeName(index int) string {
	t, err := r.res.ColumnType(index)
	if err != nil {
		return ""
	}
	return t.String()
}

// ColumnTypeNullable reports nullability. The bound surface has no
// per-column constraint metadata, so every column is assumed nullable.
func (r *Rows) ColumnTypeNullable(index int) (nullable, ok bool) {
	return true, true
}

// ColumnTypeScanType returns the Go type Scan produces for the column.
func (r *Rows) ColumnTypeScanType(index int) reflect.Type {
	t, err := r.res.ColumnType(index)
	if err != nil {
		return reflect.TypeOf((*interface{})(nil)).Elem()
	}
	switch t {
	case TypeBoolean:
		return reflect.TypeOf(false)
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt:
		return reflect.TypeOf(int64(0))
	case TypeFloat, TypeDouble:
		return reflect.TypeOf(float64(0))
	case TypeVarchar:
		return reflect.TypeOf("")
	default:
		return reflect.TypeOf((*interface{})(nil)).Elem()
	}
}
