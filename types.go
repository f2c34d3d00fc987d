package duckdb

// State is the success/error status an engine call returns. It crosses
// the FFI boundary as a 4-byte enum.
type State int32

const (
	// StateSuccess reports a completed call.
	StateSuccess State = 0
	// StateError reports a failed call; the diagnostic text lives on
	// the result handle, not in a separate channel.
	StateError State = 1
)

// Type identifies the declared type of a result column. The accessor
// used for a cell must match the column's declared type.
type Type int32

// Column types exposed by the bound engine surface.
const (
	TypeInvalid  Type = 0
	TypeBoolean  Type = 1
	TypeTinyInt  Type = 2
	TypeSmallInt Type = 3
	TypeInteger  Type = 4
	TypeBigInt   Type = 5
	TypeFloat    Type = 6
	TypeDouble   Type = 7
	TypeVarchar  Type = 8
)

var typeNames = map[Type]string{
	TypeInvalid:  "INVALID",
	TypeBoolean:  "BOOLEAN",
	TypeTinyInt:  "TINYINT",
	TypeSmallInt: "SMALLINT",
	TypeInteger:  "INTEGER",
	TypeBigInt:   "BIGINT",
	TypeFloat:    "FLOAT",
	TypeDouble:   "DOUBLE",
	TypeVarchar:  "VARCHAR",
}

// String returns the SQL name of the type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}
