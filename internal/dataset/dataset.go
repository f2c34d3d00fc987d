// Package dataset seeds demo datasets through any SQL executor. The
// generators emit plain statements with inlined literals because the
// bound engine surface has no parameter binding.
package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Execer runs one SQL statement. *duckdb.Connection satisfies it.
type Execer interface {
	Exec(sql string) error
}

// Dataset names accepted by Generate.
const (
	NameChinook  = "chinook"
	NameTPCHLite = "tpch-lite"
)

// Names lists the available datasets, sorted.
func Names() []string {
	names := []string{NameChinook, NameTPCHLite}
	sort.Strings(names)
	return names
}

// Tables lists the tables a dataset creates, in creation order.
func Tables(name string) ([]string, error) {
	switch name {
	case NameChinook:
		return []string{"artists", "albums", "tracks"}, nil
	case NameTPCHLite:
		return []string{"region", "nation", "customer", "orders", "lineitem"}, nil
	default:
		return nil, fmt.Errorf("unknown dataset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// Generate creates and seeds the named dataset.
func Generate(exec Execer, name string) error {
	switch name {
	case NameChinook:
		return Chinook(exec)
	case NameTPCHLite:
		return TPCHLite(exec)
	default:
		return fmt.Errorf("unknown dataset %q (available: %s)", name, strings.Join(Names(), ", "))
	}
}

// Chinook creates a small music-store schema: artists, their albums
// and the tracks on them, seeded with a fixed sample.
func Chinook(exec Execer) error {
	stmts := []string{
		`CREATE TABLE artists (artist_id INTEGER, name VARCHAR)`,
		`CREATE TABLE albums (album_id INTEGER, title VARCHAR, artist_id INTEGER)`,
		`CREATE TABLE tracks (track_id INTEGER, name VARCHAR, album_id INTEGER, composer VARCHAR, milliseconds INTEGER, unit_price DOUBLE)`,

		`INSERT INTO artists VALUES ` + rowsOf(chinookArtists),
		`INSERT INTO albums VALUES ` + rowsOf(chinookAlbums),
		`INSERT INTO tracks VALUES ` + rowsOf(chinookTracks),
	}
	return runAll(exec, stmts)
}

var chinookArtists = [][]interface{}{
	{1, "AC/DC"},
	{2, "Aerosmith"},
	{3, "Led Zeppelin"},
	{4, "Miles Davis"},
}

var chinookAlbums = [][]interface{}{
	{1, "For Those About To Rock We Salute You", 1},
	{2, "Let There Be Rock", 1},
	{3, "Toys In The Attic", 2},
	{4, "Physical Graffiti", 3},
	{5, "Kind Of Blue", 4},
}

var chinookTracks = [][]interface{}{
	{1, "For Those About To Rock (We Salute You)", 1, "Young/Young/Johnson", 343719, 0.99},
	{2, "Put The Finger On You", 1, "Young/Young/Johnson", 205662, 0.99},
	{3, "Let There Be Rock", 2, "Young/Young/Scott", 366654, 0.99},
	{4, "Walk This Way", 3, "Tyler/Perry", 331180, 0.99},
	{5, "Kashmir", 4, "Page/Plant/Bonham", 518741, 0.99},
	{6, "So What", 5, nil, 545224, 1.29},
	{7, "Blue In Green", 5, "Davis/Evans", 337162, 1.29},
}

// TPCHLite creates a reduced TPC-H style schema (region, nation,
// customer, orders, lineitem) with deterministic formula-generated
// rows, small enough to seed in well under a second.
func TPCHLite(exec Execer) error {
	stmts := []string{
		`CREATE TABLE region (r_regionkey INTEGER, r_name VARCHAR)`,
		`CREATE TABLE nation (n_nationkey INTEGER, n_name VARCHAR, n_regionkey INTEGER)`,
		`CREATE TABLE customer (c_custkey INTEGER, c_name VARCHAR, c_nationkey INTEGER, c_acctbal DOUBLE)`,
		`CREATE TABLE orders (o_orderkey INTEGER, o_custkey INTEGER, o_orderstatus VARCHAR, o_totalprice DOUBLE)`,
		`CREATE TABLE lineitem (l_orderkey INTEGER, l_linenumber INTEGER, l_quantity INTEGER, l_extendedprice DOUBLE, l_returnflag VARCHAR)`,

		`INSERT INTO region VALUES ` + rowsOf(tpchRegions),
		`INSERT INTO nation VALUES ` + rowsOf(tpchNations),
		`INSERT INTO customer VALUES ` + rowsOf(tpchCustomers()),
		`INSERT INTO orders VALUES ` + rowsOf(tpchOrders()),
		`INSERT INTO lineitem VALUES ` + rowsOf(tpchLineitems()),
	}
	return runAll(exec, stmts)
}

var tpchRegions = [][]interface{}{
	{0, "AFRICA"},
	{1, "AMERICA"},
	{2, "ASIA"},
	{3, "EUROPE"},
	{4, "MIDDLE EAST"},
}

var tpchNations = [][]interface{}{
	{0, "ALGERIA", 0},
	{1, "ARGENTINA", 1},
	{2, "BRAZIL", 1},
	{3, "CANADA", 1},
	{4, "EGYPT", 4},
	{5, "ETHIOPIA", 0},
	{6, "FRANCE", 3},
	{7, "GERMANY", 3},
	{8, "INDIA", 2},
	{9, "INDONESIA", 2},
}

// TPCHLite row counts, fixed so consumers can assert against them.
const (
	TPCHCustomers         = 20
	TPCHOrdersPerCustomer = 2
	TPCHLinesPerOrder     = 3
)

func tpchCustomers() [][]interface{} {
	rows := make([][]interface{}, 0, TPCHCustomers)
	for k := 1; k <= TPCHCustomers; k++ {
		rows = append(rows, []interface{}{
			k,
			fmt.Sprintf("Customer#%06d", k),
			k % len(tpchNations),
			float64(100*k) + 0.5,
		})
	}
	return rows
}

func tpchOrders() [][]interface{} {
	rows := make([][]interface{}, 0, TPCHCustomers*TPCHOrdersPerCustomer)
	key := 1
	for c := 1; c <= TPCHCustomers; c++ {
		for o := 0; o < TPCHOrdersPerCustomer; o++ {
			status := "O"
			if key%3 == 0 {
				status = "F"
			}
			rows = append(rows, []interface{}{
				key,
				c,
				status,
				float64(1000*key) * 1.01,
			})
			key++
		}
	}
	return rows
}

func tpchLineitems() [][]interface{} {
	orders := TPCHCustomers * TPCHOrdersPerCustomer
	rows := make([][]interface{}, 0, orders*TPCHLinesPerOrder)
	for o := 1; o <= orders; o++ {
		for l := 1; l <= TPCHLinesPerOrder; l++ {
			flag := "N"
			if (o+l)%5 == 0 {
				flag = "R"
			}
			rows = append(rows, []interface{}{
				o,
				l,
				(o+l)%50 + 1,
				float64(o*l) * 99.9,
				flag,
			})
		}
	}
	return rows
}

// ExportCSV copies one table to a headered CSV file.
func ExportCSV(exec Execer, table, path string) error {
	return exec.Exec(fmt.Sprintf("COPY %s TO %s (FORMAT CSV, HEADER)", table, quoteString(path)))
}

// ExportParquet copies one table to a Parquet file.
func ExportParquet(exec Execer, table, path string) error {
	return exec.Exec(fmt.Sprintf("COPY %s TO %s (FORMAT PARQUET)", table, quoteString(path)))
}

func runAll(exec Execer, stmts []string) error {
	for _, stmt := range stmts {
		if err := exec.Exec(stmt); err != nil {
			return fmt.Errorf("dataset statement failed: %w", err)
		}
	}
	return nil
}

// rowsOf renders rows as a multi-row VALUES list with inlined,
// escaped literals.
func rowsOf(rows [][]interface{}) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(literal(v))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// literal renders one Go value as a SQL literal.
func literal(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteString(val)
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return quoteString(fmt.Sprintf("%v", val))
	}
}

// quoteString single-quotes s, doubling embedded quotes.
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
