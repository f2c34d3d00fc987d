/*
Package duckdb provides a CGO-free Go binding and SQL driver for the DuckDB C API,
backed by prebuilt engine binaries.

# Overview

frozen-duckdb loads the DuckDB shared library at runtime through purego,
so programs build without a C toolchain and without compiling the engine.
It offers two API levels:

 1. Standard database/sql interface for compatibility with Go's ecosystem
 2. A direct API over the engine's C surface: explicit Library, Database,
    Connection and Result handles with ownership-safe lifetimes

Every native handle is released exactly once no matter which path the
code takes: Close is idempotent, finalizers back up forgotten handles,
and parents refuse to close while children are live.

# Standard SQL API Example

Using the standard database/sql interface:

	package main

	import (
		"database/sql"
		"fmt"
		"log"

		_ "github.com/seanchatmangpt/frozen-duckdb"
	)

	func main() {
		// Open an in-memory database
		db, err := sql.Open("duckdb", ":memory:")
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		// Create a table and insert rows
		_, err = db.Exec(`CREATE TABLE users (id INTEGER, name VARCHAR, age INTEGER)`)
		if err != nil {
			log.Fatalf("failed to create table: %v", err)
		}
		_, err = db.Exec(`INSERT INTO users VALUES (1, 'Alice', 30), (2, 'Bob', 25)`)
		if err != nil {
			log.Fatalf("failed to insert data: %v", err)
		}

		rows, err := db.Query(`SELECT id, name, age FROM users WHERE age > 20`)
		if err != nil {
			log.Fatalf("failed to query data: %v", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id, age int
			var name string
			if err := rows.Scan(&id, &name, &age); err != nil {
				log.Fatalf("failed to scan row: %v", err)
			}
			fmt.Printf("User: %d, %s, %d\n", id, name, age)
		}
	}

The bound C surface has no prepare/bind API, so placeholder parameters
are rejected; inline literal values instead.

# Direct API Example

The direct API exposes the engine handles themselves:

	package main

	import (
		"fmt"
		"log"

		"github.com/seanchatmangpt/frozen-duckdb"
	)

	func main() {
		db, err := duckdb.OpenInMemory()
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		conn, err := db.Connect()
		if err != nil {
			log.Fatalf("failed to connect: %v", err)
		}
		defer conn.Close()

		if err := conn.Exec(`CREATE TABLE t (id INTEGER, name VARCHAR)`); err != nil {
			log.Fatalf("failed to create table: %v", err)
		}
		if err := conn.Exec(`INSERT INTO t VALUES (1, 'one'), (2, NULL)`); err != nil {
			log.Fatalf("failed to insert: %v", err)
		}

		res, err := conn.Query(`SELECT id, name FROM t ORDER BY id`)
		if err != nil {
			log.Fatalf("query failed: %v", err)
		}
		defer res.Close()

		ids, _, err := res.ExtractInt32Column(0)
		if err != nil {
			log.Fatalf("extract ids: %v", err)
		}
		names, nameNulls, err := res.ExtractStringColumn(1)
		if err != nil {
			log.Fatalf("extract names: %v", err)
		}

		for i := int64(0); i < res.RowCount(); i++ {
			if nameNulls[i] {
				fmt.Printf("%d: NULL\n", ids[i])
				continue
			}
			fmt.Printf("%d: %s\n", ids[i], names[i])
		}
	}

# Engine Library Loading

The engine binary is located at runtime. The search order is the
DUCKDB_LIB_DIR environment variable, the frozen binary cache
(~/.frozen-duckdb/cache/v<version>-<arch>), the executable's directory,
the working directory, and common system library paths. Arch-qualified
names (libduckdb_arm64.dylib, libduckdb_x86_64.so, ...) are preferred
over generic ones; the ARCH environment variable overrides detection.

Binaries can be pre-seeded with the frozen-duckdb CLI:

	frozen-duckdb fetch

Programs that manage their own engine builds can bypass the default
search entirely with OpenLibrary and keep several engine versions
loaded side by side.

# Error Handling

Engine calls return a binary status; on failure the diagnostic text is
read from the failed result before it is destroyed, and both surface as
an *Error with a Type (ErrQuery, ErrClosed, ErrBounds, ...). Errors are
never suppressed and never retried by this layer.
*/
package duckdb
