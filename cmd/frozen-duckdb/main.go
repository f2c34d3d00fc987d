// Command frozen-duckdb manages prebuilt DuckDB engine binaries and
// exercises them: fetch a binary into the cache, inspect the
// installation, run queries, generate sample datasets, time queries and
// configure the Flock LLM extension.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	duckdb "github.com/seanchatmangpt/frozen-duckdb"
	"github.com/seanchatmangpt/frozen-duckdb/internal/config"
	"github.com/seanchatmangpt/frozen-duckdb/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "fetch":
		err = runFetch(args)
	case "info":
		err = runInfo(args)
	case "query":
		err = runQuery(args)
	case "dataset":
		err = runDataset(args)
	case "benchmark":
		err = runBenchmark(args)
	case "flock-setup":
		err = runFlockSetup(args)
	case "flock-status":
		err = runFlockStatus(args)
	case "help", "-h", "--help":
		usage()
	case "version":
		fmt.Println(duckdb.GetBuildInfo())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: frozen-duckdb <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  fetch         download the engine binary into the local cache")
	fmt.Println("  info          show engine, cache and host information")
	fmt.Println("  query         run SQL against a database and print the rows")
	fmt.Println("  dataset       generate a sample dataset (chinook, tpch-lite)")
	fmt.Println("  benchmark     time a query over repeated runs")
	fmt.Println("  flock-setup   configure the Flock LLM extension against Ollama")
	fmt.Println("  flock-status  show Flock extension and Ollama status")
	fmt.Println("  version       print module and engine versions")
	fmt.Println()
	fmt.Println("Run 'frozen-duckdb <command> -h' for command flags.")
}

// commonOpts are the flags every subcommand shares.
type commonOpts struct {
	configPath string
	logLevel   string
	logFormat  string
}

// newFlagSet builds a subcommand flag set carrying the shared flags.
func newFlagSet(name string) (*flag.FlagSet, *commonOpts) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	c := &commonOpts{}
	fs.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	fs.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&c.logFormat, "log-format", "", "log format: console, json")
	return fs, c
}

// load resolves configuration (file, environment, flag overrides) and
// builds the logger from it.
func (c *commonOpts) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, nil, err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFormat != "" {
		cfg.Log.Format = c.logFormat
	}
	log := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, log, nil
}

// openConnection opens the database at path and one connection to it.
// The caller closes the connection before the database.
func openConnection(path string) (*duckdb.Database, *duckdb.Connection, error) {
	db, err := duckdb.Open(path)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Connect()
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, conn, nil
}

// printResult renders a materialized result as an aligned table.
func printResult(res *duckdb.Result) error {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)

	names := res.ColumnNames()
	fmt.Fprintln(w, strings.Join(names, "\t"))

	seps := make([]string, len(names))
	for i, name := range names {
		seps[i] = strings.Repeat("-", len(name))
	}
	fmt.Fprintln(w, strings.Join(seps, "\t"))

	for row := int64(0); row < res.RowCount(); row++ {
		cells := make([]string, res.ColumnCount())
		for col := 0; col < res.ColumnCount(); col++ {
			v, isNull, err := res.GetValue(col, row)
			if err != nil {
				return err
			}
			if isNull {
				cells[col] = "NULL"
			} else {
				cells[col] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("(%d rows)\n", res.RowCount())
	return nil
}
