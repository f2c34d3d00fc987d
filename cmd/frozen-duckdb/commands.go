package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	duckdb "github.com/seanchatmangpt/frozen-duckdb"
	"github.com/seanchatmangpt/frozen-duckdb/internal/config"
	"github.com/seanchatmangpt/frozen-duckdb/internal/dataset"
	"github.com/seanchatmangpt/frozen-duckdb/internal/fetcher"
	"github.com/seanchatmangpt/frozen-duckdb/internal/flock"
	"github.com/seanchatmangpt/frozen-duckdb/internal/logger"
	"github.com/seanchatmangpt/frozen-duckdb/pkg/benchmark"
)

func runFetch(args []string) error {
	fs, common := newFlagSet("fetch")
	version := fs.String("version", "", "engine version to fetch (default: pinned)")
	arch := fs.String("arch", "", "architecture label (default: detected)")
	sha := fs.String("sha256", "", "expected SHA256 of the library file")
	fs.Parse(args)

	cfg, log, err := common.load()
	if err != nil {
		return err
	}
	if *version != "" {
		cfg.Engine.Version = *version
	}
	if *sha != "" {
		cfg.Engine.SHA256 = *sha
	}

	f, err := fetcher.New(fetcher.Options{
		Version:      cfg.Engine.Version,
		Arch:         *arch,
		CacheRoot:    cfg.Engine.CacheRoot,
		ReleaseOwner: cfg.Engine.ReleaseOwner,
		ReleaseRepo:  cfg.Engine.ReleaseRepo,
		SHA256:       cfg.Engine.SHA256,
		Mirror:       cfg.Mirror,
		Log:          log,
	})
	if err != nil {
		return err
	}

	path, err := f.Ensure(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Engine binary ready: %s\n", path)
	return nil
}

func runInfo(args []string) error {
	fs, common := newFlagSet("info")
	fs.Parse(args)

	cfg, _, err := common.load()
	if err != nil {
		return err
	}

	fmt.Println(duckdb.GetEngineInfo())
	fmt.Println()
	fmt.Println(duckdb.GetBuildInfo())
	fmt.Println()
	printCacheInfo(cfg)
	printHostInfo()
	return nil
}

// printCacheInfo shows where the fetcher keeps binaries and the
// provenance stamp of the installed one, if any.
func printCacheInfo(cfg *config.Config) {
	f, err := fetcher.New(fetcher.Options{
		Version:      cfg.Engine.Version,
		CacheRoot:    cfg.Engine.CacheRoot,
		ReleaseOwner: cfg.Engine.ReleaseOwner,
		ReleaseRepo:  cfg.Engine.ReleaseRepo,
		Log:          logger.Nop(),
	})
	if err != nil {
		fmt.Printf("Cache: unavailable (%v)\n", err)
		return
	}

	dir, err := f.CacheDir()
	if err != nil {
		fmt.Printf("Cache: unavailable (%v)\n", err)
		return
	}
	fmt.Printf("Cache: %s\n", dir)

	path, ok := f.CachedPath()
	if !ok {
		fmt.Printf("  Binary: %s (not fetched; run `frozen-duckdb fetch`)\n", f.LibraryName())
		return
	}
	fmt.Printf("  Binary: %s\n", filepath.Base(path))

	meta, err := fetcher.ReadMeta(path)
	if err != nil {
		fmt.Println("  Provenance: unknown (no metadata stamp)")
		return
	}
	fmt.Printf("  Source: %s\n", meta.Source)
	fmt.Printf("  SHA256: %s\n", meta.SHA256)
	fmt.Printf("  Fetched: %s (%s)\n",
		meta.FetchedAt.Format(time.RFC3339), humanize.IBytes(uint64(meta.SizeBytes)))
}

// printHostInfo shows the CPU and memory facts that matter when sizing
// engine workloads.
func printHostInfo() {
	cpus, err := cpu.Counts(true)
	if err != nil {
		cpus = runtime.NumCPU()
	}
	line := fmt.Sprintf("Host: %d logical CPUs", cpus)
	if vm, err := mem.VirtualMemory(); err == nil {
		line += fmt.Sprintf(", %s memory (%s available)",
			humanize.IBytes(vm.Total), humanize.IBytes(vm.Available))
	}
	fmt.Println(line)
}

func runQuery(args []string) error {
	fs, common := newFlagSet("query")
	dbPath := fs.String("db", duckdb.InMemoryPath, "database file, or :memory:")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: frozen-duckdb query [flags] <sql>")
	}
	sqlText := strings.Join(fs.Args(), " ")

	_, log, err := common.load()
	if err != nil {
		return err
	}
	log.With().Str("db", *dbPath).Logger().Debug("running query")

	db, conn, err := openConnection(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	res, err := conn.Query(sqlText)
	if err != nil {
		return err
	}
	defer res.Close()

	return printResult(res)
}

func runDataset(args []string) error {
	fs, common := newFlagSet("dataset")
	name := fs.String("name", dataset.NameChinook,
		fmt.Sprintf("dataset name: %s", strings.Join(dataset.Names(), ", ")))
	outDir := fs.String("output", "datasets", "output directory")
	format := fs.String("format", "duckdb", "output format: duckdb, csv, parquet")
	fs.Parse(args)

	_, log, err := common.load()
	if err != nil {
		return err
	}

	tables, err := dataset.Tables(*name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", *outDir, err)
	}

	dbPath := filepath.Join(*outDir, *name+".duckdb")
	db, conn, err := openConnection(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	if err := dataset.Generate(conn, *name); err != nil {
		return err
	}
	log.With().Str("dataset", *name).Str("db", dbPath).Logger().Info("dataset generated")

	switch *format {
	case "duckdb":
		// Tables live in the database file; nothing to export.
	case "csv":
		for _, table := range tables {
			out := filepath.Join(*outDir, table+".csv")
			if err := dataset.ExportCSV(conn, table, out); err != nil {
				return err
			}
			log.With().Str("table", table).Str("file", out).Logger().Info("table exported")
		}
	case "parquet":
		for _, table := range tables {
			out := filepath.Join(*outDir, table+".parquet")
			if err := dataset.ExportParquet(conn, table, out); err != nil {
				return err
			}
			log.With().Str("table", table).Str("file", out).Logger().Info("table exported")
		}
	default:
		return fmt.Errorf("unknown format %q (want duckdb, csv or parquet)", *format)
	}

	fmt.Printf("Dataset %s written to %s\n", *name, *outDir)
	return nil
}

func runBenchmark(args []string) error {
	fs, common := newFlagSet("benchmark")
	dbPath := fs.String("db", duckdb.InMemoryPath, "database file, or :memory:")
	runs := fs.Int("runs", 10, "number of timed runs")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: frozen-duckdb benchmark [flags] <sql>")
	}
	sqlText := strings.Join(fs.Args(), " ")

	_, log, err := common.load()
	if err != nil {
		return err
	}
	log.With().Int("runs", *runs).Str("db", *dbPath).Logger().Debug("starting benchmark")

	db, conn, err := openConnection(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	stats := benchmark.MeasureN(*runs, func() error {
		res, err := conn.Query(sqlText)
		if err != nil {
			return err
		}
		return res.Close()
	})

	fmt.Println(stats)
	if stats.Failed > 0 {
		return fmt.Errorf("%d of %d runs failed", stats.Failed, stats.Runs)
	}
	return nil
}

func runFlockSetup(args []string) error {
	fs, common := newFlagSet("flock-setup")
	dbPath := fs.String("db", duckdb.InMemoryPath, "database to configure, or :memory:")
	ollamaURL := fs.String("ollama-url", "", "Ollama server URL (default from config)")
	textModel := fs.String("text-model", "", "Ollama tag to register for text generation")
	embedModel := fs.String("embedding-model", "", "Ollama tag to register for embeddings")
	skipVerify := fs.Bool("skip-verification", false, "skip the Ollama model check")
	fs.Parse(args)

	cfg, log, err := common.load()
	if err != nil {
		return err
	}
	applyFlockFlags(cfg, *ollamaURL, *textModel, *embedModel)

	db, conn, err := openConnection(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	m := flock.NewManager(connSession{conn}, flock.Options{
		OllamaURL:      cfg.Ollama.URL,
		TextModel:      cfg.Ollama.TextModel,
		EmbeddingModel: cfg.Ollama.EmbeddingModel,
		Log:            log,
	})
	if err := m.Setup(context.Background(), *skipVerify); err != nil {
		return err
	}

	fmt.Printf("Flock configured: %s -> %s, %s -> %s\n",
		flock.AliasTextModel, cfg.Ollama.TextModel,
		flock.AliasEmbeddingModel, cfg.Ollama.EmbeddingModel)
	return nil
}

func runFlockStatus(args []string) error {
	fs, common := newFlagSet("flock-status")
	dbPath := fs.String("db", duckdb.InMemoryPath, "database to inspect, or :memory:")
	ollamaURL := fs.String("ollama-url", "", "Ollama server URL (default from config)")
	fs.Parse(args)

	cfg, log, err := common.load()
	if err != nil {
		return err
	}
	applyFlockFlags(cfg, *ollamaURL, "", "")

	db, conn, err := openConnection(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	m := flock.NewManager(connSession{conn}, flock.Options{
		OllamaURL:      cfg.Ollama.URL,
		TextModel:      cfg.Ollama.TextModel,
		EmbeddingModel: cfg.Ollama.EmbeddingModel,
		Log:            log,
	})
	st := m.Status(context.Background())

	fmt.Printf("Ollama (%s) reachable: %t\n", cfg.Ollama.URL, st.OllamaReachable)
	if st.OllamaReachable {
		fmt.Printf("Pulled models: %s\n", strings.Join(st.OllamaModels, ", "))
		if len(st.MissingModels) > 0 {
			fmt.Printf("Missing models: %s\n", strings.Join(st.MissingModels, ", "))
		}
	}
	fmt.Printf("Flock extension loaded: %t\n", st.ExtensionLoaded)
	return nil
}

// applyFlockFlags lets command-line flags override the configured
// Ollama coordinates.
func applyFlockFlags(cfg *config.Config, url, textModel, embedModel string) {
	if url != "" {
		cfg.Ollama.URL = url
	}
	if textModel != "" {
		cfg.Ollama.TextModel = textModel
	}
	if embedModel != "" {
		cfg.Ollama.EmbeddingModel = embedModel
	}
}

// connSession adapts an engine connection to the flock session surface.
type connSession struct {
	conn *duckdb.Connection
}

func (s connSession) Exec(sql string) error { return s.conn.Exec(sql) }

func (s connSession) QueryStrings(sql string) ([]string, error) {
	res, err := s.conn.Query(sql)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	out := make([]string, 0, res.RowCount())
	for row := int64(0); row < res.RowCount(); row++ {
		v, isNull, err := res.GetValue(0, row)
		if err != nil {
			return nil, err
		}
		if isNull {
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out, nil
}
