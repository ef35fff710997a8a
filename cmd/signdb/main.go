package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/aslrec/signdb/pkg/catalog"
	"github.com/aslrec/signdb/pkg/config"
	"github.com/aslrec/signdb/pkg/db"
	"github.com/aslrec/signdb/pkg/ingest"
)

func main() {
	configFlag := flag.String("config", "", "Path to TOML config file")
	catalogFlag := flag.String("catalog", "", "Catalog JSON file to ingest")
	dbFlag := flag.String("db", "", "Path to SQLite database (overrides config)")
	batchFlag := flag.Int("batch", 0, "Words per commit batch (overrides config)")
	statsFlag := flag.Bool("stats", false, "Print database statistics and exit")
	wordsFlag := flag.Bool("words", false, "Print per-word statistics and exit")
	pendingFlag := flag.Bool("pending", false, "Print videos pending download and exit")
	sampleFlag := flag.Bool("sample-config", false, "Print a sample config file and exit")
	flag.Parse()

	if *sampleFlag {
		fmt.Print(config.Sample())
		return
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbFlag != "" {
		cfg.DBPath = *dbFlag
	}
	if *catalogFlag != "" {
		cfg.CatalogPath = *catalogFlag
	}
	if *batchFlag > 0 {
		cfg.BatchSize = *batchFlag
	}

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()
	if err := conn.Ping(); err != nil {
		log.Fatalf("Failed to reach database at %s: %v", cfg.DBPath, err)
	}
	if err := db.InitDB(conn); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	switch {
	case *statsFlag:
		if err := printStats(conn); err != nil {
			log.Fatalf("Failed to read statistics: %v", err)
		}
		return
	case *wordsFlag:
		if err := printWordStats(conn); err != nil {
			log.Fatalf("Failed to read per-word statistics: %v", err)
		}
		return
	case *pendingFlag:
		if err := printPending(conn, cfg.PendingLimit); err != nil {
			log.Fatalf("Failed to read pending downloads: %v", err)
		}
		return
	}

	if cfg.CatalogPath == "" {
		log.Fatal("Please provide -catalog (or catalog_path in the config), or one of -stats/-words/-pending")
	}

	f, err := os.Open(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer f.Close()

	fmt.Printf("Ingesting %s into %s...\n", cfg.CatalogPath, cfg.DBPath)

	ig := ingest.NewIngester(conn)
	ig.BatchSize = cfg.BatchSize
	ig.ProgressEvery = cfg.ProgressEvery
	ig.Logger = log.New(os.Stderr, "", log.LstdFlags)

	sum, err := ig.Run(ctx, catalog.NewReader(f))
	if err != nil {
		log.Fatalf("Ingestion failed: %v\n(after: %s)", err, sum)
	}

	fmt.Println(sum)
	if sum.Partial() {
		fmt.Printf("Completed with %d warning(s):\n", len(sum.Warnings))
		for _, w := range sum.Warnings {
			fmt.Printf("  %s\n", w)
		}
	}

	if err := printStats(conn); err != nil {
		log.Fatalf("Failed to read statistics: %v", err)
	}
}

func printStats(x db.DBExecutor) error {
	counts, err := db.GlobalCounts(x)
	if err != nil {
		return err
	}
	fmt.Println(renderTable(
		[]string{"Metric", "Count"},
		countRows(counts),
		[]columnAlignment{alignLeft, alignRight},
	))
	return nil
}

func countRows(c db.Counts) [][]string {
	return [][]string{
		{"Words", strconv.Itoa(c.Words)},
		{"Videos", strconv.Itoa(c.Videos)},
		{"Downloaded", strconv.Itoa(c.Downloaded)},
		{"Processed", strconv.Itoa(c.Processed)},
		{"Frames", strconv.Itoa(c.Frames)},
		{"Landmarks", strconv.Itoa(c.Landmarks)},
	}
}

func printWordStats(x db.DBExecutor) error {
	stats, err := db.PerWordStats(x)
	if err != nil {
		return err
	}
	fmt.Println(renderTable(
		[]string{"Gloss", "Videos", "Downloaded", "Processed", "Train", "Val", "Test"},
		wordStatsRows(stats),
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	))
	return nil
}

func wordStatsRows(stats []db.WordStats) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, ws := range stats {
		rows = append(rows, []string{
			ws.Gloss,
			strconv.Itoa(ws.Total),
			strconv.Itoa(ws.Downloaded),
			strconv.Itoa(ws.Processed),
			strconv.Itoa(ws.Train),
			strconv.Itoa(ws.Val),
			strconv.Itoa(ws.Test),
		})
	}
	return rows
}

func printPending(x db.DBExecutor, limit int) error {
	pending, err := db.PendingDownloads(x, limit)
	if err != nil {
		return err
	}
	fmt.Println(renderTable(
		[]string{"ID", "Gloss", "Video ID", "URL", "Split"},
		pendingRows(pending),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
	return nil
}

func pendingRows(pending []db.PendingVideo) [][]string {
	rows := make([][]string, 0, len(pending))
	for _, pv := range pending {
		rows = append(rows, []string{
			strconv.FormatInt(pv.VideoID, 10),
			pv.Gloss,
			pv.ExternalID,
			pv.SourceURL,
			string(pv.Split),
		})
	}
	return rows
}
