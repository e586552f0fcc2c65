// Command usage-report prints recent entries from the pipeline's SQLite
// usage log for quick cost and failure inspection.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lemore/letgo-buddy/config"
	"github.com/lemore/letgo-buddy/internal/storage"
)

func main() {
	var limit int
	flag.IntVar(&limit, "limit", 50, "Number of entries to show")
	flag.Parse()

	config.LoadEnvFile()

	dbPath := os.Getenv("BUDDY_DB_PATH")
	if dbPath == "" {
		fmt.Fprintf(os.Stderr, "BUDDY_DB_PATH not set\n")
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database at %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.Recent(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading usage log: %v\n", err)
		os.Exit(1)
	}

	var totalCost float64
	fmt.Printf("%-36s  %-16s  %-16s  %-18s  %8s  %10s\n", "REQUEST", "TASK", "MODEL", "OUTCOME", "MS", "COST USD")
	for _, rec := range records {
		outcome := rec.Code
		if outcome == "" {
			outcome = "ok"
		}
		fmt.Printf("%-36s  %-16s  %-16s  %-18s  %8d  %10.5f\n",
			rec.RequestID, rec.Task, rec.Model, outcome, rec.DurationMS, rec.CostUSD)
		totalCost += rec.CostUSD
	}
	fmt.Printf("\n%d requests, %.5f USD total\n", len(records), totalCost)
}
