package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lcalzada-xor/pmkscan/internal/adapters/vendor"
	"github.com/lcalzada-xor/pmkscan/internal/config"
)

func main() {
	csvPath := flag.String("csv", "data/oui/maclookup.csv", "Path to CSV file")
	dbPath := flag.String("db", config.DefaultOUIDBPath(), "Path to OUI database")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("Importing OUI data", "csv", *csvPath, "db", *dbPath)
	if err := run(context.Background(), *csvPath, *dbPath); err != nil {
		slog.Error("Import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath, dbPath string) error {
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open CSV: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	store, err := vendor.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := vendor.ImportCSV(ctx, store, f)
	if err != nil {
		return fmt.Errorf("after %d entries: %w", n, err)
	}
	total, err := store.Count(ctx)
	if err != nil {
		return err
	}
	slog.Info("Import complete", "imported", n, "total_entries", total)
	return nil
}
