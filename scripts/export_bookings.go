package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"hotelbook/internal/database"
	"hotelbook/internal/export"

	"github.com/rs/zerolog"
)

// Writes the bookings workbook straight from the sqlite file, for use when
// the server is down or the API is disabled.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	var (
		dbPath  = flag.String("db", "./data/hotelbook.db", "path to sqlite db")
		fromStr = flag.String("from", time.Now().AddDate(0, -1, 0).Format("2006-01-02"), "first check-in date, YYYY-MM-DD")
		toStr   = flag.String("to", time.Now().Format("2006-01-02"), "last check-in date, YYYY-MM-DD")
		outPath = flag.String("out", "", "output file (default bookings_<from>_to_<to>.xlsx)")
	)
	flag.Parse()

	from, err := time.Parse("2006-01-02", *fromStr)
	if err != nil {
		return fmt.Errorf("parse -from: %w", err)
	}
	to, err := time.Parse("2006-01-02", *toStr)
	if err != nil {
		return fmt.Errorf("parse -to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("-to is before -from")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	records, err := db.ListBookingRecords(ctx, from, to)
	if err != nil {
		return err
	}

	out := *outPath
	if out == "" {
		out = export.FileName(from, to)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	if err := export.Write(f, records, from, to); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Printf("done: %d bookings written to %s\n", len(records), out)
	return nil
}
