// Diagnostic program that dumps the header and the first unprocessed rows of
// an intake sheet, without writing anything
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ppiankov/sponsorgrader/internal/model"
	"github.com/ppiankov/sponsorgrader/internal/sheets"
)

func main() {
	sheetType := flag.String("sheet-type", "media", "sheet to probe (media, blog)")
	limit := flag.Int("limit", 3, "number of unprocessed rows to dump")
	row := flag.Int("row", 0, "dump this sheet row (2 = first data row) instead of the unprocessed list")
	flag.Parse()

	_ = godotenv.Load()

	variant, err := model.ParseVariant(*sheetType)
	if err != nil {
		fail(err)
	}

	cfg := model.DefaultConfig()
	cfg.Google.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.Google.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.Google.RefreshToken = os.Getenv("GOOGLE_REFRESH_TOKEN")
	cfg.Sheets.MediaURL = os.Getenv("MEDIA_SHEET_URL")
	cfg.Sheets.BlogURL = os.Getenv("BLOG_SHEET_URL")

	logger, err := zap.NewDevelopment()
	if err != nil {
		fail(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("=== Sheet Probe: %s ===\n\n", variant)

	gw, err := sheets.Open(ctx, cfg, variant, sheets.WithLogger(logger))
	if err != nil {
		fail(err)
	}
	fmt.Printf("Worksheet: %s\n", gw.Title())

	header, err := gw.Header(ctx)
	if err != nil {
		fail(err)
	}
	fmt.Println(strings.Repeat("-", 60))
	for i, h := range header {
		fmt.Printf("  %-3s %q\n", sheets.ColumnLetter(i+1), h)
	}
	if schema, ok := model.SchemaFor(variant); ok {
		if missing := schema.MissingFrom(header); len(missing) > 0 {
			fmt.Printf("\n  ⚠️  Missing expected columns:\n")
			for _, m := range missing {
				fmt.Printf("     - %s\n", m)
			}
		} else {
			fmt.Println("\n  ✓ Header matches the expected column set")
		}
	}

	if *row > 0 {
		rec, err := gw.RecordAt(ctx, *row)
		if err != nil {
			fail(err)
		}
		printRecord(rec)
		fmt.Printf("  valid=%t unprocessed=%t\n", rec.IsValid(), rec.IsUnprocessed())
		fmt.Println("\n=== Probe Complete ===")
		return
	}

	records, err := gw.ListUnprocessedRecords(ctx)
	if err != nil {
		fail(err)
	}
	fmt.Printf("\nUnprocessed records: %d\n", len(records))

	for i, rec := range records {
		if i >= *limit {
			break
		}
		printRecord(rec)
	}

	fmt.Println("\n=== Probe Complete ===")
}

func printRecord(rec model.SponsorRecord) {
	fmt.Printf("\nRow %d: %s\n", rec.Row, rec.DisplayName())
	fmt.Println(strings.Repeat("-", 60))

	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v := strings.TrimSpace(rec.Fields[name]); v != "" {
			fmt.Printf("  %s: %s\n", name, v)
		}
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
