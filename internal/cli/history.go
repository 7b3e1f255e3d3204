package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sponsorgrader/internal/model"
	"github.com/ppiankov/sponsorgrader/internal/store"
)

var (
	historySheetType string
	historyCategory  string
	historyCompany   string
	historyLimit     int
	historyStats     bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently graded applications from the local ledger",
	Long: `History lists grades recorded by previous runs, newest first.

Example:
  sponsorgrader history
  sponsorgrader history --sheet-type blog --category Flagship
  sponsorgrader history --company acme
  sponsorgrader history --stats`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVar(&historySheetType, "sheet-type", "", "only this sheet (media, blog)")
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "only this decision (Flagship, Eligible, Rejected)")
	historyCmd.Flags().StringVar(&historyCompany, "company", "", "company name contains")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum entries to show")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show decision counts instead of entries")
}

func runHistory(cmd *cobra.Command, args []string) error {
	q := store.Query{Company: historyCompany, Limit: historyLimit}
	if historySheetType != "" {
		v, err := model.ParseVariant(historySheetType)
		if err != nil {
			return err
		}
		q.Variant = v.String()
	}
	if historyCategory != "" {
		q.Category = model.ParseCategory(historyCategory).String()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Ledger.Path == "" {
		return fmt.Errorf("no ledger path configured")
	}
	if _, err := os.Stat(cfg.Ledger.Path); err != nil {
		return fmt.Errorf("no grade ledger at %s (run 'sponsorgrader grade' first)", cfg.Ledger.Path)
	}

	ledger, err := store.Open(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer ledger.Close()

	ctx := context.Background()
	if historyStats {
		counts, err := ledger.Counts(ctx, q.Variant)
		if err != nil {
			return err
		}
		printCounts(counts)
		return nil
	}

	grades, err := ledger.Recent(ctx, q)
	if err != nil {
		return err
	}
	if len(grades) == 0 {
		fmt.Println("No grades recorded")
		return nil
	}
	for _, g := range grades {
		printGrade(g)
	}
	return nil
}

func printGrade(g store.Grade) {
	mark := "✓"
	if !g.Written || g.Error != "" {
		mark = "✗"
	}
	fmt.Printf("%s %s  %-5s row %-5d %-30s %s\n",
		mark, g.CreatedAt.Local().Format("2006-01-02 15:04"), g.Variant, g.Row, g.Company, g.Category)
	if g.Reasoning != "" {
		fmt.Printf("    %s\n", g.Reasoning)
	}
	if g.Error != "" {
		fmt.Printf("    error: %s\n", g.Error)
	}
	if verbose {
		fmt.Printf("    %s/%s, %s, run %s\n", g.Provider, g.Model, g.Duration(), g.RunID)
	}
}

func printCounts(counts []store.CategoryCount) {
	var total int64
	for _, c := range counts {
		total += c.Total
	}
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Decisions")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	for _, c := range counts {
		bar := ""
		if total > 0 {
			bar = strings.Repeat("█", int(c.Total*40/total))
		}
		fmt.Printf("  %-9s %5d  %s\n", c.Category, c.Total, bar)
	}
	fmt.Printf("  %-9s %5d\n", "Total", total)
	fmt.Println()
}
