package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/sponsorgrader/internal/model"
	"github.com/ppiankov/sponsorgrader/internal/pipeline"
	"github.com/ppiankov/sponsorgrader/internal/util"
)

var (
	checkSheetType string
	checkLimit     int
	checkSkipLLM   bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify credentials, sheets and the research provider",
	Long: `Check validates the configuration without grading anything:
- Required credentials are present
- Each sheet can be opened and has the Research Notes / Decision columns
- Unprocessed record counts and the first few company names
- The research provider answers

Example:
  sponsorgrader check
  sponsorgrader check --sheet-type blog --limit 10
  sponsorgrader check --skip-llm`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkSheetType, "sheet-type", "all", "sheet to check (media, blog, all)")
	checkCmd.Flags().IntVar(&checkLimit, "limit", 5, "number of unprocessed records to list per sheet")
	checkCmd.Flags().BoolVar(&checkSkipLLM, "skip-llm", false, "skip the research provider probe")
}

func runCheck(cmd *cobra.Command, args []string) error {
	variants := model.Variants
	if checkSheetType != "all" {
		v, err := model.ParseVariant(checkSheetType)
		if err != nil {
			return err
		}
		variants = []model.SheetVariant{v}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return explainConfigError(err)
	}
	fmt.Fprintf(os.Stderr, "✓ Configuration complete\n\n")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	client := util.NewHTTPClient(cfg.HTTP, 0)

	failed := 0
	for _, variant := range variants {
		if err := checkSheet(ctx, cfg, variant, client); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s sheet: %v\n\n", variant, err)
			failed++
		}
	}

	if !checkSkipLLM {
		if err := checkProvider(ctx, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "✗ Research provider: %v\n\n", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintf(os.Stderr, "✓ All checks passed\n")
	return nil
}

func checkSheet(ctx context.Context, cfg model.Config, variant model.SheetVariant, client *http.Client) error {
	fmt.Fprintf(os.Stderr, "⚙️  Checking %s sheet...\n", variant)
	gw, err := openGateway(ctx, cfg, variant, client)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Connected (worksheet %q)\n", gw.Title())

	if err := gw.EnsureColumns(ctx, model.RequiredColumns); err != nil {
		return err
	}
	header, err := gw.Header(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "  Columns:      %d\n", len(header))
	if schema, ok := model.SchemaFor(variant); ok {
		if missing := schema.MissingFrom(header); len(missing) > 0 {
			fmt.Fprintf(os.Stderr, "  ⚠️  Missing expected columns: %s\n", strings.Join(missing, ", "))
		}
	}

	all, err := gw.ListAllRecords(ctx)
	if err != nil {
		return err
	}
	pending, err := gw.ListUnprocessedRecords(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "  Records:      %d\n", len(all))
	fmt.Fprintf(os.Stderr, "  Unprocessed:  %d\n", len(pending))
	pipeline.PrintPreview(os.Stderr, pending, checkLimit)
	fmt.Fprintf(os.Stderr, "\n")
	return nil
}

func checkProvider(ctx context.Context, cfg model.Config) error {
	client := util.NewHTTPClient(cfg.HTTP, 30*time.Second)
	researcher, err := newResearcher(ctx, cfg, client, nil)
	if err != nil {
		return err
	}
	provider := researcher.Provider()

	fmt.Fprintf(os.Stderr, "⚙️  Probing %s/%s...\n", provider.Name(), provider.Model())
	if !provider.IsAvailable(ctx) {
		return fmt.Errorf("%s is not reachable or the API key was rejected", provider.Name())
	}
	fmt.Fprintf(os.Stderr, "✓ Research provider available\n\n")
	return nil
}
