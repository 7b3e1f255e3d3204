package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/sponsorgrader/internal/model"
	"github.com/ppiankov/sponsorgrader/internal/pipeline"
	"github.com/ppiankov/sponsorgrader/internal/util"
)

var (
	sheetType      string
	maxRecords     int
	researchTime   time.Duration
	noStreamOutput bool
	noWebsiteCheck bool
	noLedger       bool
	dryRun         bool
)

// gradeCmd represents the grade command
var gradeCmd = &cobra.Command{
	Use:   "grade",
	Short: "Research and grade unprocessed sponsor applications",
	Long: `Grade processes unprocessed rows of one intake sheet:
- Ensure the Research Notes and Decision columns exist
- Research each company with a web-search capable model
- Extract a Flagship / Eligible / Rejected decision
- Write the research notes and "<Category> Sponsor: <reasoning>" back to the row

Rows are processed one at a time in sheet order. A failed research call writes
a technical-error rejection for that row and the run continues.

Example:
  sponsorgrader grade
  sponsorgrader grade --sheet-type blog --max-records 5
  sponsorgrader grade --provider gemini --timeout 3m --no-stream-output`,
	Args: cobra.NoArgs,
	RunE: runGrade,
}

func init() {
	rootCmd.AddCommand(gradeCmd)

	gradeCmd.Flags().StringVar(&sheetType, "sheet-type", "media", "sheet to process (media, blog)")
	gradeCmd.Flags().IntVar(&maxRecords, "max-records", 0, "process at most this many records (0 = all)")
	gradeCmd.Flags().DurationVar(&researchTime, "timeout", 0, "per-record research timeout (default from config, 5m)")
	gradeCmd.Flags().String("provider", "", "research provider (openai, openai-chat, gemini, anthropic, ollama)")
	gradeCmd.Flags().String("model", "", "model name (provider default when empty)")
	gradeCmd.Flags().BoolVar(&noStreamOutput, "no-stream-output", false, "do not echo research text while it streams")
	gradeCmd.Flags().BoolVar(&noWebsiteCheck, "no-website-check", false, "skip the applicant website snapshot")
	gradeCmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record grades in the local ledger")
	gradeCmd.Flags().BoolVar(&dryRun, "dry-run", false, "list the records that would be graded and exit")

	_ = viper.BindPFlag("llm.provider", gradeCmd.Flags().Lookup("provider"))
	_ = viper.BindPFlag("llm.model", gradeCmd.Flags().Lookup("model"))
}

func runGrade(cmd *cobra.Command, args []string) error {
	variant, err := model.ParseVariant(sheetType)
	if err != nil {
		return err
	}
	if maxRecords < 0 {
		return fmt.Errorf("--max-records must be a positive integer, got %d", maxRecords)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if researchTime > 0 {
		cfg.Research.Timeout = researchTime
	}
	if noStreamOutput {
		cfg.Research.StreamOutput = false
	}
	if noWebsiteCheck {
		cfg.Website.Enabled = false
	}
	if noLedger {
		cfg.Ledger.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return explainConfigError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := util.NewHTTPClient(cfg.HTTP, 0)

	fmt.Fprintf(os.Stderr, "⚙️  Connecting to %s sheet...\n", variant)
	gw, err := openGateway(ctx, cfg, variant, client)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Connected (worksheet %q)\n", gw.Title())

	if dryRun {
		records, err := gw.ListUnprocessedRecords(ctx)
		if err != nil {
			return err
		}
		if maxRecords > 0 && len(records) > maxRecords {
			records = records[:maxRecords]
		}
		fmt.Fprintf(os.Stderr, "\n%d records would be graded:\n", len(records))
		pipeline.PrintPreview(os.Stderr, records, 0)
		return nil
	}

	researcher, err := newResearcher(ctx, cfg, client, os.Stderr)
	if err != nil {
		return err
	}
	provider := researcher.Provider()
	fmt.Fprintf(os.Stderr, "✓ Research provider: %s/%s (timeout %s)\n", provider.Name(), provider.Model(), cfg.Research.Timeout)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithReporter(pipeline.NewConsoleReporter(os.Stderr, verbose)),
		pipeline.WithOrganization(cfg.Research.Organization),
		pipeline.WithSource(provider.Name(), provider.Model()),
	}
	if snap := newSnapshotter(cfg, client); snap != nil {
		opts = append(opts, pipeline.WithSnapshotter(snap))
	}
	if ledger := openLedger(cfg); ledger != nil {
		defer func() {
			if err := ledger.Close(); err != nil {
				logger.Warn("close grade ledger", zap.Error(err))
			}
		}()
		opts = append(opts, pipeline.WithLedger(ledger))
	}

	_, err = pipeline.New(gw, researcher, opts...).Run(ctx, variant, maxRecords)
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("grading interrupted; remaining rows are still unprocessed")
	}
	return err
}
