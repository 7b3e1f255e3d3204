// Package pipeline grades unprocessed sponsor applications one row at a time.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/sponsorgrader/internal/grade"
	"github.com/ppiankov/sponsorgrader/internal/llm"
	"github.com/ppiankov/sponsorgrader/internal/model"
	"github.com/ppiankov/sponsorgrader/internal/sheets"
	"github.com/ppiankov/sponsorgrader/internal/store"
)

// Stage is the last step a record completed
type Stage string

const (
	StageFetched    Stage = "fetched"
	StagePrompted   Stage = "prompted"
	StageResearched Stage = "researched"
	StageExtracted  Stage = "extracted"
	StageWritten    Stage = "written"
)

// Researcher runs one research call; failures are carried in the Outcome
type Researcher interface {
	Research(ctx context.Context, prompt string) llm.Outcome
}

// Snapshotter fetches optional website context; nil means no snapshot
type Snapshotter interface {
	Snapshot(ctx context.Context, url string) *model.WebsiteSnapshot
}

// Ledger records every graded row
type Ledger interface {
	Record(ctx context.Context, g *store.Grade) error
}

// Pipeline orchestrates the grading of one sheet
type Pipeline struct {
	gateway      sheets.Gateway
	researcher   Researcher
	snapshotter  Snapshotter
	ledger       Ledger
	reporter     Reporter
	logger       *zap.Logger
	organization string
	provider     string
	model        string
	now          func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the pipeline logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithReporter sets the progress reporter
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.reporter = r
		}
	}
}

// WithSnapshotter enables the website snapshot step
func WithSnapshotter(s Snapshotter) Option {
	return func(p *Pipeline) {
		p.snapshotter = s
	}
}

// WithLedger enables the local grade history
func WithLedger(l Ledger) Option {
	return func(p *Pipeline) {
		p.ledger = l
	}
}

// WithOrganization sets the organization named in the research prompt
func WithOrganization(name string) Option {
	return func(p *Pipeline) {
		p.organization = name
	}
}

// WithSource labels ledger entries with the research provider and model
func WithSource(provider, model string) Option {
	return func(p *Pipeline) {
		p.provider = provider
		p.model = model
	}
}

// New creates a pipeline over gateway and researcher
func New(gateway sheets.Gateway, researcher Researcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		gateway:    gateway,
		researcher: researcher,
		reporter:   NopReporter{},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RecordResult is the outcome of grading one row
type RecordResult struct {
	Row         int
	Company     string
	Stage       Stage
	Decision    model.Decision
	Notes       string
	Attempts    int
	Duration    time.Duration
	ResearchErr error // Research failed; a technical-error decision was used
	WriteErr    error // The row could not be updated
}

// Written reports whether the row was updated
func (r RecordResult) Written() bool {
	return r.Stage == StageWritten
}

// Summary aggregates one run
type Summary struct {
	RunID            string
	Variant          model.SheetVariant
	Selected         int // Unprocessed rows chosen for this run
	Processed        int
	Updated          int
	ResearchFailures int
	WriteFailures    int
	Categories       map[model.Category]int // Written decisions per tier
	Results          []RecordResult
	Interrupted      bool
	Duration         time.Duration
}

func (s *Summary) add(r RecordResult) {
	s.Results = append(s.Results, r)
	s.Processed++
	if r.ResearchErr != nil {
		s.ResearchFailures++
	}
	if r.WriteErr != nil {
		s.WriteFailures++
	}
	if r.Written() {
		s.Updated++
		s.Categories[r.Decision.Category]++
	}
}

// Run grades up to maxRecords unprocessed rows of the sheet (maxRecords <= 0
// means all of them). Failures reading or preparing the sheet are fatal;
// per-record failures are reported and the run continues. When ctx is
// cancelled the in-flight row is left unwritten and Run returns the partial
// summary with the context error.
func (p *Pipeline) Run(ctx context.Context, variant model.SheetVariant, maxRecords int) (*Summary, error) {
	start := p.now()
	summary := &Summary{
		RunID:      start.UTC().Format("20060102T150405.000Z"),
		Variant:    variant,
		Categories: make(map[model.Category]int),
	}

	if err := p.gateway.EnsureColumns(ctx, model.RequiredColumns); err != nil {
		return nil, fmt.Errorf("ensure columns: %w", err)
	}
	p.checkSchema(ctx, variant)

	records, err := p.gateway.ListUnprocessedRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed records: %w", err)
	}
	if maxRecords > 0 && len(records) > maxRecords {
		records = records[:maxRecords]
	}
	summary.Selected = len(records)

	p.logger.Info("grading run started",
		zap.String("run_id", summary.RunID),
		zap.String("variant", variant.String()),
		zap.Int("records", len(records)))
	p.reporter.Start(variant, len(records))

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return p.finish(summary, start, true), err
		}

		p.reporter.RecordStarted(i+1, len(records), rec)
		res := p.gradeRecord(ctx, summary.RunID, variant, rec)

		if !res.Written() && ctx.Err() != nil {
			p.logger.Warn("run interrupted, row left unprocessed",
				zap.Int("row", rec.Row), zap.String("company", res.Company))
			return p.finish(summary, start, true), ctx.Err()
		}

		summary.add(res)
		p.reporter.RecordDone(res)
	}

	return p.finish(summary, start, false), nil
}

func (p *Pipeline) finish(s *Summary, start time.Time, interrupted bool) *Summary {
	s.Interrupted = interrupted
	s.Duration = p.now().Sub(start)
	p.reporter.Finish(s)
	p.logger.Info("grading run finished",
		zap.String("run_id", s.RunID),
		zap.Int("processed", s.Processed),
		zap.Int("updated", s.Updated),
		zap.Int("research_failures", s.ResearchFailures),
		zap.Int("write_failures", s.WriteFailures),
		zap.Bool("interrupted", interrupted),
		zap.Duration("duration", s.Duration))
	return s
}

// checkSchema warns about intake columns missing from the header
func (p *Pipeline) checkSchema(ctx context.Context, variant model.SheetVariant) {
	schema, ok := model.SchemaFor(variant)
	if !ok {
		return
	}
	header, err := p.gateway.Header(ctx)
	if err != nil {
		p.logger.Warn("could not read header for schema check", zap.Error(err))
		return
	}
	if missing := schema.MissingFrom(header); len(missing) > 0 {
		p.logger.Warn("sheet header is missing expected columns",
			zap.String("variant", variant.String()),
			zap.Strings("columns", missing))
	}
}

// gradeRecord walks one record through prompt, research, extraction and write
func (p *Pipeline) gradeRecord(ctx context.Context, runID string, variant model.SheetVariant, rec model.SponsorRecord) RecordResult {
	res := RecordResult{
		Row:     rec.Row,
		Company: rec.DisplayName(),
		Stage:   StageFetched,
	}

	var snap *model.WebsiteSnapshot
	if p.snapshotter != nil && rec.WebsiteURL() != "" {
		snap = p.snapshotter.Snapshot(ctx, rec.WebsiteURL())
	}

	prompt := llm.BuildResearchPrompt(llm.PromptInputFor(p.organization, rec, snap))
	res.Stage = StagePrompted

	outcome := p.researcher.Research(ctx, prompt)
	res.Attempts = outcome.Attempts
	res.Duration = outcome.Duration
	if ctx.Err() != nil {
		res.ResearchErr = ctx.Err()
		return res
	}

	if outcome.OK() {
		res.Stage = StageResearched
		res.Decision = grade.Extract(outcome.Transcript)
		res.Notes = outcome.Transcript
		res.Stage = StageExtracted
	} else {
		res.ResearchErr = outcome.Err
		res.Decision = grade.TechnicalError()
		res.Notes = grade.FailureNotes(outcome.Err)
	}

	fields := map[string]string{
		model.ColumnResearchNotes: res.Notes,
		model.ColumnDecision:      res.Decision.String(),
	}
	if err := p.gateway.UpdateRecord(ctx, rec.Row, fields); err != nil {
		res.WriteErr = err
		p.logger.Error("failed to update row",
			zap.Int("row", rec.Row),
			zap.String("company", res.Company),
			zap.Error(err))
	} else {
		res.Stage = StageWritten
	}

	p.recordLedger(ctx, runID, variant, rec, res)
	return res
}

func (p *Pipeline) recordLedger(ctx context.Context, runID string, variant model.SheetVariant, rec model.SponsorRecord, res RecordResult) {
	if p.ledger == nil {
		return
	}
	g := &store.Grade{
		RunID:      runID,
		Variant:    variant.String(),
		Row:        rec.Row,
		Company:    rec.CompanyName(),
		Website:    rec.WebsiteURL(),
		Category:   res.Decision.Category.String(),
		Reasoning:  res.Decision.Reasoning,
		Provider:   p.provider,
		Model:      p.model,
		Attempts:   res.Attempts,
		DurationMS: res.Duration.Milliseconds(),
		Written:    res.Written(),
	}
	switch {
	case res.ResearchErr != nil:
		g.Error = res.ResearchErr.Error()
	case res.WriteErr != nil:
		g.Error = res.WriteErr.Error()
	}
	if err := p.ledger.Record(ctx, g); err != nil {
		p.logger.Warn("failed to record grade in ledger", zap.Int("row", rec.Row), zap.Error(err))
	}
}
