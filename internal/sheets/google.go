package sheets

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/ppiankov/sponsorgrader/internal/model"
	"github.com/ppiankov/sponsorgrader/internal/worker"
)

// googleAuthURL is only needed to complete the oauth2.Endpoint; refresh-token
// exchange uses the token URL alone
const googleAuthURL = "https://accounts.google.com/o/oauth2/auth"

// Google implements Gateway over the first worksheet of a Google spreadsheet
type Google struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	title         string
	limiter       *worker.Limiter
	logger        *zap.Logger
}

// Option configures a Google gateway
type Option func(*googleOptions)

type googleOptions struct {
	logger        *zap.Logger
	limiter       *worker.Limiter
	clientOptions []option.ClientOption
}

// WithLogger sets the gateway logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *googleOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWriteLimiter paces writes against the per-user Sheets write quota
func WithWriteLimiter(l *worker.Limiter) Option {
	return func(o *googleOptions) {
		o.limiter = l
	}
}

// WithClientOptions passes raw API client options (endpoint, HTTP client)
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(o *googleOptions) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// Open connects to the sheet configured for variant using the OAuth2 refresh
// token in cfg. The token is refreshed eagerly so bad credentials fail here.
func Open(ctx context.Context, cfg model.Config, variant model.SheetVariant, opts ...Option) (*Google, error) {
	sheetURL := cfg.Sheets.URLFor(variant)
	if sheetURL == "" {
		return nil, gatewayErr("connect", fmt.Errorf("no %s sheet URL configured", variant))
	}
	spreadsheetID, err := SheetIDFromURL(sheetURL)
	if err != nil {
		return nil, gatewayErr("connect", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: cfg.Google.TokenURL,
		},
		Scopes: []string{sheetsapi.SpreadsheetsScope},
	}
	ts := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.Google.RefreshToken})
	if _, err := ts.Token(); err != nil {
		return nil, gatewayErr("connect", fmt.Errorf("refresh OAuth token: %w", err))
	}

	opts = append([]Option{WithClientOptions(option.WithTokenSource(ts))}, opts...)
	return NewGoogle(ctx, spreadsheetID, opts...)
}

// NewGoogle connects to spreadsheetID with the given client options and
// resolves the title of its first worksheet
func NewGoogle(ctx context.Context, spreadsheetID string, opts ...Option) (*Google, error) {
	o := googleOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	svc, err := sheetsapi.NewService(ctx, o.clientOptions...)
	if err != nil {
		return nil, gatewayErr("connect", fmt.Errorf("create sheets service: %w", err))
	}

	ss, err := svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, gatewayErr("connect", fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, err))
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return nil, gatewayErr("connect", fmt.Errorf("spreadsheet %s has no worksheets", spreadsheetID))
	}

	g := &Google{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		title:         ss.Sheets[0].Properties.Title,
		limiter:       o.limiter,
		logger:        o.logger.With(zap.String("spreadsheet", spreadsheetID)),
	}
	g.logger.Info("connected to sheet", zap.String("worksheet", g.title))
	return g, nil
}

// Title returns the worksheet title in use
func (g *Google) Title() string {
	return g.title
}

func (g *Google) readRange(ctx context.Context, a1 string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, a1).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	grid := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		grid[i] = toStrings(row)
	}
	return grid, nil
}

func (g *Google) write(ctx context.Context, data []*sheetsapi.ValueRange) error {
	if err := g.limiter.Wait(ctx, "sheets:"+g.spreadsheetID); err != nil {
		return err
	}
	_, err := g.svc.Spreadsheets.Values.BatchUpdate(g.spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	return err
}

func (g *Google) header(ctx context.Context) ([]string, error) {
	grid, err := g.readRange(ctx, rowRange(g.title, 1))
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}
	return grid[0], nil
}

// Header implements Gateway
func (g *Google) Header(ctx context.Context) ([]string, error) {
	header, err := g.header(ctx)
	return header, gatewayErr("header", err)
}

// ListAllRecords implements Gateway
func (g *Google) ListAllRecords(ctx context.Context) ([]model.SponsorRecord, error) {
	grid, err := g.readRange(ctx, quoteTitle(g.title))
	if err != nil {
		return nil, gatewayErr("list", err)
	}
	records := recordsFromGrid(grid)

	total := 0
	if len(grid) > 0 {
		total = len(grid) - 1
	}
	g.logger.Info("retrieved records", zap.Int("valid", len(records)), zap.Int("total", total))
	return records, nil
}

// ListUnprocessedRecords implements Gateway
func (g *Google) ListUnprocessedRecords(ctx context.Context) ([]model.SponsorRecord, error) {
	all, err := g.ListAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	out := unprocessed(all)
	g.logger.Info("found unprocessed records", zap.Int("count", len(out)))
	return out, nil
}

// UpdateRecord implements Gateway. Known fields are written in one batch.
func (g *Google) UpdateRecord(ctx context.Context, row int, fields map[string]string) error {
	if row < 2 {
		return gatewayErr("update", fmt.Errorf("invalid data row %d", row))
	}

	header, err := g.header(ctx)
	if err != nil {
		return gatewayErr("update", err)
	}

	// Stable order keeps request bodies deterministic
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var data []*sheetsapi.ValueRange
	for _, name := range names {
		idx := columnIndex(header, name)
		if idx < 0 {
			g.logger.Warn("column not found in sheet header, skipping",
				zap.String("column", name), zap.Int("row", row))
			continue
		}
		value, truncated := truncateCell(fields[name])
		if truncated {
			g.logger.Warn("cell value truncated to sheet limit",
				zap.String("column", name), zap.Int("row", row), zap.Int("limit", MaxCellChars))
		}
		data = append(data, &sheetsapi.ValueRange{
			Range:  cellRange(g.title, row, idx+1),
			Values: [][]any{{value}},
		})
	}

	if len(data) == 0 {
		return nil
	}
	if err := g.write(ctx, data); err != nil {
		return gatewayErr("update", err)
	}

	g.logger.Debug("updated row", zap.Int("row", row), zap.Int("fields", len(data)))
	return nil
}

// EnsureColumns implements Gateway
func (g *Google) EnsureColumns(ctx context.Context, names []string) error {
	header, err := g.header(ctx)
	if err != nil {
		return gatewayErr("ensure_columns", err)
	}

	missing := missingColumns(header, names)
	if len(missing) == 0 {
		return nil
	}

	values := make([]any, len(missing))
	for i, name := range missing {
		values[i] = name
	}
	from := len(header) + 1
	data := []*sheetsapi.ValueRange{{
		Range:  spanRange(g.title, 1, from, from+len(missing)-1),
		Values: [][]any{values},
	}}
	if err := g.write(ctx, data); err != nil {
		return gatewayErr("ensure_columns", err)
	}

	g.logger.Info("added columns to sheet", zap.Strings("columns", missing))
	return nil
}

// RecordAt implements Gateway
func (g *Google) RecordAt(ctx context.Context, row int) (model.SponsorRecord, error) {
	if row < 1 {
		return model.SponsorRecord{}, gatewayErr("get_row", fmt.Errorf("invalid row %d", row))
	}
	header, err := g.header(ctx)
	if err != nil {
		return model.SponsorRecord{}, gatewayErr("get_row", err)
	}
	grid, err := g.readRange(ctx, rowRange(g.title, row))
	if err != nil {
		return model.SponsorRecord{}, gatewayErr("get_row", err)
	}

	var values []string
	if len(grid) > 0 {
		values = grid[0]
	}
	return recordFromRow(header, values, row), nil
}

var _ Gateway = (*Google)(nil)
