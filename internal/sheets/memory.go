package sheets

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// Memory is an in-process Gateway over a string grid. Row 1 is the header.
type Memory struct {
	mu     sync.Mutex
	grid   [][]string
	logger *zap.Logger

	// Fail makes the named operation return the given error
	Fail map[string]error

	// Writes counts UpdateRecord calls that reached the grid
	Writes int
}

// NewMemory creates a memory gateway with the given header and rows
func NewMemory(header []string, rows ...[]string) *Memory {
	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, append([]string(nil), header...))
	for _, r := range rows {
		grid = append(grid, append([]string(nil), r...))
	}
	return &Memory{grid: grid, logger: zap.NewNop(), Fail: map[string]error{}}
}

// WithLogger sets the logger used for skipped-column warnings
func (m *Memory) WithLogger(logger *zap.Logger) *Memory {
	if logger != nil {
		m.logger = logger
	}
	return m
}

func (m *Memory) fail(op string) error {
	if err, ok := m.Fail[op]; ok && err != nil {
		return gatewayErr(op, err)
	}
	return nil
}

// Header returns a copy of row 1
func (m *Memory) Header(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("header"); err != nil {
		return nil, err
	}
	return append([]string(nil), m.grid[0]...), nil
}

// ListAllRecords implements Gateway
func (m *Memory) ListAllRecords(ctx context.Context) ([]model.SponsorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("list"); err != nil {
		return nil, err
	}
	return recordsFromGrid(m.grid), nil
}

// ListUnprocessedRecords implements Gateway
func (m *Memory) ListUnprocessedRecords(ctx context.Context) ([]model.SponsorRecord, error) {
	all, err := m.ListAllRecords(ctx)
	if err != nil {
		return nil, err
	}
	return unprocessed(all), nil
}

// UpdateRecord implements Gateway
func (m *Memory) UpdateRecord(ctx context.Context, row int, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("update"); err != nil {
		return err
	}
	if row < 2 {
		return gatewayErr("update", fmt.Errorf("invalid data row %d", row))
	}

	header := m.grid[0]
	for len(m.grid) < row {
		m.grid = append(m.grid, nil)
	}
	target := m.grid[row-1]

	for name, value := range fields {
		idx := columnIndex(header, name)
		if idx < 0 {
			m.logger.Warn("column not found in sheet header, skipping",
				zap.String("column", name), zap.Int("row", row))
			continue
		}
		for len(target) <= idx {
			target = append(target, "")
		}
		value, _ = truncateCell(value)
		target[idx] = value
	}
	m.grid[row-1] = target
	m.Writes++
	return nil
}

// EnsureColumns implements Gateway
func (m *Memory) EnsureColumns(ctx context.Context, names []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("ensure_columns"); err != nil {
		return err
	}
	m.grid[0] = append(m.grid[0], missingColumns(m.grid[0], names)...)
	return nil
}

// RecordAt implements Gateway
func (m *Memory) RecordAt(ctx context.Context, row int) (model.SponsorRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("get_row"); err != nil {
		return model.SponsorRecord{}, err
	}
	if row < 1 {
		return model.SponsorRecord{}, gatewayErr("get_row", fmt.Errorf("invalid row %d", row))
	}

	var values []string
	if row <= len(m.grid) {
		values = m.grid[row-1]
	}
	return recordFromRow(m.grid[0], values, row), nil
}

// Cell returns the value at a 1-based row and a header name, for assertions
func (m *Memory) Cell(row int, column string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := columnIndex(m.grid[0], column)
	if idx < 0 || row < 1 || row > len(m.grid) || idx >= len(m.grid[row-1]) {
		return ""
	}
	return m.grid[row-1][idx]
}

// Snapshot returns a deep copy of the grid
func (m *Memory) Snapshot() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.grid))
	for i, r := range m.grid {
		out[i] = append([]string(nil), r...)
	}
	return out
}

var _ Gateway = (*Memory)(nil)
