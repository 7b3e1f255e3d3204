package sheets

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

// MaxCellChars is the Sheets per-cell character limit
const MaxCellChars = 50000

var sheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SheetIDFromURL extracts the spreadsheet ID from a sheet URL. A bare ID is
// returned unchanged.
func SheetIDFromURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty sheet URL")
	}
	if m := sheetIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	if !strings.ContainsAny(raw, "/:?") {
		return raw, nil
	}
	return "", fmt.Errorf("no spreadsheet ID in URL %q", raw)
}

// ColumnLetter converts a 1-based column index to A1 letters (1 → A, 27 → AA)
func ColumnLetter(col int) string {
	if col <= 0 {
		return ""
	}
	var out []byte
	for col > 0 {
		col--
		out = append([]byte{byte('A' + col%26)}, out...)
		col /= 26
	}
	return string(out)
}

// quoteTitle quotes a worksheet title for use in an A1 range
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// cellRange returns an A1 reference like 'Sheet1'!C5
func cellRange(title string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteTitle(title), ColumnLetter(col), row)
}

// rowRange returns an A1 reference for a whole row like 'Sheet1'!5:5
func rowRange(title string, row int) string {
	return fmt.Sprintf("%s!%d:%d", quoteTitle(title), row, row)
}

// spanRange returns an A1 reference for cells fromCol..toCol on one row
func spanRange(title string, row, fromCol, toCol int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", quoteTitle(title), ColumnLetter(fromCol), row, ColumnLetter(toCol), row)
}

// columnIndex returns the 0-based position of name in header, preferring an
// exact match over a trimmed one. It returns -1 when absent.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// missingColumns returns names absent from header, without duplicates
func missingColumns(header []string, names []string) []string {
	var missing []string
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] || columnIndex(header, name) >= 0 {
			continue
		}
		seen[name] = true
		missing = append(missing, name)
	}
	return missing
}

// recordFromRow builds a record from one grid row, padding short rows
func recordFromRow(header []string, values []string, row int) model.SponsorRecord {
	fields := make(map[string]string, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if _, dup := fields[h]; dup {
			continue
		}
		if i < len(values) {
			fields[h] = values[i]
		} else {
			fields[h] = ""
		}
	}
	return model.SponsorRecord{Row: row, Fields: fields, Headers: append([]string(nil), header...)}
}

// recordsFromGrid converts a full sheet (header in grid[0]) into the valid
// records, each carrying its true 1-based sheet row
func recordsFromGrid(grid [][]string) []model.SponsorRecord {
	if len(grid) == 0 {
		return nil
	}
	header := grid[0]

	var records []model.SponsorRecord
	for i := 1; i < len(grid); i++ {
		rec := recordFromRow(header, grid[i], i+1)
		if rec.IsValid() {
			records = append(records, rec)
		}
	}
	return records
}

// unprocessed filters records whose Research Notes and Decision are both empty
func unprocessed(records []model.SponsorRecord) []model.SponsorRecord {
	var out []model.SponsorRecord
	for _, rec := range records {
		if rec.IsUnprocessed() {
			out = append(out, rec)
		}
	}
	return out
}

// truncateCell clips a value to the per-cell limit and reports whether it did
func truncateCell(value string) (string, bool) {
	if utf8.RuneCountInString(value) <= MaxCellChars {
		return value, false
	}
	const suffix = "\n[truncated]"
	keep := MaxCellChars - utf8.RuneCountInString(suffix)
	cut, n := 0, 0
	for i := range value {
		if n == keep {
			cut = i
			break
		}
		n++
	}
	return value[:cut] + suffix, true
}

// cellString renders an API cell value
func cellString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = cellString(v)
	}
	return out
}
