package model

import (
	"fmt"
	"strings"
)

// SheetVariant selects which intake form is processed
type SheetVariant string

const (
	VariantMedia SheetVariant = "media" // Media sponsorship intake
	VariantBlog  SheetVariant = "blog"  // Blog collaboration intake
)

// Variants lists the known sheet variants
var Variants = []SheetVariant{VariantMedia, VariantBlog}

func (v SheetVariant) String() string {
	return string(v)
}

// ParseVariant validates a variant name
func ParseVariant(s string) (SheetVariant, error) {
	switch SheetVariant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantMedia:
		return VariantMedia, nil
	case VariantBlog:
		return VariantBlog, nil
	default:
		return "", fmt.Errorf("unknown sheet type %q (supported: media, blog)", s)
	}
}

// RequiredColumns are appended to the header row when missing
var RequiredColumns = []string{ColumnResearchNotes, ColumnDecision}

// SheetSchema is the expected header row of one intake sheet
type SheetSchema struct {
	Variant SheetVariant
	Columns []string
}

var schemas = map[SheetVariant]SheetSchema{
	VariantMedia: {
		Variant: VariantMedia,
		Columns: []string{
			ColumnTimestamp, ColumnCompanyName, ColumnWebsiteURL, ColumnDescription,
			"Industry / Category", "Funding Status", "Amount Raised to Date",
			"What channels are you interested in sponsoring?", "Desired Start Date",
			"Contact Name", "Email", "Telegram Handle",
			"How did you hear about Token Metrics?", ColumnResearchNotes, ColumnDecision,
		},
	},
	VariantBlog: {
		Variant: VariantBlog,
		Columns: []string{
			ColumnTimestamp, ColumnCompanyName, ColumnWebsiteURL,
			"What kind of collaboration are you interested in?",
			"Example of a blog you'd like to feature on Token Metrics",
			"Example of a backlink you'd like to promote",
			"Is the project you're promoting through our blogs and backlinks VC-backed?",
			"Telegram Handle", "How did you hear about Token Metrics Blogs?",
			ColumnResearchNotes, ColumnDecision,
		},
	},
}

// SchemaFor returns the column set of a variant
func SchemaFor(v SheetVariant) (SheetSchema, bool) {
	s, ok := schemas[v]
	return s, ok
}

// MissingFrom returns schema columns absent from header, in schema order.
// Header cells are compared after trimming.
func (s SheetSchema) MissingFrom(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, col := range s.Columns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
