package model

import (
	"sort"
	"strings"
)

// Column names shared by every intake sheet
const (
	ColumnTimestamp     = "Timestamp"
	ColumnCompanyName   = "Company Name"
	ColumnWebsiteURL    = "Website URL"
	ColumnDescription   = "Company Description"
	ColumnResearchNotes = "Research Notes"
	ColumnDecision      = "Decision"
)

// SponsorRecord is one spreadsheet row (one sponsor application)
type SponsorRecord struct {
	Row    int               `json:"row"`    // 1-based sheet row; the header is row 1
	Fields map[string]string `json:"fields"` // Cell values keyed by header text

	// Headers is the sheet header in column order. Optional; it makes the
	// trimmed-name fallback in Get pick the leftmost column.
	Headers []string `json:"-"`
}

// Get returns the value for column. When no header matches exactly, a header
// whose trimmed text equals column is used instead (intake forms have been
// seen to emit "Company Name " with a trailing space). Several such headers
// resolve in column order, or in sorted order when Headers is unset.
func (r SponsorRecord) Get(column string) string {
	if v, ok := r.Fields[column]; ok {
		return strings.TrimSpace(v)
	}
	for _, header := range r.headerOrder() {
		if strings.TrimSpace(header) != column {
			continue
		}
		if v, ok := r.Fields[header]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (r SponsorRecord) headerOrder() []string {
	if len(r.Headers) > 0 {
		return r.Headers
	}
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Timestamp returns the form submission timestamp
func (r SponsorRecord) Timestamp() string { return r.Get(ColumnTimestamp) }

// CompanyName returns the applicant company name
func (r SponsorRecord) CompanyName() string { return r.Get(ColumnCompanyName) }

// WebsiteURL returns the applicant website
func (r SponsorRecord) WebsiteURL() string { return r.Get(ColumnWebsiteURL) }

// Description returns the free-text company description
func (r SponsorRecord) Description() string { return r.Get(ColumnDescription) }

// ResearchNotes returns the research notes written by a previous run, if any
func (r SponsorRecord) ResearchNotes() string { return r.Get(ColumnResearchNotes) }

// Decision returns the persisted decision text, if any
func (r SponsorRecord) Decision() string { return r.Get(ColumnDecision) }

// IsValid reports whether the row carries the minimum identity fields
func (r SponsorRecord) IsValid() bool {
	return r.Timestamp() != "" && r.CompanyName() != ""
}

// IsUnprocessed reports whether neither research notes nor a decision were written
func (r SponsorRecord) IsUnprocessed() bool {
	return r.ResearchNotes() == "" && r.Decision() == ""
}

// DisplayName returns the company name or a placeholder for progress output
func (r SponsorRecord) DisplayName() string {
	if name := r.CompanyName(); name != "" {
		return name
	}
	return "Unknown"
}
