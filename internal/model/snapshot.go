package model

import "time"

// WebsiteSnapshot is a short, readable summary of an applicant's landing page.
// It is supplementary research context only and never required.
type WebsiteSnapshot struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url"` // After redirects
	StatusCode  int       `json:"status_code"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Excerpt     string    `json:"excerpt"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// IsEmpty reports whether the snapshot carries nothing useful for a prompt
func (s *WebsiteSnapshot) IsEmpty() bool {
	return s == nil || (s.Title == "" && s.Description == "" && s.Excerpt == "")
}
