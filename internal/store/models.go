package store

import "time"

// Grade is one graded sponsor application as written to the sheet
type Grade struct {
	ID         uint   `gorm:"primaryKey"`
	RunID      string `gorm:"size:64;index"`
	Variant    string `gorm:"size:16;index"`
	Row        int
	Company    string `gorm:"size:256;index"`
	Website    string `gorm:"size:512"`
	Category   string `gorm:"size:16;index"`
	Reasoning  string `gorm:"type:text"`
	Provider   string `gorm:"size:32"`
	Model      string `gorm:"size:64"`
	Attempts   int
	DurationMS int64
	Error      string `gorm:"type:text"`
	Written    bool   `gorm:"index"`
	CreatedAt  time.Time
}

// Duration returns the research duration
func (g Grade) Duration() time.Duration {
	return time.Duration(g.DurationMS) * time.Millisecond
}

// CategoryCount is a per-category tally
type CategoryCount struct {
	Category string
	Total    int64
}
