// Package store keeps a local SQLite history of grades written to the sheets.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Ledger wraps the GORM DB handle
type Ledger struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite ledger at path, creating parent directories.
// ":memory:" opens a throwaway in-memory ledger.
func Open(path string) (*Ledger, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&Grade{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if path != ":memory:" {
		_ = db.Exec("PRAGMA journal_mode=WAL").Error
	}
	return &Ledger{gorm: db}, nil
}

// Close closes the underlying database connection
func (l *Ledger) Close() error {
	if l == nil {
		return nil
	}
	sqlDB, err := l.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record appends one grade
func (l *Ledger) Record(ctx context.Context, g *Grade) error {
	if g == nil {
		return errors.New("grade is nil")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gorm.WithContext(ctx).Create(g).Error
}

// Query filters ledger listings; zero values match everything
type Query struct {
	Variant  string
	Category string
	Company  string // Case-insensitive substring
	Limit    int
}

// Recent returns grades newest first
func (l *Ledger) Recent(ctx context.Context, q Query) ([]Grade, error) {
	tx := l.gorm.WithContext(ctx).Model(&Grade{})
	if q.Variant != "" {
		tx = tx.Where("variant = ?", q.Variant)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.Company != "" {
		tx = tx.Where("LOWER(company) LIKE ?", "%"+strings.ToLower(q.Company)+"%")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var grades []Grade
	if err := tx.Order("created_at DESC").Order("id DESC").Find(&grades).Error; err != nil {
		return nil, fmt.Errorf("query grades: %w", err)
	}
	return grades, nil
}

// Counts tallies written grades per category, optionally for one variant
func (l *Ledger) Counts(ctx context.Context, variant string) ([]CategoryCount, error) {
	tx := l.gorm.WithContext(ctx).Model(&Grade{}).Where("written = ?", true)
	if variant != "" {
		tx = tx.Where("variant = ?", variant)
	}

	var counts []CategoryCount
	if err := tx.Select("category, COUNT(*) AS total").Group("category").Order("category").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("count grades: %w", err)
	}
	return counts, nil
}
