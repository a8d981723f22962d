// Package history persists run outcomes to a local SQLite database so
// past runs survive process restarts and stay queryable while serving.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/vk/gridrun/internal/report"
)

// Run is one recorded run.
type Run struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Event      string    `json:"event"`
	Status     string    `json:"status"`
	CellsTotal int       `json:"cells_total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// CellExecution is one recorded cell outcome, linked to its run.
type CellExecution struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	RunID       string `gorm:"index;size:36" json:"run_id"`
	CellID      string `json:"cell_id"`
	Status      string `json:"status"`
	FailureKind string `json:"failure_kind,omitempty"`
	FailedStep  string `json:"failed_step,omitempty"`
	OutputTail  string `json:"output_tail,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

// Store reads and writes run history.
type Store struct {
	db *gorm.DB
}

// Open opens and migrates the history database at path. The pure-Go
// SQLite driver keeps the binary cgo-free.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.AutoMigrate(&Run{}, &CellExecution{}); err != nil {
		return nil, fmt.Errorf("failed to auto migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Record persists one report atomically.
func (s *Store) Record(ctx context.Context, rep *report.Report) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := Run{
			ID:         rep.RunID,
			Event:      rep.Event,
			Status:     string(rep.Status),
			CellsTotal: rep.CellsTotal,
			Passed:     rep.Passed,
			Failed:     rep.Failed,
			Skipped:    rep.Skipped,
			DurationMS: rep.DurationMS,
		}
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}

		for _, cell := range rep.Cells {
			exec := CellExecution{
				RunID:       rep.RunID,
				CellID:      cell.ID,
				Status:      string(cell.Status),
				FailureKind: string(cell.FailureKind),
				FailedStep:  cell.FailedStep,
				OutputTail:  cell.OutputTail,
				DurationMS:  cell.DurationMS,
			}
			if err := tx.Create(&exec).Error; err != nil {
				return fmt.Errorf("failed to record cell %s: %w", cell.ID, err)
			}
		}
		return nil
	})
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []Run
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Cells returns the recorded cells of one run in expansion order.
func (s *Store) Cells(ctx context.Context, runID string) ([]CellExecution, error) {
	var cells []CellExecution
	err := s.db.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&cells).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list cells for run %s: %w", runID, err)
	}
	return cells, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
