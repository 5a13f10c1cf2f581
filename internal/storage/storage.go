// Package storage defines the persistence interface for benchmark run history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/embedbench/internal/models"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Storage defines run history operations.
type Storage interface {
	SaveRun(ctx context.Context, report *models.Report) error
	GetRun(ctx context.Context, id string) (*models.Report, error)
	// ListRuns returns summaries newest first.
	ListRuns(ctx context.Context, offset, limit int) ([]*models.RunSummary, error)
	CountRuns(ctx context.Context) (int64, error)
	// SizeBytes reports the on-disk size of the history.
	SizeBytes() (int64, error)

	Close() error
}
