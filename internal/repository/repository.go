package repository

import (
	"context"
	"database/sql"

	"poolctl/internal/models"
)

// EventRepo owns the append-only events table. Inserted rows are immutable;
// the only deletion path is retention pruning.
type EventRepo interface {
	Insert(ctx context.Context, e models.HistoryEvent) (models.HistoryEvent, error)
	ListSince(ctx context.Context, deviceID string, sinceTs int64, limit int) ([]models.HistoryItem, error)
	DeleteOlderThan(ctx context.Context, cutoffTs int64) (int64, error)
}

type Repository struct {
	Events EventRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Events: NewEventSQLite(db),
	}
}
