package service

import (
	"context"

	"poolctl/internal/logger"
	"poolctl/internal/models"
	"poolctl/internal/repository"
)

// History exposes the event store: validated append plus time-range reads.
type History interface {
	Ingest(ctx context.Context, in IngestInput) (models.HistoryEvent, error)
	Query(ctx context.Context, in QueryInput) (QueryResult, error)
}

// Service aggregates all sub-services behind one handle for the HTTP layer.
type Service struct {
	History
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, cfg HistoryConfig, log *logger.Logger) *Service {
	return &Service{
		History: NewHistoryService(repos.Events, cfg, log),
	}
}
