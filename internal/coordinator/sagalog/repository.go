package sagalog

import "context"

// Repository persists saga transitions.
type Repository interface {
	// Save appends a row; existing rows are never updated.
	Save(ctx context.Context, entry *SagaLog) error
	// GetLatest returns the newest row of a saga or ErrNotFound.
	GetLatest(ctx context.Context, sagaID string) (*SagaLog, error)
	// History returns every row of a saga, oldest first.
	History(ctx context.Context, sagaID string) ([]SagaLog, error)
}
