package domain

import "context"

// Repository defines the port for interpretation persistence.
// Implementations live in infrastructure/postgres.
type Repository interface {
	// Create stores an interpretation. A duplicate EventID returns nil, nil.
	Create(ctx context.Context, in *Interpretation) (*Interpretation, error)

	// List fetches interpretations matching the filter, newest first.
	List(ctx context.Context, filter InterpretationFilter) ([]*Interpretation, error)

	// GetByEventID fetches the interpretation of a single admin event.
	GetByEventID(ctx context.Context, eventID string) (*Interpretation, error)

	// PurgeOlderThan deletes interpretations older than the given number of days.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}
