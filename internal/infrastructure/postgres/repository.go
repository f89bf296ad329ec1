package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"vn.io.arda/admin-event-interpreter/internal/domain"
)

const columns = `id, event_id, realm_id, resource_type, operation_type, object_type, subject_type,
	operation, resource_name, target_id, subject_id, object_id, object_name, auth_user_id,
	summary, description, validation, created_at`

// Repository is the PostgreSQL implementation of domain.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new postgres Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new interpretation record.
func (r *Repository) Create(ctx context.Context, in *domain.Interpretation) (*domain.Interpretation, error) {
	var validation []byte
	if in.Validation != nil {
		var err error
		if validation, err = json.Marshal(in.Validation); err != nil {
			return nil, fmt.Errorf("marshal validation: %w", err)
		}
	}

	var eventID *string
	if in.EventID != "" {
		eventID = &in.EventID
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO admin_event_interpretations (
			event_id, realm_id, resource_type, operation_type, object_type, subject_type,
			operation, resource_name, target_id, subject_id, object_id, object_name, auth_user_id,
			summary, description, validation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (event_id) WHERE event_id IS NOT NULL DO NOTHING
		RETURNING `+columns,
		eventID, in.RealmID, string(in.ResourceType), string(in.OperationType),
		string(in.ObjectType), string(in.SubjectType), string(in.Operation),
		in.ResourceName, in.TargetID, in.SubjectID, in.ObjectID, in.ObjectName, in.AuthUserID,
		in.Summary, in.Description, validation,
	)

	saved, err := scanInterpretation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Duplicate event_id: already interpreted.
			return nil, nil
		}
		return nil, fmt.Errorf("insert interpretation: %w", err)
	}
	return saved, nil
}

// List fetches paginated interpretations, newest first.
func (r *Repository) List(ctx context.Context, f domain.InterpretationFilter) ([]*domain.Interpretation, error) {
	query, args := buildListQuery(f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list interpretations: %w", err)
	}
	defer rows.Close()

	var results []*domain.Interpretation
	for rows.Next() {
		in, err := scanInterpretation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, in)
	}
	return results, rows.Err()
}

func buildListQuery(f domain.InterpretationFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.RealmID != "" {
		add("realm_id = $%d", f.RealmID)
	}
	if f.ObjectType != "" {
		add("object_type = $%d", string(f.ObjectType))
	}
	if f.Operation != "" {
		add("operation = $%d", string(f.Operation))
	}

	query := "SELECT " + columns + " FROM admin_event_interpretations"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	return query, args
}

// GetByEventID fetches the interpretation of a single admin event.
func (r *Repository) GetByEventID(ctx context.Context, eventID string) (*domain.Interpretation, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+columns+" FROM admin_event_interpretations WHERE event_id = $1", eventID)

	in, err := scanInterpretation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return in, err
}

// PurgeOlderThan deletes interpretations older than the given number of days.
func (r *Repository) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM admin_event_interpretations WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge interpretations: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanInterpretation is a helper to scan a row into an Interpretation struct.
type scannable interface {
	Scan(dest ...any) error
}

func scanInterpretation(row scannable) (*domain.Interpretation, error) {
	var (
		in         domain.Interpretation
		eventID    *string
		validation []byte
	)

	err := row.Scan(
		&in.ID, &eventID, &in.RealmID, &in.ResourceType, &in.OperationType,
		&in.ObjectType, &in.SubjectType, &in.Operation, &in.ResourceName, &in.TargetID,
		&in.SubjectID, &in.ObjectID, &in.ObjectName, &in.AuthUserID,
		&in.Summary, &in.Description, &validation, &in.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan interpretation: %w", err)
	}
	if eventID != nil {
		in.EventID = *eventID
	}
	if len(validation) > 0 {
		in.Validation = &domain.ValidationResult{}
		if err := json.Unmarshal(validation, in.Validation); err != nil {
			return nil, fmt.Errorf("decode validation: %w", err)
		}
	}
	return &in, nil
}
