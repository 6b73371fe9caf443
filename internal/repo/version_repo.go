package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/flowgen/internal/domain"
)

// VersionRepo — репозиторий для работы с workflow_versions.
type VersionRepo struct {
	pool *pgxpool.Pool
}

// NewVersionRepo создаёт новый VersionRepo.
func NewVersionRepo(pool *pgxpool.Pool) *VersionRepo {
	return &VersionRepo{pool: pool}
}

// Create сохраняет версию.
// Отсутствие workflow даёт ErrNotFound.
func (r *VersionRepo) Create(ctx context.Context, v *domain.WorkflowVersion) error {
	graphJSON, err := json.Marshal(v.Graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	query := `
		INSERT INTO workflow_versions (id, workflow_id, label, graph, created_at)
		SELECT $1, id, $3, $4, $5 FROM workflows WHERE id = $2
	`
	result, err := r.pool.Exec(ctx, query,
		v.ID,
		v.WorkflowID,
		v.Label,
		graphJSON,
		v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает версию по ID.
func (r *VersionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, label, graph, created_at
		FROM workflow_versions
		WHERE id = $1
	`
	return scanVersion(r.pool.QueryRow(ctx, query, id))
}

// ListByWorkflow возвращает историю workflow, новые версии первыми.
func (r *VersionRepo) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowVersion, error) {
	query := `
		SELECT id, workflow_id, label, graph, created_at
		FROM workflow_versions
		WHERE workflow_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, workflowID)
	if err != nil {
		return nil, fmt.Errorf("list workflow versions: %w", err)
	}
	defer rows.Close()

	var versions []domain.WorkflowVersion
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// Delete удаляет версию.
func (r *VersionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM workflow_versions WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete workflow version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVersion(row pgx.Row) (*domain.WorkflowVersion, error) {
	var v domain.WorkflowVersion
	var graphJSON []byte

	err := row.Scan(
		&v.ID,
		&v.WorkflowID,
		&v.Label,
		&graphJSON,
		&v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow version: %w", err)
	}

	if err := json.Unmarshal(graphJSON, &v.Graph); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	return &v, nil
}
