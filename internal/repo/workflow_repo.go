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

// WorkflowRepo — репозиторий для работы с workflows.
type WorkflowRepo struct {
	pool *pgxpool.Pool
}

// NewWorkflowRepo создаёт новый WorkflowRepo.
func NewWorkflowRepo(pool *pgxpool.Pool) *WorkflowRepo {
	return &WorkflowRepo{pool: pool}
}

// Create создаёт новый workflow.
func (r *WorkflowRepo) Create(ctx context.Context, wf *domain.Workflow) error {
	graphJSON, err := json.Marshal(wf.Graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, graph, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = r.pool.Exec(ctx, query,
		wf.ID,
		wf.Name,
		graphJSON,
		wf.CreatedAt,
		wf.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workflow: %w", mapPgError(err))
	}
	return nil
}

// GetByID возвращает workflow по ID.
func (r *WorkflowRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	query := `
		SELECT id, name, graph, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`
	return scanWorkflow(r.pool.QueryRow(ctx, query, id))
}

// List возвращает все workflows, последние изменённые первыми.
func (r *WorkflowRepo) List(ctx context.Context) ([]domain.Workflow, error) {
	query := `
		SELECT id, name, graph, created_at, updated_at
		FROM workflows
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []domain.Workflow
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		workflows = append(workflows, *wf)
	}
	return workflows, rows.Err()
}

// Update сохраняет имя и граф workflow.
func (r *WorkflowRepo) Update(ctx context.Context, wf *domain.Workflow) error {
	graphJSON, err := json.Marshal(wf.Graph)
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}

	query := `
		UPDATE workflows
		SET name = $2, graph = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query, wf.ID, wf.Name, graphJSON, wf.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет workflow (каскадно удалит versions, у runs обнулит workflow_id).
func (r *WorkflowRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM workflows WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWorkflow(row pgx.Row) (*domain.Workflow, error) {
	var wf domain.Workflow
	var graphJSON []byte

	err := row.Scan(
		&wf.ID,
		&wf.Name,
		&graphJSON,
		&wf.CreatedAt,
		&wf.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}

	if err := json.Unmarshal(graphJSON, &wf.Graph); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	return &wf, nil
}
