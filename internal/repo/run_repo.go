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

// RunRepo — репозиторий для работы с runs.
//
// Хранит итоговую проекцию run: узлы со статусами, телеметрию и рёбра.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create сохраняет run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	nodesJSON, err := json.Marshal(nonNil(run.Nodes))
	if err != nil {
		return fmt.Errorf("marshal nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(nonNil(run.Edges))
	if err != nil {
		return fmt.Errorf("marshal edges: %w", err)
	}
	statsJSON, err := json.Marshal(nonNil(run.Stats))
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	query := `
		INSERT INTO runs (id, workflow_id, status, nodes, edges, stats, total_ms,
		                  executions, started_at, finished_at, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		nullUUID(run.WorkflowID),
		run.Status,
		nodesJSON,
		edgesJSON,
		statsJSON,
		run.TotalMs,
		run.Executions,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", mapPgError(err))
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, workflow_id, status, nodes, edges, stats, total_ms,
		       executions, started_at, finished_at, error, created_at
		FROM runs
		WHERE id = $1
	`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// List возвращает список runs с фильтрацией, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT id, workflow_id, status, nodes, edges, stats, total_ms,
		       executions, started_at, finished_at, error, created_at
		FROM runs
		WHERE ($1::uuid IS NULL OR workflow_id = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.WorkflowID),
		nullString(string(filter.Status)),
		filter.limit(),
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// --- Helpers ---

// scanRun сканирует одну строку в Run.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var nodesJSON, edgesJSON, statsJSON []byte
	var runError *string

	err := row.Scan(
		&run.ID,
		&run.WorkflowID,
		&run.Status,
		&nodesJSON,
		&edgesJSON,
		&statsJSON,
		&run.TotalMs,
		&run.Executions,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if err := json.Unmarshal(nodesJSON, &run.Nodes); err != nil {
		return nil, fmt.Errorf("unmarshal nodes: %w", err)
	}
	if err := json.Unmarshal(edgesJSON, &run.Edges); err != nil {
		return nil, fmt.Errorf("unmarshal edges: %w", err)
	}
	if err := json.Unmarshal(statsJSON, &run.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	if runError != nil {
		run.Error = *runError
	}

	return &run, nil
}

// nonNil заменяет nil slice пустым, чтобы в JSONB попал [] вместо null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
