package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/flowgen/internal/domain"
)

// Workflows — хранилище снимков workflow.
type Workflows interface {
	Create(ctx context.Context, wf *domain.Workflow) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error)
	List(ctx context.Context) ([]domain.Workflow, error)
	Update(ctx context.Context, wf *domain.Workflow) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Versions — история версий workflow.
type Versions interface {
	Create(ctx context.Context, v *domain.WorkflowVersion) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowVersion, error)
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowVersion, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Runs — завершённые runs.
type Runs interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter RunFilter) ([]domain.Run, error)
}

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	WorkflowID *uuid.UUID
	Status     domain.RunStatus
	Limit      int
	Offset     int
}

// DefaultRunLimit — размер страницы runs по умолчанию.
const DefaultRunLimit = 50

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return DefaultRunLimit
	}
	return f.Limit
}

// Store объединяет хранилища.
type Store struct {
	Workflows Workflows
	Versions  Versions
	Runs      Runs
}

// NewPostgresStore создаёт Store поверх PostgreSQL.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Workflows: NewWorkflowRepo(pool),
		Versions:  NewVersionRepo(pool),
		Runs:      NewRunRepo(pool),
	}
}

// NewMemoryStore создаёт Store в памяти процесса.
func NewMemoryStore() *Store {
	m := NewMemory()
	return &Store{
		Workflows: m.Workflows(),
		Versions:  m.Versions(),
		Runs:      m.Runs(),
	}
}
