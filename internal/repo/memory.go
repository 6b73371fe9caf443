package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/flowgen/internal/domain"
)

// Memory — хранилище в памяти процесса.
//
// Используется, когда DB_URL не задан, и в тестах. Повторяет поведение
// PostgreSQL схемы: удаление workflow удаляет его версии и отвязывает runs.
// Потокобезопасно. Возвращает копии, изменения вызывающего кода
// не попадают в хранилище.
type Memory struct {
	mu        sync.RWMutex
	workflows map[uuid.UUID]domain.Workflow
	versions  map[uuid.UUID]domain.WorkflowVersion
	runs      map[uuid.UUID]domain.Run
}

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		workflows: make(map[uuid.UUID]domain.Workflow),
		versions:  make(map[uuid.UUID]domain.WorkflowVersion),
		runs:      make(map[uuid.UUID]domain.Run),
	}
}

// Workflows возвращает хранилище workflows.
func (m *Memory) Workflows() Workflows { return memWorkflows{m} }

// Versions возвращает хранилище версий.
func (m *Memory) Versions() Versions { return memVersions{m} }

// Runs возвращает хранилище runs.
func (m *Memory) Runs() Runs { return memRuns{m} }

// --- Workflows ---

type memWorkflows struct{ m *Memory }

func (s memWorkflows) Create(ctx context.Context, wf *domain.Workflow) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, exists := s.m.workflows[wf.ID]; exists {
		return ErrAlreadyExists
	}
	s.m.workflows[wf.ID] = cloneWorkflow(*wf)
	return nil
}

func (s memWorkflows) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	wf, ok := s.m.workflows[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneWorkflow(wf)
	return &out, nil
}

func (s memWorkflows) List(ctx context.Context) ([]domain.Workflow, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := make([]domain.Workflow, 0, len(s.m.workflows))
	for _, wf := range s.m.workflows {
		out = append(out, cloneWorkflow(wf))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s memWorkflows) Update(ctx context.Context, wf *domain.Workflow) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	existing, ok := s.m.workflows[wf.ID]
	if !ok {
		return ErrNotFound
	}
	updated := cloneWorkflow(*wf)
	updated.CreatedAt = existing.CreatedAt
	s.m.workflows[wf.ID] = updated
	return nil
}

func (s memWorkflows) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.workflows[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.workflows, id)

	for vid, v := range s.m.versions {
		if v.WorkflowID == id {
			delete(s.m.versions, vid)
		}
	}
	for rid, r := range s.m.runs {
		if r.WorkflowID != nil && *r.WorkflowID == id {
			r.WorkflowID = nil
			s.m.runs[rid] = r
		}
	}
	return nil
}

// --- Versions ---

type memVersions struct{ m *Memory }

func (s memVersions) Create(ctx context.Context, v *domain.WorkflowVersion) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.workflows[v.WorkflowID]; !ok {
		return ErrNotFound
	}
	if _, exists := s.m.versions[v.ID]; exists {
		return ErrAlreadyExists
	}
	s.m.versions[v.ID] = cloneVersion(*v)
	return nil
}

func (s memVersions) GetByID(ctx context.Context, id uuid.UUID) (*domain.WorkflowVersion, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	v, ok := s.m.versions[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneVersion(v)
	return &out, nil
}

func (s memVersions) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]domain.WorkflowVersion, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var out []domain.WorkflowVersion
	for _, v := range s.m.versions {
		if v.WorkflowID == workflowID {
			out = append(out, cloneVersion(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s memVersions) Delete(ctx context.Context, id uuid.UUID) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if _, ok := s.m.versions[id]; !ok {
		return ErrNotFound
	}
	delete(s.m.versions, id)
	return nil
}

// --- Runs ---

type memRuns struct{ m *Memory }

func (s memRuns) Create(ctx context.Context, run *domain.Run) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if run.WorkflowID != nil {
		if _, ok := s.m.workflows[*run.WorkflowID]; !ok {
			return ErrNotFound
		}
	}
	if _, exists := s.m.runs[run.ID]; exists {
		return ErrAlreadyExists
	}
	s.m.runs[run.ID] = cloneRun(*run)
	return nil
}

func (s memRuns) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	run, ok := s.m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneRun(run)
	return &out, nil
}

func (s memRuns) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()

	var out []domain.Run
	for _, run := range s.m.runs {
		if wid := nullUUID(filter.WorkflowID); wid != nil {
			if run.WorkflowID == nil || *run.WorkflowID != *wid {
				continue
			}
		}
		if filter.Status != "" && run.Status != filter.Status {
			continue
		}
		out = append(out, cloneRun(run))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if limit := filter.limit(); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Helpers ---

func cloneWorkflow(wf domain.Workflow) domain.Workflow {
	wf.Graph = *wf.Graph.Clone()
	return wf
}

func cloneVersion(v domain.WorkflowVersion) domain.WorkflowVersion {
	v.Graph = *v.Graph.Clone()
	return v
}

func cloneRun(run domain.Run) domain.Run {
	g := (&domain.Graph{Nodes: run.Nodes, Edges: run.Edges}).Clone()
	run.Nodes, run.Edges = g.Nodes, g.Edges
	run.Stats = append([]domain.StatSample(nil), run.Stats...)
	if run.WorkflowID != nil {
		id := *run.WorkflowID
		run.WorkflowID = &id
	}
	return run
}
