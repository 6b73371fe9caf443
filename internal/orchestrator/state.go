package orchestrator

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
)

// runState — состояние обхода одного run.
//
// plan строится по собственной копии графа и только читается
// горутинами обхода. Проекция узлов принадлежит проектору.
type runState struct {
	runID uuid.UUID
	plan  *engine.Plan

	join          JoinPolicy
	maxExecutions int

	// events — канал к проектору. Закрывается после завершения обхода.
	events chan<- domain.NodeEvent

	mu       sync.Mutex
	admitted int
	visited  map[string]bool
	skipped  int
}

func newRunState(runID uuid.UUID, graph *domain.Graph, join JoinPolicy, maxExecutions int, events chan<- domain.NodeEvent) *runState {
	return &runState{
		runID:         runID,
		plan:          engine.BuildPlan(graph),
		join:          join,
		maxExecutions: maxExecutions,
		events:        events,
		visited:       make(map[string]bool),
	}
}

// admit решает, выполнять ли узел при очередном прибытии.
// Возвращает причину отказа, если узел пропускается.
func (s *runState) admit(nodeID string) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.join == JoinOnce && s.visited[nodeID] {
		s.skipped++
		return false, "already executed"
	}
	if s.maxExecutions > 0 && s.admitted >= s.maxExecutions {
		s.skipped++
		return false, "execution budget exhausted"
	}

	s.visited[nodeID] = true
	s.admitted++
	return true, ""
}

// Skipped возвращает количество отброшенных прибытий.
func (s *runState) Skipped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.skipped
}

func (s *runState) emit(event domain.NodeEvent) {
	event.RunID = s.runID
	s.events <- event
}
