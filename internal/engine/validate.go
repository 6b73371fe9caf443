package engine

import (
	"fmt"

	"github.com/shaiso/flowgen/internal/domain"
)

// Validate выполняет структурную валидацию графа.
//
// Проверяет:
// - Наличие ID у узлов и рёбер
// - Уникальность ID узлов
// - Что рёбра ссылаются на существующие узлы
//
// Пустой граф валиден: его запуск просто ничего не выполняет.
// Циклы и неизвестные типы не являются ошибками, см. Lint.
func Validate(g *domain.Graph) error {
	if g == nil {
		return nil
	}

	nodeIDs := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.ID == "" {
			return NewValidationError("", "id",
				fmt.Sprintf("node %d has empty ID", i), ErrEmptyNodeID)
		}
		if nodeIDs[n.ID] {
			return NewValidationError(n.ID, "id",
				fmt.Sprintf("duplicate node ID: %s", n.ID), ErrDuplicateNodeID)
		}
		nodeIDs[n.ID] = true
	}

	for i := range g.Edges {
		e := &g.Edges[i]
		if !nodeIDs[e.Source] {
			return NewValidationError(e.ID, "source",
				fmt.Sprintf("edge source references unknown node: %s", e.Source), ErrDanglingEdge)
		}
		if !nodeIDs[e.Target] {
			return NewValidationError(e.ID, "target",
				fmt.Sprintf("edge target references unknown node: %s", e.Target), ErrDanglingEdge)
		}
	}

	return nil
}

// Lint возвращает предупреждения о графе, который выполнится,
// но, скорее всего, не так, как задумано:
// неизвестные типы узлов, рёбра условного узла без метки true/false,
// неизвестный оператор условия, циклы (узлы на цикле выполняются повторно)
// и узлы, недостижимые из точек входа (замкнутый цикл без входа не стартует).
func Lint(g *domain.Graph) []*ValidationError {
	if g == nil {
		return nil
	}

	var issues []*ValidationError
	plan := BuildPlan(g)

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !n.Kind.IsKnown() {
			issues = append(issues, NewValidationError(n.ID, "type",
				fmt.Sprintf("unknown node type %q runs as passthrough", n.Kind), ErrUnknownNodeKind))
		}
		if n.Kind.IsBranch() {
			op, _ := n.Config["operator"].(string)
			if _, ok := ParseOperator(op); !ok {
				issues = append(issues, NewValidationError(n.ID, "config.operator",
					fmt.Sprintf("unknown operator %q always evaluates to false", op), ErrInvalidOperator))
			}
		}
	}

	for _, e := range g.Edges {
		src := plan.Node(e.Source)
		if src == nil || !src.Kind.IsBranch() {
			continue
		}
		if e.SourceHandle != domain.HandleTrue && e.SourceHandle != domain.HandleFalse {
			issues = append(issues, NewValidationError(e.ID, "sourceHandle",
				fmt.Sprintf("edge from condition %s has handle %q and is never taken", e.Source, e.SourceHandle),
				ErrInvalidHandle))
		}
	}

	reachable := plan.Reachable()
	for i := range g.Nodes {
		if id := g.Nodes[i].ID; !reachable[id] {
			issues = append(issues, NewValidationError(id, "id",
				fmt.Sprintf("node %s is not reachable from any entry point and never runs", id), ErrUnreachableNode))
		}
	}

	if plan.HasCycle() {
		issues = append(issues, NewValidationError("", "edges",
			"graph contains a cycle, nodes on it re-execute until a branch stops them", ErrCyclicGraph))
	}

	return issues
}

// IsValidNodeKind проверяет, является ли тип узла допустимым.
func IsValidNodeKind(kind string) bool {
	_, ok := domain.ParseNodeKind(kind)
	return ok
}
