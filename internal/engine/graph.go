package engine

import (
	"github.com/shaiso/flowgen/internal/domain"
)

// Plan — предвычисленная структура графа для обхода.
//
// Рёбра не обязаны образовывать DAG: план строится для любого графа,
// циклы обнаруживаются отдельно через TopologicalOrder.
type Plan struct {
	// Nodes — узлы графа (nodeID → Node).
	Nodes map[string]*domain.Node

	// InDegree — количество входящих рёбер на узел.
	InDegree map[string]int

	// Outgoing — исходящие рёбра узла в порядке списка рёбер.
	Outgoing map[string][]domain.Edge

	// Starts — узлы без входящих рёбер (точки входа) в порядке списка узлов.
	Starts []string

	order []string
}

// BuildPlan строит план обхода.
//
// Входящая степень считается по всем рёбрам, target которых существует,
// независимо от того, существует ли source. При дублирующихся ID
// используется первый узел.
func BuildPlan(g *domain.Graph) *Plan {
	p := &Plan{
		Nodes:    make(map[string]*domain.Node, len(g.Nodes)),
		InDegree: make(map[string]int, len(g.Nodes)),
		Outgoing: make(map[string][]domain.Edge),
		order:    make([]string, 0, len(g.Nodes)),
	}

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if _, exists := p.Nodes[n.ID]; exists {
			continue
		}
		p.Nodes[n.ID] = n
		p.InDegree[n.ID] = 0
		p.order = append(p.order, n.ID)
	}

	for _, e := range g.Edges {
		if _, ok := p.Nodes[e.Target]; ok {
			p.InDegree[e.Target]++
		}
		p.Outgoing[e.Source] = append(p.Outgoing[e.Source], e)
	}

	for _, id := range p.order {
		if p.InDegree[id] == 0 {
			p.Starts = append(p.Starts, id)
		}
	}

	return p
}

// Node возвращает узел по ID или nil.
func (p *Plan) Node(id string) *domain.Node {
	return p.Nodes[id]
}

// Size возвращает количество узлов.
func (p *Plan) Size() int {
	return len(p.Nodes)
}

// Successors возвращает рёбра, по которым нужно пройти после успешного
// выполнения узла.
//
// Для условного узла остаются только рёбра с handle, совпадающим с результатом
// ("true"/"false"); у остальных узлов проходятся все исходящие рёбра.
func (p *Plan) Successors(nodeID string, branch bool, result bool) []domain.Edge {
	edges := p.Outgoing[nodeID]
	if !branch {
		return edges
	}

	want := domain.HandleFalse
	if result {
		want = domain.HandleTrue
	}

	selected := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		if e.SourceHandle == want {
			selected = append(selected, e)
		}
	}
	return selected
}

// TopologicalOrder выполняет топологическую сортировку (алгоритм Кана).
// Возвращает ErrCyclicGraph, если обнаружен цикл.
// Рёбра на несуществующие узлы игнорируются.
func (p *Plan) TopologicalOrder() ([]string, error) {
	// Копируем inDegree, чтобы не модифицировать оригинал
	inDegree := make(map[string]int, len(p.InDegree))
	for id := range p.Nodes {
		inDegree[id] = 0
	}
	for src, edges := range p.Outgoing {
		if _, ok := p.Nodes[src]; !ok {
			continue
		}
		for _, e := range edges {
			if _, ok := p.Nodes[e.Target]; ok {
				inDegree[e.Target]++
			}
		}
	}

	queue := make([]string, 0, len(p.order))
	for _, id := range p.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(p.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		for _, e := range p.Outgoing[id] {
			if _, ok := p.Nodes[e.Target]; !ok {
				continue
			}
			inDegree[e.Target]--
			if inDegree[e.Target] == 0 {
				queue = append(queue, e.Target)
			}
		}
	}

	// Если не все узлы обработаны — есть цикл
	if len(order) != len(p.order) {
		return nil, ErrCyclicGraph
	}

	return order, nil
}

// HasCycle возвращает true, если в графе есть цикл.
func (p *Plan) HasCycle() bool {
	_, err := p.TopologicalOrder()
	return err != nil
}

// Reachable возвращает множество узлов, достижимых из точек входа
// (без учёта результатов условий).
func (p *Plan) Reachable() map[string]bool {
	seen := make(map[string]bool, len(p.Nodes))
	stack := append([]string(nil), p.Starts...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		for _, e := range p.Outgoing[id] {
			if _, ok := p.Nodes[e.Target]; ok && !seen[e.Target] {
				stack = append(stack, e.Target)
			}
		}
	}
	return seen
}
