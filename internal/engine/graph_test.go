package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/shaiso/flowgen/internal/domain"
)

func node(id string, kind domain.NodeKind) domain.Node {
	return domain.Node{ID: id, Kind: kind, Label: id}
}

func edge(src, dst string) domain.Edge {
	return domain.Edge{ID: src + "-" + dst, Source: src, Target: dst}
}

func TestBuildPlan_SimpleChain(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{node("A", domain.KindWebhook), node("B", domain.KindAIAgent), node("C", domain.KindDebug)},
		Edges: []domain.Edge{edge("A", "B"), edge("B", "C")},
	}

	plan := BuildPlan(g)

	assert.Equal(t, 3, plan.Size())
	assert.Equal(t, []string{"A"}, plan.Starts)
	assert.Equal(t, 0, plan.InDegree["A"])
	assert.Equal(t, 1, plan.InDegree["C"])
	require.Len(t, plan.Outgoing["A"], 1)
	assert.Equal(t, "B", plan.Outgoing["A"][0].Target)
}

func TestBuildPlan_NoEdges(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{node("x", domain.KindDebug), node("y", domain.KindDebug), node("z", domain.KindDelay)},
	}

	plan := BuildPlan(g)
	assert.Equal(t, []string{"x", "y", "z"}, plan.Starts)
}

func TestBuildPlan_DanglingEdges(t *testing.T) {
	// ребро из несуществующего узла всё равно делает target не-стартовым
	g := &domain.Graph{
		Nodes: []domain.Node{node("A", domain.KindWebhook), node("B", domain.KindDebug)},
		Edges: []domain.Edge{edge("ghost", "B"), edge("A", "nowhere")},
	}

	plan := BuildPlan(g)
	assert.Equal(t, []string{"A"}, plan.Starts)
	assert.Equal(t, 1, plan.InDegree["B"])
	assert.Nil(t, plan.Node("nowhere"))
}

func TestPlan_Successors(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{
			node("cond", domain.KindCondition),
			node("yes", domain.KindDebug),
			node("no", domain.KindDebug),
			node("odd", domain.KindDebug),
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "cond", Target: "yes", SourceHandle: "true"},
			{ID: "e2", Source: "cond", Target: "no", SourceHandle: "false"},
			{ID: "e3", Source: "cond", Target: "odd", SourceHandle: "maybe"},
		},
	}
	plan := BuildPlan(g)

	trueEdges := plan.Successors("cond", true, true)
	require.Len(t, trueEdges, 1)
	assert.Equal(t, "yes", trueEdges[0].Target)

	falseEdges := plan.Successors("cond", true, false)
	require.Len(t, falseEdges, 1)
	assert.Equal(t, "no", falseEdges[0].Target)

	// не условный узел проходит все рёбра независимо от handle
	assert.Len(t, plan.Successors("cond", false, false), 3)
}

func TestPlan_TopologicalOrder(t *testing.T) {
	// A → B → D
	// A → C → D
	g := &domain.Graph{
		Nodes: []domain.Node{node("A", ""), node("B", ""), node("C", ""), node("D", "")},
		Edges: []domain.Edge{edge("A", "B"), edge("A", "C"), edge("B", "D"), edge("C", "D")},
	}

	order, err := BuildPlan(g).TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 4)
	assert.Equal(t, "A", order[0])
	assert.Equal(t, "D", order[3])
}

func TestPlan_Cycle(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{node("A", ""), node("B", ""), node("C", "")},
		Edges: []domain.Edge{edge("A", "B"), edge("B", "C"), edge("C", "B")},
	}

	plan := BuildPlan(g)
	_, err := plan.TopologicalOrder()
	assert.True(t, errors.Is(err, ErrCyclicGraph))
	assert.True(t, plan.HasCycle())
	assert.Equal(t, map[string]bool{"A": true, "B": true, "C": true}, plan.Reachable())
}

func TestPlan_ClosedCycleHasNoStarts(t *testing.T) {
	g := &domain.Graph{
		Nodes: []domain.Node{node("A", ""), node("B", "")},
		Edges: []domain.Edge{edge("A", "B"), edge("B", "A")},
	}

	plan := BuildPlan(g)
	assert.Empty(t, plan.Starts)
	assert.Empty(t, plan.Reachable())
}

func TestBuildPlan_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "nodes")
		g := &domain.Graph{}
		for i := 0; i < n; i++ {
			g.Nodes = append(g.Nodes, node(string(rune('a'+i)), domain.KindDebug))
		}
		m := rapid.IntRange(0, 20).Draw(t, "edges")
		for i := 0; i < m; i++ {
			src := rapid.IntRange(0, n-1).Draw(t, "src")
			dst := rapid.IntRange(0, n-1).Draw(t, "dst")
			g.Edges = append(g.Edges, edge(g.Nodes[src].ID, g.Nodes[dst].ID))
		}

		plan := BuildPlan(g)

		total := 0
		for _, d := range plan.InDegree {
			total += d
		}
		if total != len(g.Edges) {
			t.Fatalf("indegree sum %d != edges %d", total, len(g.Edges))
		}
		for _, id := range plan.Starts {
			if plan.InDegree[id] != 0 {
				t.Fatalf("start node %s has indegree %d", id, plan.InDegree[id])
			}
		}
		// ацикличный граф всегда имеет хотя бы одну точку входа
		if !plan.HasCycle() && len(plan.Starts) == 0 {
			t.Fatalf("acyclic graph without start nodes")
		}
	})
}
