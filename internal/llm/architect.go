package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
)

// Architect строит граф workflow по текстовому описанию.
type Architect interface {
	GenerateWorkflow(ctx context.Context, description string) (*domain.Graph, error)
}

const architectPrompt = `You are an expert workflow automation architect.
Create a JSON structure for a node-based workflow based on this user description: %q.

AVAILABLE NODE TYPES (use only these):
1. 'webhook' (starts the flow. Config: { mockData: string with JSON })
2. 'ai_agent' (calls an LLM. Config: { prompt: string, model: 'gemini-2.5-flash' })
3. 'condition' (if/else. Config: { variable: string, operator: 'equals'|'not_equals'|'contains'|'greater_than'|'less_than', value: string })
4. 'http_request' (external API. Config: { url: string, method: 'GET'|'POST' })
5. 'javascript' (custom code, body of function(input). Config: { code: string })
6. 'delay' (pause. Config: { duration: milliseconds as string })
7. 'debug' (output logger. No config)

LAYOUT RULES:
- Start with a 'webhook' node at x: 100, y: 100.
- Space subsequent nodes horizontally by +400 pixels.
- When branching with 'condition', place the 'true' path at y: 100 and the 'false' path at y: 400.

RESPONSE FORMAT (strict JSON):
{
  "nodes": [
    { "id": "1", "type": "webhook", "position": { "x": 100, "y": 100 }, "data": { "label": "Start", "type": "webhook", "config": { "mockData": "{}" } } }
  ],
  "edges": [
    { "id": "e1-2", "source": "1", "target": "2" }
  ]
}
Edges leaving a 'condition' node must set sourceHandle to 'true' or 'false'.
Return ONLY raw JSON.`

// GenerateWorkflow реализует Architect.
func (g *Gemini) GenerateWorkflow(ctx context.Context, description string) (*domain.Graph, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: empty description", ErrWorkflowGeneration)
	}

	resp, err := g.models.GenerateContent(ctx, g.architectModel,
		genai.Text(fmt.Sprintf(architectPrompt, description)),
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		g.logger.Error("workflow generation failed", "model", g.architectModel, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrWorkflowGeneration, err)
	}

	return ParseWorkflow(resp.Text())
}

// ParseWorkflow разбирает ответ модели в граф.
//
// Снимает markdown-ограждения, если модель их добавила, приводит граф
// к поддерживаемому подмножеству (SanitizeGraph) и проверяет структуру.
func ParseWorkflow(text string) (*domain.Graph, error) {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		clean = "{}"
	}

	var g domain.Graph
	if err := json.Unmarshal([]byte(clean), &g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkflowGeneration, err)
	}

	SanitizeGraph(&g)
	if err := engine.Validate(&g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWorkflowGeneration, err)
	}
	return &g, nil
}

// SanitizeGraph приводит сгенерированный граф к тому, что умеет движок.
//
// Удаляются узлы неизвестных типов и узлы без ID (вместе с их рёбрами),
// рёбра на несуществующие узлы и повторы ID. Метка handle, отличная от
// "true"/"false", очищается. Пустые label и ID рёбер заполняются.
func SanitizeGraph(g *domain.Graph) {
	nodes := make([]domain.Node, 0, len(g.Nodes))
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" || seen[n.ID] || !n.Kind.IsKnown() {
			continue
		}
		seen[n.ID] = true
		if n.Label == "" {
			n.Label = string(n.Kind)
		}
		if n.Config == nil {
			n.Config = make(map[string]any)
		}
		n.Reset()
		nodes = append(nodes, n)
	}

	edges := make([]domain.Edge, 0, len(g.Edges))
	edgeIDs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if !seen[e.Source] || !seen[e.Target] {
			continue
		}
		if e.SourceHandle != domain.HandleTrue && e.SourceHandle != domain.HandleFalse {
			e.SourceHandle = ""
		}
		if e.ID == "" || edgeIDs[e.ID] {
			e.ID = fmt.Sprintf("e%s-%s%s", e.Source, e.Target, e.SourceHandle)
		}
		edgeIDs[e.ID] = true
		edges = append(edges, e)
	}

	g.Nodes = nodes
	g.Edges = edges
}
