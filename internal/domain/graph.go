package domain

import (
	"encoding/json"
)

// Метки исходящего handle условного узла.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// Position — координаты узла на канвасе.
// Движок их не использует, только сохраняет.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node — узел графа.
//
// Config зависит от типа узла:
// - webhook: mockData
// - ai_agent: prompt, model
// - javascript: code
// - condition: variable, operator, value
// - delay: duration
// - http_request: url, method, headers, body
//
// Status, Output и Error — проекция последнего run, их пишет только orchestrator.
type Node struct {
	ID       string         `json:"id"`
	Kind     NodeKind       `json:"type"`
	Label    string         `json:"label,omitempty"`
	Config   map[string]any `json:"config,omitempty"`
	Position *Position      `json:"position,omitempty"`

	Status NodeStatus `json:"status,omitempty"`
	Output any        `json:"output,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// canvasData — поле data узла в формате редактора.
type canvasData struct {
	Label        string         `json:"label"`
	Type         string         `json:"type"`
	Config       map[string]any `json:"config"`
	Status       NodeStatus     `json:"status"`
	Output       any            `json:"output"`
	ErrorMessage string         `json:"errorMessage"`
}

// UnmarshalJSON принимает как плоский формат, так и формат канваса
// ({id, type, position, data: {label, type, config}}).
func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       string         `json:"id"`
		Type     string         `json:"type"`
		Label    string         `json:"label"`
		Config   map[string]any `json:"config"`
		Position *Position      `json:"position"`
		Status   NodeStatus     `json:"status"`
		Output   any            `json:"output"`
		Error    string         `json:"error"`
		Data     *canvasData    `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	n.ID = raw.ID
	n.Label = raw.Label
	n.Config = raw.Config
	n.Position = raw.Position
	n.Status = raw.Status
	n.Output = raw.Output
	n.Error = raw.Error

	kind := raw.Type
	if d := raw.Data; d != nil {
		if d.Type != "" {
			kind = d.Type
		}
		if n.Label == "" {
			n.Label = d.Label
		}
		if n.Config == nil {
			n.Config = d.Config
		}
		if n.Status == "" {
			n.Status = d.Status
		}
		if n.Output == nil {
			n.Output = d.Output
		}
		if n.Error == "" {
			n.Error = d.ErrorMessage
		}
	}
	n.Kind, _ = ParseNodeKind(kind)
	return nil
}

// DisplayName возвращает label, а при его отсутствии ID.
func (n *Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Reset сбрасывает проекцию run: статус idle, без output и ошибки.
func (n *Node) Reset() {
	n.Status = NodeStatusIdle
	n.Output = nil
	n.Error = ""
}

// Edge — направленная связь между узлами.
//
// SourceHandle имеет смысл только для условного узла: "true" или "false".
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// Graph — узлы и рёбра workflow.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node возвращает узел по ID или nil.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Clone возвращает копию графа.
//
// Config копируется поверхностно: значения считаются неизменяемыми.
// Output разделяется с оригиналом.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(c.Edges, g.Edges)
	for i, n := range g.Nodes {
		cn := n
		if n.Config != nil {
			cn.Config = make(map[string]any, len(n.Config))
			for k, v := range n.Config {
				cn.Config[k] = v
			}
		}
		if n.Position != nil {
			p := *n.Position
			cn.Position = &p
		}
		c.Nodes[i] = cn
	}
	return c
}

// ResetStatuses переводит все узлы в idle и очищает результаты.
func (g *Graph) ResetStatuses() {
	for i := range g.Nodes {
		g.Nodes[i].Reset()
	}
}
