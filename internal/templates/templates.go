package templates

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/shaiso/flowgen/internal/domain"
)

// DefaultID — шаблон, с которого начинается новый workflow.
const DefaultID = "default"

// ErrTemplateNotFound — шаблона с таким ID нет.
var ErrTemplateNotFound = errors.New("template not found")

//go:embed gallery/*.json
var gallery embed.FS

// Template — стартовый workflow из галереи.
type Template struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Graph       domain.Graph `json:"graph"`
}

// file — формат файла галереи: узлы в формате канваса.
type file struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Nodes       []domain.Node `json:"nodes"`
	Edges       []domain.Edge `json:"edges"`
}

var (
	loadOnce sync.Once
	loaded   map[string]Template
	loadErr  error
)

func load() (map[string]Template, error) {
	loadOnce.Do(func() {
		entries, err := gallery.ReadDir("gallery")
		if err != nil {
			loadErr = fmt.Errorf("read gallery: %w", err)
			return
		}

		loaded = make(map[string]Template, len(entries))
		for _, e := range entries {
			data, err := gallery.ReadFile(path.Join("gallery", e.Name()))
			if err != nil {
				loadErr = fmt.Errorf("read %s: %w", e.Name(), err)
				return
			}
			var f file
			if err := json.Unmarshal(data, &f); err != nil {
				loadErr = fmt.Errorf("parse %s: %w", e.Name(), err)
				return
			}
			loaded[f.ID] = Template{
				ID:          f.ID,
				Title:       f.Title,
				Description: f.Description,
				Graph:       domain.Graph{Nodes: f.Nodes, Edges: f.Edges},
			}
		}
	})
	return loaded, loadErr
}

// List возвращает шаблоны галереи, отсортированные по ID.
// Шаблон по умолчанию идёт первым.
func List() ([]Template, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}

	out := make([]Template, 0, len(all))
	for _, t := range all {
		out = append(out, clone(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID == DefaultID || out[j].ID == DefaultID {
			return out[i].ID == DefaultID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get возвращает копию шаблона по ID.
func Get(id string) (*Template, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	t, ok := all[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	c := clone(t)
	return &c, nil
}

// Default возвращает граф нового workflow.
func Default() *domain.Graph {
	t, err := Get(DefaultID)
	if err != nil {
		return &domain.Graph{}
	}
	return &t.Graph
}

func clone(t Template) Template {
	t.Graph = *t.Graph.Clone()
	return t
}
