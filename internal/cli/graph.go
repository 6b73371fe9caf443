package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shaiso/flowgen/internal/domain"
)

// LoadGraph читает граф из JSON-файла; "-" означает stdin.
//
// Принимается как формат движка ({nodes, edges}), так и экспорт
// редактора, где тип и конфиг узла лежат в data.
func LoadGraph(path string) (*domain.Graph, error) {
	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	return ReadGraph(r)
}

// ReadGraph декодирует граф из r.
func ReadGraph(r io.Reader) (*domain.Graph, error) {
	var graph domain.Graph
	if err := json.NewDecoder(r).Decode(&graph); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return &graph, nil
}
