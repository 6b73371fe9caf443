package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shaiso/flowgen/internal/engine"
)

// GenerateWorkflow строит граф по текстовому описанию.
// POST /api/v1/generate
//
// Граф не сохраняется: клиент решает, создать ли из него workflow.
func (h *Handler) GenerateWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.architect == nil {
		Unavailable(w, "workflow generation is not configured")
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		BadRequest(w, "description is required")
		return
	}

	graph, err := h.architect.GenerateWorkflow(r.Context(), req.Description)
	if err != nil {
		h.logger.Warn("workflow generation failed", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeGeneration, err.Error())
		return
	}

	if issues := engine.Lint(graph); len(issues) > 0 {
		h.logger.Debug("generated graph has lint issues", "issues", len(issues))
	}

	Success(w, graph)
}
