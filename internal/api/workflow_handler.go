package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
	"github.com/shaiso/flowgen/internal/templates"
)

// ListWorkflows возвращает список всех workflows.
// GET /api/v1/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.store.Workflows.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(workflows))
	for i, wf := range workflows {
		result[i] = WorkflowFromDomain(wf)
	}

	List(w, result, len(result))
}

// CreateWorkflow создаёт новый workflow.
// POST /api/v1/workflows
func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	graph := req.Graph
	if graph == nil {
		id := req.Template
		if id == "" {
			id = templates.DefaultID
		}
		tpl, err := templates.Get(id)
		if err != nil {
			if errors.Is(err, templates.ErrTemplateNotFound) {
				NotFound(w, "template not found")
				return
			}
			InternalError(w, h.logger, err)
			return
		}
		graph = &tpl.Graph
	}
	graph.ResetStatuses()

	if HandleValidationError(w, engine.Validate(graph)) {
		return
	}

	now := time.Now()
	wf := &domain.Workflow{
		ID:        uuid.New(),
		Name:      req.Name,
		Graph:     *graph,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Workflows.Create(r.Context(), wf); HandleRepoError(w, h.logger, err, "") {
		return
	}

	h.logger.Info("workflow created", "workflow_id", wf.ID, "nodes", len(wf.Graph.Nodes))
	Created(w, WorkflowFromDomain(*wf))
}

// GetWorkflow возвращает workflow по ID.
// GET /api/v1/workflows/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.store.Workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// UpdateWorkflow сохраняет имя и/или граф workflow.
// PUT /api/v1/workflows/{id}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	var req UpdateWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	wf, err := h.store.Workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(w, "name must not be empty")
			return
		}
		wf.Name = name
	}
	if req.Graph != nil {
		req.Graph.ResetStatuses()
		if HandleValidationError(w, engine.Validate(req.Graph)) {
			return
		}
		wf.Graph = *req.Graph
	}
	wf.UpdatedAt = time.Now()

	if err := h.store.Workflows.Update(r.Context(), wf); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*wf))
}

// DeleteWorkflow удаляет workflow вместе с историей версий.
// DELETE /api/v1/workflows/{id}
func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if err := h.store.Workflows.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	NoContent(w)
}
