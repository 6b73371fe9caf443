package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
)

// ListVersions возвращает историю версий workflow, новые первыми.
// GET /api/v1/workflows/{id}/versions
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	if _, err := h.store.Workflows.GetByID(r.Context(), id); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	versions, err := h.store.Versions.ListByWorkflow(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]VersionResponse, len(versions))
	for i, v := range versions {
		result[i] = VersionFromDomain(v)
	}

	List(w, result, len(result))
}

// CreateVersion сохраняет текущий граф workflow как версию.
// POST /api/v1/workflows/{id}/versions
func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	// тело необязательно
	var req CreateVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	wf, err := h.store.Workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	now := time.Now()
	if req.Graph != nil {
		req.Graph.ResetStatuses()
		if HandleValidationError(w, engine.Validate(req.Graph)) {
			return
		}
		wf.Graph = *req.Graph
		wf.UpdatedAt = now
		if err := h.store.Workflows.Update(r.Context(), wf); HandleRepoError(w, h.logger, err, "workflow not found") {
			return
		}
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		label = domain.DefaultVersionLabel(now)
	}

	version := &domain.WorkflowVersion{
		ID:         uuid.New(),
		WorkflowID: wf.ID,
		Label:      label,
		Graph:      *wf.Graph.Clone(),
		CreatedAt:  now,
	}

	if err := h.store.Versions.Create(r.Context(), version); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	h.logger.Info("workflow version saved", "workflow_id", wf.ID, "version_id", version.ID, "label", label)
	Created(w, VersionFromDomain(*version))
}

// GetVersion возвращает версию по ID.
// GET /api/v1/versions/{id}
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid version id")
		return
	}

	v, err := h.store.Versions.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "version not found") {
		return
	}

	Success(w, VersionFromDomain(*v))
}

// DeleteVersion удаляет версию из истории.
// DELETE /api/v1/versions/{id}
func (h *Handler) DeleteVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid version id")
		return
	}

	if err := h.store.Versions.Delete(r.Context(), id); HandleRepoError(w, h.logger, err, "version not found") {
		return
	}

	NoContent(w)
}

// RestoreVersion заменяет граф workflow графом версии.
// POST /api/v1/versions/{id}/restore
func (h *Handler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid version id")
		return
	}

	v, err := h.store.Versions.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "version not found") {
		return
	}

	wf, err := h.store.Workflows.GetByID(r.Context(), v.WorkflowID)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	wf.Graph = v.Graph
	wf.UpdatedAt = time.Now()
	if err := h.store.Workflows.Update(r.Context(), wf); HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	h.logger.Info("workflow version restored", "workflow_id", wf.ID, "version_id", v.ID)
	Success(w, WorkflowFromDomain(*wf))
}
