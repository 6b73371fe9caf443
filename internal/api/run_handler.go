package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
	"github.com/shaiso/flowgen/internal/orchestrator"
	"github.com/shaiso/flowgen/internal/repo"
)

// RunWorkflow выполняет сохранённый workflow и возвращает итоговый run.
// POST /api/v1/workflows/{id}/runs
func (h *Handler) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		Unavailable(w, "execution is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid workflow id")
		return
	}

	wf, err := h.store.Workflows.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	h.execute(w, r, &wf.Graph, orchestrator.WithWorkflowID(wf.ID))
}

// RunGraph выполняет граф из тела запроса без сохранения workflow.
// POST /api/v1/runs
func (h *Handler) RunGraph(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		Unavailable(w, "execution is not configured")
		return
	}

	var graph domain.Graph
	if err := json.NewDecoder(r.Body).Decode(&graph); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if HandleValidationError(w, engine.Validate(&graph)) {
		return
	}

	h.execute(w, r, &graph)
}

// execute запускает граф синхронно и сохраняет результат.
func (h *Handler) execute(w http.ResponseWriter, r *http.Request, graph *domain.Graph, opts ...orchestrator.RunOption) {
	run, err := h.runner.Run(r.Context(), graph, opts...)
	if HandleRunError(w, h.logger, err) {
		return
	}

	// run сохраняется и при отключившемся клиенте
	if err := h.store.Runs.Create(context.WithoutCancel(r.Context()), run); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("run finished",
		"run_id", run.ID,
		"status", run.Status,
		"executions", run.Executions,
		"total_ms", run.TotalMs,
	)
	Created(w, RunFromDomain(*run))
}

// ListRuns возвращает runs с фильтрацией.
// GET /api/v1/runs?workflow_id=...&status=...&limit=...&offset=...
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter repo.RunFilter
	if v := q.Get("workflow_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			BadRequest(w, "invalid workflow_id")
			return
		}
		filter.WorkflowID = &id
	}
	if v := q.Get("status"); v != "" {
		filter.Status = domain.RunStatus(strings.ToUpper(v))
	}

	var err error
	if filter.Limit, err = queryInt(q.Get("limit")); err != nil {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = queryInt(q.Get("offset")); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	runs, err := h.store.Runs.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]RunResponse, len(runs))
	for i, run := range runs {
		result[i] = RunFromDomain(run)
	}

	List(w, result, len(result))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, err := h.store.Runs.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "run not found") {
		return
	}

	Success(w, RunFromDomain(*run))
}

// queryInt разбирает неотрицательное целое из query; пустая строка даёт 0.
func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
