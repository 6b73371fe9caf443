package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
		CountRequests(h.requests),
		CORS("*"),
	)

	// Workflows
	mux.Handle("GET /api/v1/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("POST /api/v1/workflows", chain(http.HandlerFunc(h.CreateWorkflow)))
	mux.Handle("GET /api/v1/workflows/{id}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("PUT /api/v1/workflows/{id}", chain(http.HandlerFunc(h.UpdateWorkflow)))
	mux.Handle("DELETE /api/v1/workflows/{id}", chain(http.HandlerFunc(h.DeleteWorkflow)))

	// Versions
	mux.Handle("GET /api/v1/workflows/{id}/versions", chain(http.HandlerFunc(h.ListVersions)))
	mux.Handle("POST /api/v1/workflows/{id}/versions", chain(http.HandlerFunc(h.CreateVersion)))
	mux.Handle("GET /api/v1/versions/{id}", chain(http.HandlerFunc(h.GetVersion)))
	mux.Handle("DELETE /api/v1/versions/{id}", chain(http.HandlerFunc(h.DeleteVersion)))
	mux.Handle("POST /api/v1/versions/{id}/restore", chain(http.HandlerFunc(h.RestoreVersion)))

	// Runs
	mux.Handle("GET /api/v1/runs", chain(http.HandlerFunc(h.ListRuns)))
	mux.Handle("POST /api/v1/runs", chain(http.HandlerFunc(h.RunGraph)))
	mux.Handle("POST /api/v1/workflows/{id}/runs", chain(http.HandlerFunc(h.RunWorkflow)))
	mux.Handle("GET /api/v1/runs/{id}", chain(http.HandlerFunc(h.GetRun)))

	// AI
	mux.Handle("POST /api/v1/generate", chain(http.HandlerFunc(h.GenerateWorkflow)))

	// Templates
	mux.Handle("GET /api/v1/templates", chain(http.HandlerFunc(h.ListTemplates)))
	mux.Handle("GET /api/v1/templates/{id}", chain(http.HandlerFunc(h.GetTemplate)))

	// Preflight для всех путей API
	mux.Handle("OPTIONS /api/v1/", chain(http.NotFoundHandler()))
}
