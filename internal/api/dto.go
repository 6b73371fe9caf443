package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/templates"
)

// Workflow DTOs

// CreateWorkflowRequest — запрос на создание workflow.
//
// Без graph workflow создаётся из шаблона template
// (по умолчанию — стартовый граф).
type CreateWorkflowRequest struct {
	Name     string        `json:"name"`
	Graph    *domain.Graph `json:"graph,omitempty"`
	Template string        `json:"template,omitempty"`
}

// UpdateWorkflowRequest — запрос на обновление workflow.
type UpdateWorkflowRequest struct {
	Name  *string       `json:"name,omitempty"`
	Graph *domain.Graph `json:"graph,omitempty"`
}

// WorkflowResponse — ответ с workflow.
type WorkflowResponse struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Graph     domain.Graph `json:"graph"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// WorkflowFromDomain конвертирует domain.Workflow в WorkflowResponse.
func WorkflowFromDomain(wf domain.Workflow) WorkflowResponse {
	return WorkflowResponse{
		ID:        wf.ID,
		Name:      wf.Name,
		Graph:     wf.Graph,
		CreatedAt: wf.CreatedAt,
		UpdatedAt: wf.UpdatedAt,
	}
}

// Version DTOs

// CreateVersionRequest — запрос на сохранение версии.
//
// Если передан graph, он сначала сохраняется как текущий снимок workflow.
type CreateVersionRequest struct {
	Label string        `json:"label,omitempty"`
	Graph *domain.Graph `json:"graph,omitempty"`
}

// VersionResponse — ответ с версией.
type VersionResponse struct {
	ID         uuid.UUID    `json:"id"`
	WorkflowID uuid.UUID    `json:"workflow_id"`
	Label      string       `json:"label"`
	Graph      domain.Graph `json:"graph"`
	CreatedAt  time.Time    `json:"created_at"`
}

// VersionFromDomain конвертирует domain.WorkflowVersion в VersionResponse.
func VersionFromDomain(v domain.WorkflowVersion) VersionResponse {
	return VersionResponse{
		ID:         v.ID,
		WorkflowID: v.WorkflowID,
		Label:      v.Label,
		Graph:      v.Graph,
		CreatedAt:  v.CreatedAt,
	}
}

// Run DTOs

// RunResponse — ответ с run.
type RunResponse struct {
	ID         uuid.UUID           `json:"id"`
	WorkflowID *uuid.UUID          `json:"workflow_id,omitempty"`
	Status     string              `json:"status"`
	Nodes      []domain.Node       `json:"nodes"`
	Edges      []domain.Edge       `json:"edges,omitempty"`
	Stats      []domain.StatSample `json:"stats"`
	TotalMs    float64             `json:"total_ms"`
	Executions int                 `json:"executions"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(r domain.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		WorkflowID: r.WorkflowID,
		Status:     string(r.Status),
		Nodes:      r.Nodes,
		Edges:      r.Edges,
		Stats:      r.Stats,
		TotalMs:    r.TotalMs,
		Executions: r.Executions,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Error:      r.Error,
		CreatedAt:  r.CreatedAt,
	}
}

// Generate DTOs

// GenerateRequest — запрос на генерацию графа по описанию.
type GenerateRequest struct {
	Description string `json:"description"`
}

// Template DTOs

// TemplateSummary — шаблон в списке галереи.
type TemplateSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Nodes       int    `json:"nodes"`
}

// TemplateSummaryFrom конвертирует шаблон в TemplateSummary.
func TemplateSummaryFrom(t templates.Template) TemplateSummary {
	return TemplateSummary{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Nodes:       len(t.Graph.Nodes),
	}
}
