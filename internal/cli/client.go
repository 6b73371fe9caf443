package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shaiso/flowgen/internal/domain"
)

// --- Response types (повторяют api/dto.go, CLI не импортирует internal/api) ---

// WorkflowResponse — workflow из API.
type WorkflowResponse struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Graph     domain.Graph `json:"graph"`
	CreatedAt string       `json:"created_at"`
	UpdatedAt string       `json:"updated_at"`
}

// VersionResponse — версия workflow из API.
type VersionResponse struct {
	ID         string       `json:"id"`
	WorkflowID string       `json:"workflow_id"`
	Label      string       `json:"label"`
	Graph      domain.Graph `json:"graph"`
	CreatedAt  string       `json:"created_at"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID         string              `json:"id"`
	WorkflowID string              `json:"workflow_id,omitempty"`
	Status     string              `json:"status"`
	Nodes      []domain.Node       `json:"nodes"`
	Edges      []domain.Edge       `json:"edges,omitempty"`
	Stats      []domain.StatSample `json:"stats"`
	TotalMs    float64             `json:"total_ms"`
	Executions int                 `json:"executions"`
	StartedAt  string              `json:"started_at,omitempty"`
	FinishedAt string              `json:"finished_at,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  string              `json:"created_at"`
}

// TemplateSummary — шаблон в списке галереи.
type TemplateSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Nodes       int    `json:"nodes"`
}

// TemplateResponse — шаблон с графом.
type TemplateResponse struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Graph       domain.Graph `json:"graph"`
}

// --- Request types ---

// CreateWorkflowRequest — создание workflow.
type CreateWorkflowRequest struct {
	Name     string        `json:"name"`
	Graph    *domain.Graph `json:"graph,omitempty"`
	Template string        `json:"template,omitempty"`
}

// UpdateWorkflowRequest — обновление workflow.
type UpdateWorkflowRequest struct {
	Name  *string       `json:"name,omitempty"`
	Graph *domain.Graph `json:"graph,omitempty"`
}

// CreateVersionRequest — сохранение версии.
type CreateVersionRequest struct {
	Label string        `json:"label,omitempty"`
	Graph *domain.Graph `json:"graph,omitempty"`
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	WorkflowID string
	Status     string
	Limit      int
	Offset     int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для flowgen API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
//
// Таймаут больше обычного: POST /runs отвечает только после завершения run.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// --- Workflows ---

// ListWorkflows возвращает все workflows.
func (c *Client) ListWorkflows() ([]WorkflowResponse, error) {
	var workflows []WorkflowResponse
	err := c.list("/api/v1/workflows", nil, &workflows)
	return workflows, err
}

// CreateWorkflow создаёт workflow из графа или шаблона.
func (c *Client) CreateWorkflow(req CreateWorkflowRequest) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.post("/api/v1/workflows", req, &wf)
	return &wf, err
}

// GetWorkflow возвращает workflow по ID.
func (c *Client) GetWorkflow(id string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.get("/api/v1/workflows/"+id, &wf)
	return &wf, err
}

// UpdateWorkflow обновляет имя и/или граф workflow.
func (c *Client) UpdateWorkflow(id string, req UpdateWorkflowRequest) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.put("/api/v1/workflows/"+id, req, &wf)
	return &wf, err
}

// DeleteWorkflow удаляет workflow.
func (c *Client) DeleteWorkflow(id string) error {
	return c.delete("/api/v1/workflows/" + id)
}

// --- Versions ---

// ListVersions возвращает историю версий workflow.
func (c *Client) ListVersions(workflowID string) ([]VersionResponse, error) {
	var versions []VersionResponse
	err := c.list("/api/v1/workflows/"+workflowID+"/versions", nil, &versions)
	return versions, err
}

// CreateVersion сохраняет версию workflow.
func (c *Client) CreateVersion(workflowID string, req CreateVersionRequest) (*VersionResponse, error) {
	var version VersionResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/versions", req, &version)
	return &version, err
}

// RestoreVersion откатывает workflow к версии.
func (c *Client) RestoreVersion(versionID string) (*WorkflowResponse, error) {
	var wf WorkflowResponse
	err := c.post("/api/v1/versions/"+versionID+"/restore", nil, &wf)
	return &wf, err
}

// DeleteVersion удаляет версию.
func (c *Client) DeleteVersion(versionID string) error {
	return c.delete("/api/v1/versions/" + versionID)
}

// --- Runs ---

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.WorkflowID != "" {
		params.Set("workflow_id", opts.WorkflowID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}

	var runs []RunResponse
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// RunWorkflow выполняет сохранённый workflow.
func (c *Client) RunWorkflow(workflowID string) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/workflows/"+workflowID+"/runs", nil, &run)
	return &run, err
}

// RunGraph выполняет граф на сервере без сохранения workflow.
func (c *Client) RunGraph(graph *domain.Graph) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/runs", graph, &run)
	return &run, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// --- Generate ---

// Generate строит граф по текстовому описанию.
func (c *Client) Generate(description string) (*domain.Graph, error) {
	var graph domain.Graph
	body := map[string]string{"description": description}
	err := c.post("/api/v1/generate", body, &graph)
	return &graph, err
}

// --- Templates ---

// ListTemplates возвращает галерею шаблонов.
func (c *Client) ListTemplates() ([]TemplateSummary, error) {
	var list []TemplateSummary
	err := c.list("/api/v1/templates", nil, &list)
	return list, err
}

// GetTemplate возвращает шаблон по ID.
func (c *Client) GetTemplate(id string) (*TemplateResponse, error) {
	var tpl TemplateResponse
	err := c.get("/api/v1/templates/"+id, &tpl)
	return &tpl, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
