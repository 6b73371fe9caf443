package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/llm"
	"github.com/shaiso/flowgen/internal/orchestrator"
	"github.com/shaiso/flowgen/internal/repo"
	"github.com/shaiso/flowgen/internal/steps"
	"github.com/shaiso/flowgen/internal/telemetry"
)

// --- helpers ---

type architectFunc func(ctx context.Context, description string) (*domain.Graph, error)

func (f architectFunc) GenerateWorkflow(ctx context.Context, description string) (*domain.Graph, error) {
	return f(ctx, description)
}

type runnerFunc func(ctx context.Context, graph *domain.Graph, opts ...orchestrator.RunOption) (*domain.Run, error)

func (f runnerFunc) Run(ctx context.Context, graph *domain.Graph, opts ...orchestrator.RunOption) (*domain.Run, error) {
	return f(ctx, graph, opts...)
}

func newOrchestrator(t *testing.T) *orchestrator.Orchestrator {
	t.Helper()
	o, err := orchestrator.New(orchestrator.Config{
		Registry: steps.DefaultRegistry(steps.WithGenerator(llm.Offline{})),
		Logger:   telemetry.Discard(),
	})
	require.NoError(t, err)
	return o
}

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	if cfg.Store == nil {
		cfg.Store = repo.NewMemoryStore()
	}
	if cfg.Logger == nil {
		cfg.Logger = telemetry.Discard()
	}
	mux := http.NewServeMux()
	NewHandler(cfg).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(t.Context(), method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeData[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var env struct {
		Data  T   `json:"data"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}

func decodeError(t *testing.T, resp *http.Response) ErrorDetail {
	t.Helper()
	var env ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Error
}

func createWorkflow(t *testing.T, srv *httptest.Server, req CreateWorkflowRequest) WorkflowResponse {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/v1/workflows", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeData[WorkflowResponse](t, resp)
}

func branchGraph(amount float64) *domain.Graph {
	return &domain.Graph{
		Nodes: []domain.Node{
			{ID: "start", Kind: domain.KindWebhook, Label: "Start", Config: map[string]any{
				"mockData": fmt.Sprintf(`{"amount": %v}`, amount),
			}},
			{ID: "check", Kind: domain.KindCondition, Label: "Check", Config: map[string]any{
				"variable": "amount", "operator": "greater_than", "value": "100",
			}},
			{ID: "big", Kind: domain.KindDebug, Label: "Big"},
			{ID: "small", Kind: domain.KindDebug, Label: "Small"},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "check"},
			{ID: "e2", Source: "check", Target: "big", SourceHandle: domain.HandleTrue},
			{ID: "e3", Source: "check", Target: "small", SourceHandle: domain.HandleFalse},
		},
	}
}

// --- workflows ---

func TestWorkflowLifecycle(t *testing.T) {
	srv := newTestServer(t, Config{})

	wf := createWorkflow(t, srv, CreateWorkflowRequest{Name: "  Intro  "})
	assert.Equal(t, "Intro", wf.Name)
	assert.Len(t, wf.Graph.Nodes, 2, "default template graph")

	resp := do(t, srv, http.MethodGet, "/api/v1/workflows/"+wf.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeData[WorkflowResponse](t, resp)
	assert.Equal(t, wf.ID, got.ID)

	name := "Renamed"
	resp = do(t, srv, http.MethodPut, "/api/v1/workflows/"+wf.ID.String(), UpdateWorkflowRequest{
		Name:  &name,
		Graph: branchGraph(10),
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeData[WorkflowResponse](t, resp)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Len(t, updated.Graph.Nodes, 4)
	assert.False(t, updated.UpdatedAt.Before(wf.UpdatedAt))

	resp = do(t, srv, http.MethodGet, "/api/v1/workflows", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[[]WorkflowResponse](t, resp), 1)

	resp = do(t, srv, http.MethodDelete, "/api/v1/workflows/"+wf.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/workflows/"+wf.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, ErrCodeNotFound, decodeError(t, resp).Code)
}

func TestCreateWorkflow_FromTemplate(t *testing.T) {
	srv := newTestServer(t, Config{})

	wf := createWorkflow(t, srv, CreateWorkflowRequest{Name: "Approval", Template: "approval"})
	assert.NotEmpty(t, wf.Graph.Nodes)
	for _, n := range wf.Graph.Nodes {
		assert.Equal(t, domain.NodeStatusIdle, n.Status, "node %s", n.ID)
	}
}

func TestCreateWorkflow_Errors(t *testing.T) {
	srv := newTestServer(t, Config{})

	tests := []struct {
		name   string
		body   any
		status int
		code   ErrorCode
	}{
		{"malformed body", "{", http.StatusBadRequest, ErrCodeBadRequest},
		{"missing name", CreateWorkflowRequest{}, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown template", CreateWorkflowRequest{Name: "x", Template: "nope"}, http.StatusNotFound, ErrCodeNotFound},
		{
			"dangling edge",
			CreateWorkflowRequest{Name: "x", Graph: &domain.Graph{
				Nodes: []domain.Node{{ID: "a", Kind: domain.KindDebug}},
				Edges: []domain.Edge{{ID: "e", Source: "a", Target: "ghost"}},
			}},
			http.StatusUnprocessableEntity, ErrCodeValidation,
		},
		{
			"duplicate node",
			CreateWorkflowRequest{Name: "x", Graph: &domain.Graph{
				Nodes: []domain.Node{{ID: "a", Kind: domain.KindDebug}, {ID: "a", Kind: domain.KindDebug}},
			}},
			http.StatusUnprocessableEntity, ErrCodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/v1/workflows", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Code)
		})
	}
}

func TestWorkflow_InvalidID(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := do(t, srv, http.MethodGet, "/api/v1/workflows/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// --- versions ---

func TestVersions_SaveAndRestore(t *testing.T) {
	srv := newTestServer(t, Config{})
	wf := createWorkflow(t, srv, CreateWorkflowRequest{Name: "Flow"})
	base := "/api/v1/workflows/" + wf.ID.String()

	resp := do(t, srv, http.MethodPost, base+"/versions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decodeData[VersionResponse](t, resp)
	assert.True(t, strings.HasPrefix(first.Label, "Auto-save "), first.Label)
	assert.Len(t, first.Graph.Nodes, 2)

	resp = do(t, srv, http.MethodPost, base+"/versions", CreateVersionRequest{
		Label: "branching",
		Graph: branchGraph(500),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	second := decodeData[VersionResponse](t, resp)
	assert.Equal(t, "branching", second.Label)

	resp = do(t, srv, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[WorkflowResponse](t, resp).Graph.Nodes, 4, "snapshot saved with the version")

	resp = do(t, srv, http.MethodGet, base+"/versions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[[]VersionResponse](t, resp), 2)

	resp = do(t, srv, http.MethodPost, "/api/v1/versions/"+first.ID.String()+"/restore", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restored := decodeData[WorkflowResponse](t, resp)
	assert.Len(t, restored.Graph.Nodes, 2)

	resp = do(t, srv, http.MethodDelete, "/api/v1/versions/"+second.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/versions/"+second.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVersions_UnknownWorkflow(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := do(t, srv, http.MethodPost, "/api/v1/workflows/00000000-0000-0000-0000-000000000001/versions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/workflows/00000000-0000-0000-0000-000000000001/versions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- runs ---

func TestRunWorkflow(t *testing.T) {
	srv := newTestServer(t, Config{Runner: newOrchestrator(t)})
	wf := createWorkflow(t, srv, CreateWorkflowRequest{Name: "Intro"})

	resp := do(t, srv, http.MethodPost, "/api/v1/workflows/"+wf.ID.String()+"/runs", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	run := decodeData[RunResponse](t, resp)

	assert.Equal(t, string(domain.RunStatusCompleted), run.Status)
	require.NotNil(t, run.WorkflowID)
	assert.Equal(t, wf.ID, *run.WorkflowID)
	assert.Equal(t, 2, run.Executions)
	assert.Len(t, run.Stats, 2)

	var ai *domain.Node
	for i := range run.Nodes {
		if run.Nodes[i].ID == "2" {
			ai = &run.Nodes[i]
		}
	}
	require.NotNil(t, ai)
	assert.Equal(t, domain.NodeStatusSuccess, ai.Status)
	out, ok := ai.Output.(map[string]any)
	require.True(t, ok, "ai output is an object")
	assert.Contains(t, out["result"], "offline")

	resp = do(t, srv, http.MethodGet, "/api/v1/runs/"+run.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, run.ID, decodeData[RunResponse](t, resp).ID)

	resp = do(t, srv, http.MethodGet, "/api/v1/runs?workflow_id="+wf.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[[]RunResponse](t, resp), 1)

	resp = do(t, srv, http.MethodGet, "/api/v1/workflows/"+wf.ID.String(), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, n := range decodeData[WorkflowResponse](t, resp).Graph.Nodes {
		assert.Equal(t, domain.NodeStatusIdle, n.Status, "stored snapshot is not touched by runs")
	}
}

func TestRunGraph_Branches(t *testing.T) {
	srv := newTestServer(t, Config{Runner: newOrchestrator(t)})

	tests := []struct {
		amount      float64
		taken, idle string
	}{
		{amount: 500, taken: "big", idle: "small"},
		{amount: 50, taken: "small", idle: "big"},
	}

	for _, tt := range tests {
		t.Run(tt.taken, func(t *testing.T) {
			resp := do(t, srv, http.MethodPost, "/api/v1/runs", branchGraph(tt.amount))
			require.Equal(t, http.StatusCreated, resp.StatusCode)
			run := decodeData[RunResponse](t, resp)

			assert.Nil(t, run.WorkflowID)
			status := map[string]domain.NodeStatus{}
			for _, n := range run.Nodes {
				status[n.ID] = n.Status
			}
			assert.Equal(t, domain.NodeStatusSuccess, status[tt.taken])
			assert.Equal(t, domain.NodeStatusIdle, status[tt.idle])
		})
	}

	resp := do(t, srv, http.MethodGet, "/api/v1/runs?status=completed&limit=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[[]RunResponse](t, resp), 1)
}

func TestRunGraph_Invalid(t *testing.T) {
	srv := newTestServer(t, Config{Runner: newOrchestrator(t)})

	resp := do(t, srv, http.MethodPost, "/api/v1/runs", "not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/v1/runs", domain.Graph{
		Edges: []domain.Edge{{ID: "e", Source: "a", Target: "b"}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRun_InProgress(t *testing.T) {
	runner := runnerFunc(func(ctx context.Context, graph *domain.Graph, opts ...orchestrator.RunOption) (*domain.Run, error) {
		return nil, orchestrator.ErrRunInProgress
	})
	srv := newTestServer(t, Config{Runner: runner})

	resp := do(t, srv, http.MethodPost, "/api/v1/runs", branchGraph(1))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, ErrCodeRunInProgress, decodeError(t, resp).Code)
}

func TestRun_NoRunner(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := do(t, srv, http.MethodPost, "/api/v1/runs", branchGraph(1))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, ErrCodeUnavailable, decodeError(t, resp).Code)
}

func TestListRuns_BadQuery(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, q := range []string{"workflow_id=zzz", "limit=abc", "offset=-1"} {
		t.Run(q, func(t *testing.T) {
			resp := do(t, srv, http.MethodGet, "/api/v1/runs?"+q, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := do(t, srv, http.MethodGet, "/api/v1/runs/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- generate ---

func TestGenerateWorkflow(t *testing.T) {
	architect := architectFunc(func(ctx context.Context, description string) (*domain.Graph, error) {
		if strings.Contains(description, "fail") {
			return nil, fmt.Errorf("%w: model returned garbage", llm.ErrWorkflowGeneration)
		}
		return branchGraph(1), nil
	})
	srv := newTestServer(t, Config{Architect: architect})

	resp := do(t, srv, http.MethodPost, "/api/v1/generate", GenerateRequest{Description: "route big orders"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[domain.Graph](t, resp).Nodes, 4)

	resp = do(t, srv, http.MethodPost, "/api/v1/generate", GenerateRequest{Description: "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/api/v1/generate", GenerateRequest{Description: "please fail"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	detail := decodeError(t, resp)
	assert.Equal(t, ErrCodeGeneration, detail.Code)
	assert.Contains(t, detail.Message, llm.ErrWorkflowGeneration.Error())
}

func TestGenerateWorkflow_NotConfigured(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := do(t, srv, http.MethodPost, "/api/v1/generate", GenerateRequest{Description: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

// --- templates ---

func TestTemplates(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := do(t, srv, http.MethodGet, "/api/v1/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeData[[]TemplateSummary](t, resp)
	require.NotEmpty(t, list)
	assert.Equal(t, "default", list[0].ID)

	resp = do(t, srv, http.MethodGet, "/api/v1/templates/sentiment", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeData[templateProbe](t, resp).Graph.Nodes)

	resp = do(t, srv, http.MethodGet, "/api/v1/templates/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// templateProbe повторяет форму templates.Template для декодирования ответа.
type templateProbe struct {
	ID    string       `json:"id"`
	Graph domain.Graph `json:"graph"`
}

// --- middleware ---

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp := do(t, srv, http.MethodOptions, "/api/v1/workflows", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCountRequests(t *testing.T) {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_api_requests_total",
	}, []string{"method", "status"})
	srv := newTestServer(t, Config{Requests: requests})

	do(t, srv, http.MethodGet, "/api/v1/workflows", nil)
	do(t, srv, http.MethodGet, "/api/v1/workflows", nil)
	do(t, srv, http.MethodGet, "/api/v1/runs/00000000-0000-0000-0000-000000000000", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("GET", "404")))
}

func TestRecovery(t *testing.T) {
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("boom"))
	})
	h = Chain(Recovery(telemetry.Discard()), Logging(telemetry.Discard()))(h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
