package steps

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPStep_Kind(t *testing.T) {
	step := NewHTTPStep(false, nil)
	if step.Kind() != "http_request" {
		t.Errorf("expected 'http_request', got %s", step.Kind())
	}
}

func TestHTTPStep_PassthroughByDefault(t *testing.T) {
	step := NewHTTPStep(false, nil)
	input := map[string]any{"topic": "AI"}

	resp, err := step.Execute(context.Background(), &Request{
		NodeID: "h",
		Config: map[string]any{"url": "http://127.0.0.1:1/unreachable"},
		Input:  input,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, ok := resp.Output.(map[string]any)
	if !ok || out["topic"] != "AI" {
		t.Errorf("expected input to pass through, got %v", resp.Output)
	}
}

func TestHTTPStep_GET(t *testing.T) {
	// Создаём тестовый сервер
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"data":   []int{1, 2, 3},
		})
	}))
	defer server.Close()

	step := NewHTTPStep(true, nil)

	req := &Request{
		NodeID: "test",
		Config: map[string]any{
			"method": "GET",
			"url":    server.URL,
		},
	}

	resp, err := step.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := resp.Output.(map[string]any)

	// Проверяем status_code
	if out["status_code"] != float64(200) {
		t.Errorf("expected status_code 200, got %v", out["status_code"])
	}

	// Проверяем body
	body, ok := out["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected body to be map, got %T", out["body"])
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", body["status"])
	}
}

func TestHTTPStep_POST_TemplatedBody(t *testing.T) {
	var receivedBody map[string]any
	var receivedAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected Content-Type application/json")
		}
		receivedAuth = r.Header.Get("Authorization")

		json.NewDecoder(r.Body).Decode(&receivedBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 123})
	}))
	defer server.Close()

	step := NewHTTPStep(true, nil)

	req := &Request{
		NodeID: "test",
		Config: map[string]any{
			"method": "post",
			"url":    server.URL,
			"headers": map[string]any{
				"Authorization": "Bearer {{ .Input.token }}",
			},
			"body": map[string]any{
				"name": "{{ .Input.name }}",
			},
		},
		Input: map[string]any{"token": "secret123", "name": "test"},
	}

	resp, err := step.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Output.(map[string]any)["status_code"] != float64(201) {
		t.Errorf("expected status_code 201, got %v", resp.Output)
	}
	if receivedBody["name"] != "test" {
		t.Errorf("expected name 'test', got %v", receivedBody["name"])
	}
	if receivedAuth != "Bearer secret123" {
		t.Errorf("expected auth header, got %s", receivedAuth)
	}
}

func TestHTTPStep_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	step := NewHTTPStep(true, nil)
	_, err := step.Execute(context.Background(), &Request{
		NodeID: "test",
		Config: map[string]any{"url": server.URL},
	})
	if !IsHTTPError(err) {
		t.Fatalf("expected HTTPError, got %v", err)
	}

	var httpErr *HTTPError
	errors.As(err, &httpErr)
	if httpErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.StatusCode)
	}
}

func TestHTTPStep_InvalidConfig(t *testing.T) {
	step := NewHTTPStep(true, nil)

	req := &Request{
		NodeID: "test",
		Config: map[string]any{}, // Нет URL
	}

	_, err := step.Execute(context.Background(), req)
	if err == nil {
		t.Fatal("expected error for missing URL")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestHTTPStep_Cancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	step := NewHTTPStep(true, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req := &Request{
		NodeID: "test",
		Config: map[string]any{
			"url": server.URL,
		},
	}

	_, err := step.Execute(ctx, req)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if !errors.Is(err, ErrStepCancelled) {
		t.Errorf("expected ErrStepCancelled, got %v", err)
	}
}
