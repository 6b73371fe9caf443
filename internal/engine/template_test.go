package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestNewContext(t *testing.T) {
	// С nil input
	ctx := NewContext(nil)
	if ctx.Input == nil {
		t.Error("Input should not be nil")
	}

	// С input
	ctx = NewContext(map[string]any{"key": "value"})
	input, ok := ctx.Input.(map[string]any)
	if !ok || input["key"] != "value" {
		t.Error("Input should contain provided values")
	}
}

func TestContext_WithNode(t *testing.T) {
	ctx := NewContext(nil).WithNode("n1", "Summarizer")

	result, err := Render("{{ .Node.Label }} ({{ .Node.ID }})", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Summarizer (n1)" {
		t.Errorf("expected node metadata, got %q", result)
	}
}

func TestRender_SimpleInput(t *testing.T) {
	ctx := NewContext(map[string]any{
		"name":  "test",
		"count": 42,
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "string input",
			template: "Hello, {{ .Input.name }}!",
			expected: "Hello, test!",
		},
		{
			name:     "number input",
			template: "Count: {{ .Input.count }}",
			expected: "Count: 42",
		},
		{
			name:     "no template",
			template: "Plain text",
			expected: "Plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRender_NestedInput(t *testing.T) {
	ctx := NewContext(map[string]any{
		"data": map[string]any{
			"items": []any{"a", "b", "c"},
			"count": 3,
		},
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "nested access",
			template: "{{ .Input.data.count }}",
			expected: "3",
		},
		{
			name:     "index",
			template: "{{ index .Input.data.items 1 }}",
			expected: "b",
		},
		{
			name:     "whole input as json",
			template: "{{ json .Input.data.items }}",
			expected: `["a","b","c"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRender_NonMapInput(t *testing.T) {
	ctx := NewContext("plain string")

	result, err := Render("got {{ .Input }}", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "got plain string" {
		t.Errorf("expected rendered scalar input, got %q", result)
	}
}

func TestRender_TemplateFunctions(t *testing.T) {
	ctx := NewContext(map[string]any{
		"text": "Hello World",
		"list": []any{"a", "b", "c"},
	})

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{
			name:     "lower",
			template: "{{ lower .Input.text }}",
			expected: "hello world",
		},
		{
			name:     "upper",
			template: "{{ upper .Input.text }}",
			expected: "HELLO WORLD",
		},
		{
			name:     "contains",
			template: "{{ contains .Input.text \"World\" }}",
			expected: "true",
		},
		{
			name:     "hasPrefix",
			template: "{{ hasPrefix .Input.text \"Hello\" }}",
			expected: "true",
		},
		{
			name:     "default with value",
			template: "{{ default \"fallback\" .Input.text }}",
			expected: "Hello World",
		},
		{
			name:     "default with nil",
			template: "{{ default \"fallback\" .Input.missing }}",
			expected: "fallback",
		},
		{
			name:     "json",
			template: `{{ json .Input.list }}`,
			expected: `["a","b","c"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Render(tt.template, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestRender_InvalidTemplate(t *testing.T) {
	ctx := NewContext(nil)

	// Некорректный синтаксис
	_, err := Render("{{ .Invalid syntax", ctx)
	if err == nil {
		t.Error("expected error for invalid template")
	}
	if !strings.Contains(err.Error(), "template parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestRenderValue(t *testing.T) {
	ctx := NewContext(map[string]any{"name": "test"})

	tests := []struct {
		name     string
		value    any
		expected any
	}{
		{
			name:     "nil",
			value:    nil,
			expected: nil,
		},
		{
			name:     "string without template",
			value:    "plain",
			expected: "plain",
		},
		{
			name:     "string with template",
			value:    "Hello, {{ .Input.name }}",
			expected: "Hello, test",
		},
		{
			name:     "int",
			value:    42,
			expected: 42,
		},
		{
			name:     "bool",
			value:    true,
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RenderValue(tt.value, ctx)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestRenderValue_Map(t *testing.T) {
	ctx := NewContext(map[string]any{
		"name": "test",
		"url":  "https://example.com",
	})

	value := map[string]any{
		"method": "POST",
		"url":    "{{ .Input.url }}/api",
		"body": map[string]any{
			"name": "{{ .Input.name }}",
		},
	}

	result, err := RenderValue(value, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resultMap, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", result)
	}

	if resultMap["url"] != "https://example.com/api" {
		t.Errorf("expected rendered url, got %v", resultMap["url"])
	}

	body, ok := resultMap["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected body to be map")
	}
	if body["name"] != "test" {
		t.Errorf("expected rendered name, got %v", body["name"])
	}
}

func TestRenderValue_Slice(t *testing.T) {
	ctx := NewContext(map[string]any{"prefix": "item"})

	value := []any{
		"{{ .Input.prefix }}_1",
		"{{ .Input.prefix }}_2",
		42,
	}

	result, err := RenderValue(value, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resultSlice, ok := result.([]any)
	if !ok {
		t.Fatalf("expected slice, got %T", result)
	}

	if len(resultSlice) != 3 {
		t.Errorf("expected 3 items, got %d", len(resultSlice))
	}
	if resultSlice[0] != "item_1" {
		t.Errorf("expected item_1, got %v", resultSlice[0])
	}
	if resultSlice[1] != "item_2" {
		t.Errorf("expected item_2, got %v", resultSlice[1])
	}
	if resultSlice[2] != 42 {
		t.Errorf("expected 42, got %v", resultSlice[2])
	}
}

func TestRenderConfig(t *testing.T) {
	ctx := NewContext(map[string]any{
		"api_url": "https://api.example.com",
		"token":   "secret123",
	})

	config := map[string]any{
		"method": "GET",
		"url":    "{{ .Input.api_url }}/users",
		"headers": map[string]any{
			"Authorization": "Bearer {{ .Input.token }}",
		},
	}

	result, err := RenderConfig(config, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result["url"] != "https://api.example.com/users" {
		t.Errorf("expected rendered url")
	}

	headers, ok := result["headers"].(map[string]any)
	if !ok {
		t.Fatal("expected headers to be map")
	}
	if headers["Authorization"] != "Bearer secret123" {
		t.Errorf("expected rendered auth header")
	}
}

func TestRenderConfig_Nil(t *testing.T) {
	ctx := NewContext(nil)

	result, err := RenderConfig(nil, ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Error("result should not be nil")
	}
	if len(result) != 0 {
		t.Error("result should be empty")
	}
}

func TestRenderConfig_ErrorNamesKey(t *testing.T) {
	ctx := NewContext(map[string]any{})

	_, err := RenderConfig(map[string]any{
		"headers": map[string]any{"X-Trace": "{{ .Input"},
	}, ctx)
	if !errors.Is(err, ErrTemplateParse) {
		t.Fatalf("expected ErrTemplateParse, got %v", err)
	}
	if !strings.Contains(err.Error(), "headers: X-Trace") {
		t.Errorf("expected key path in error, got %v", err)
	}
}
