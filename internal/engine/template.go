package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// Context — данные, видимые шаблону конфига узла:
//
//	{{ .Input.field }}  — вход узла (выход родителя)
//	{{ .Node.Label }}   — метаданные текущего узла
type Context struct {
	Input any     `json:"input"`
	Node  NodeRef `json:"node"`
}

// NodeRef — метаданные узла, доступные шаблону.
type NodeRef struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// NewContext создаёт контекст для входа узла. nil заменяется пустой map,
// чтобы {{ .Input.x }} давал "<no value>", а не ошибку.
func NewContext(input any) *Context {
	if input == nil {
		input = map[string]any{}
	}
	return &Context{Input: input}
}

// WithNode устанавливает метаданные текущего узла.
func (c *Context) WithNode(id, label string) *Context {
	c.Node = NodeRef{ID: id, Label: label}
	return c
}

var templateFuncs = template.FuncMap{
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},
	"default": func(def, val any) any {
		if s, ok := val.(string); val == nil || (ok && s == "") {
			return def
		}
		return val
	},
	"contains":  strings.Contains,
	"hasPrefix": strings.HasPrefix,
	"lower":     strings.ToLower,
	"upper":     strings.ToUpper,
	"trim":      strings.TrimSpace,
	"replace":   strings.ReplaceAll,
}

// Render рендерит строку как Go template. Строка без "{{" возвращается
// как есть. Ошибки оборачивают ErrTemplateParse или ErrTemplateRender.
func Render(tmpl string, ctx *Context) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	return buf.String(), nil
}

// RenderValue рендерит строки внутри значения, декодированного из JSON:
// map[string]any и []any обходятся рекурсивно, числа и bool не меняются.
func RenderValue(value any, ctx *Context) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, ctx)

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			rendered, err := RenderValue(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = rendered
		}
		return out, nil

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			rendered, err := RenderValue(item, ctx)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = rendered
		}
		return out, nil
	}
	return value, nil
}

// RenderConfig рендерит конфиг узла целиком. nil даёт пустую map.
func RenderConfig(config map[string]any, ctx *Context) (map[string]any, error) {
	if config == nil {
		return map[string]any{}, nil
	}
	rendered, err := RenderValue(config, ctx)
	if err != nil {
		return nil, err
	}
	return rendered.(map[string]any), nil
}
