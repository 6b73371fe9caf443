package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runScript(t *testing.T, ctx context.Context, code string, input any) (*Response, error) {
	t.Helper()
	return NewScriptStep(0).Execute(ctx, &Request{
		NodeID: "js",
		Config: map[string]any{"code": code},
		Input:  input,
	})
}

func TestScriptStep_ReturnsValue(t *testing.T) {
	resp, err := runScript(t, context.Background(),
		`return { total: input.price * input.qty, label: input.name.toUpperCase() };`,
		map[string]any{"price": float64(2.5), "qty": float64(4), "name": "widget"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"total": float64(10), "label": "WIDGET"}, resp.Output)
}

func TestScriptStep_DefaultBody(t *testing.T) {
	input := map[string]any{"a": "b"}
	resp, err := runScript(t, context.Background(), "", input)
	require.NoError(t, err)
	assert.Equal(t, input, resp.Output)
}

func TestScriptStep_InputIsCopied(t *testing.T) {
	input := map[string]any{"count": float64(1)}
	_, err := runScript(t, context.Background(), `input.count = 99; input.extra = true; return input;`, input)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"count": float64(1)}, input)
}

func TestScriptStep_ThrowError(t *testing.T) {
	_, err := runScript(t, context.Background(), `throw new Error("amount is missing");`, map[string]any{})
	require.Error(t, err)

	var scriptErr *ScriptError
	require.True(t, errors.As(err, &scriptErr))
	assert.Equal(t, "amount is missing", err.Error())
	assert.ErrorIs(t, err, ErrScript)
}

func TestScriptStep_ThrowNonError(t *testing.T) {
	_, err := runScript(t, context.Background(), `throw "plain";`, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, "plain", err.Error())
}

func TestScriptStep_RuntimeError(t *testing.T) {
	_, err := runScript(t, context.Background(), `return input.missing.field;`, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScript)
	assert.Contains(t, err.Error(), "field")
}

func TestScriptStep_SyntaxError(t *testing.T) {
	_, err := runScript(t, context.Background(), `return {;`, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScript)
}

func TestScriptStep_NoHostAccess(t *testing.T) {
	resp, err := runScript(t, context.Background(),
		`return [typeof require, typeof process, typeof console, typeof fetch];`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, []any{"undefined", "undefined", "undefined", "undefined"}, resp.Output)
}

func TestScriptStep_UndefinedResult(t *testing.T) {
	resp, err := runScript(t, context.Background(), `let x = 1;`, map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, resp.Output)
}

func TestScriptStep_InfiniteLoopIsInterrupted(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := runScript(t, ctx, `while (true) {}`, map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestScriptStep_DeepRecursion(t *testing.T) {
	_, err := runScript(t, context.Background(), `function f(n) { return f(n + 1); } return f(0);`, map[string]any{})
	require.Error(t, err)
}
