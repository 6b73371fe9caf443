package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/shaiso/flowgen/internal/domain"
)

const (
	// configCode — ключ с телом функции.
	configCode = "code"

	// defaultScript — тело по умолчанию.
	defaultScript = "return input;"

	defaultScriptStackSize = 512
)

// ScriptStep — пользовательский JavaScript.
//
// Тело функции получает единственный параметр input, возвращаемое
// значение становится output узла:
//
//	{"code": "return { ...input, total: input.price * input.qty };"}
//
// Каждый вызов выполняется в новом goja.Runtime: доступны только встроенные
// объекты ECMAScript, без console, require, сети и файловой системы.
// input передаётся глубокой копией через JSON, результат нормализуется
// обратно через JSON. Скрипт прерывается при отмене ctx (дедлайн узла
// или отмена run), поэтому бесконечный цикл не блокирует ветку навсегда.
//
// Исключение внутри скрипта становится ошибкой узла с текстом message.
type ScriptStep struct {
	stackSize int
}

// NewScriptStep создаёт новый ScriptStep.
// stackSize ограничивает глубину рекурсии; 0 — значение по умолчанию.
func NewScriptStep(stackSize int) *ScriptStep {
	if stackSize <= 0 {
		stackSize = defaultScriptStackSize
	}
	return &ScriptStep{stackSize: stackSize}
}

// Kind возвращает тип узла.
func (s *ScriptStep) Kind() domain.NodeKind {
	return domain.KindJavaScript
}

// Execute выполняет скрипт.
func (s *ScriptStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
	}

	code := GetConfigString(req.Config, configCode)
	if strings.TrimSpace(code) == "" {
		code = defaultScript
	}

	inputJSON, err := json.Marshal(req.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: input is not serializable: %v", ErrInvalidConfig, err)
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(s.stackSize)

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	prog, err := goja.Compile(req.NodeID, "(function(input) {\n"+code+"\n})", false)
	if err != nil {
		return nil, &ScriptError{Message: err.Error()}
	}

	fnVal, err := vm.RunProgram(prog)
	if err != nil {
		return nil, s.scriptError(ctx, err)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, &ScriptError{Message: "script did not compile to a function"}
	}

	parse, stringify := jsonFuncs(vm)

	input, err := parse(goja.Undefined(), vm.ToValue(string(inputJSON)))
	if err != nil {
		return nil, s.scriptError(ctx, err)
	}

	result, err := fn(goja.Undefined(), input)
	if err != nil {
		return nil, s.scriptError(ctx, err)
	}

	encoded, err := stringify(goja.Undefined(), result)
	if err != nil {
		return nil, s.scriptError(ctx, err)
	}
	// undefined и функции не сериализуются: output пустой
	if goja.IsUndefined(encoded) || goja.IsNull(encoded) {
		return NewResponse(nil), nil
	}

	var out any
	if err := json.Unmarshal([]byte(encoded.String()), &out); err != nil {
		return nil, &ScriptError{Message: fmt.Sprintf("script result is not serializable: %v", err)}
	}
	return NewResponse(out), nil
}

// scriptError превращает ошибку goja в ошибку узла.
func (s *ScriptStep) scriptError(ctx context.Context, err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrStepTimeout, ctx.Err())
		}
		return fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
	}

	var exc *goja.Exception
	if errors.As(err, &exc) {
		return &ScriptError{Message: exceptionMessage(exc.Value())}
	}

	return &ScriptError{Message: err.Error()}
}

// exceptionMessage возвращает message выброшенного Error
// или строковую форму любого другого значения.
func exceptionMessage(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			return msg.String()
		}
	}
	return v.String()
}

func jsonFuncs(vm *goja.Runtime) (parse, stringify goja.Callable) {
	j := vm.Get("JSON").ToObject(vm)
	parse, _ = goja.AssertFunction(j.Get("parse"))
	stringify, _ = goja.AssertFunction(j.Get("stringify"))
	return parse, stringify
}
