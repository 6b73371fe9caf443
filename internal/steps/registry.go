package steps

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shaiso/flowgen/internal/domain"
)

// Registry — реестр обработчиков по типу узла.
//
// Позволяет регистрировать и получать реализации Step по типу.
// Потокобезопасен.
type Registry struct {
	mu    sync.RWMutex
	steps map[domain.NodeKind]Step
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		steps: make(map[domain.NodeKind]Step),
	}
}

// DefaultRegistry создаёт реестр с обработчиками для всех типов узлов.
func DefaultRegistry(opts ...Option) *Registry {
	o := newOptions(opts)
	r := NewRegistry()

	r.Register(NewTriggerStep())
	r.Register(NewAIStep(o.generator))
	r.Register(NewScriptStep(o.scriptStackSize))
	r.Register(NewBranchStep())
	r.Register(NewDelayStep())
	r.Register(NewHTTPStep(o.liveHTTP, o.httpClient))
	r.Register(NewPassthroughStep(domain.KindDebug))

	return r
}

// Register регистрирует шаг в реестре.
// Если шаг с таким типом уже существует, он будет перезаписан.
func (r *Registry) Register(step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[step.Kind()] = step
}

// Get возвращает шаг по типу.
// Возвращает ErrStepNotFound, если шаг не найден.
func (r *Registry) Get(kind domain.NodeKind) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	step, exists := r.steps[kind]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, kind)
	}

	return step, nil
}

// Has проверяет, зарегистрирован ли шаг.
func (r *Registry) Has(kind domain.NodeKind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.steps[kind]
	return exists
}

// Kinds возвращает список всех зарегистрированных типов.
func (r *Registry) Kinds() []domain.NodeKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.NodeKind, 0, len(r.steps))
	for k := range r.steps {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Count возвращает количество зарегистрированных шагов.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// Unregister удаляет шаг из реестра.
func (r *Registry) Unregister(kind domain.NodeKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.steps, kind)
}

// Validate проверяет, что у каждого типа из domain.NodeKinds есть обработчик.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []string
	for _, k := range domain.NodeKinds() {
		if _, ok := r.steps[k]; !ok {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrStepNotFound, strings.Join(missing, ", "))
	}
	return nil
}
