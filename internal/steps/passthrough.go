package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/flowgen/internal/domain"
)

// PassthroughStep отдаёт вход без изменений.
//
// Используется для debug и для типов без собственной семантики.
type PassthroughStep struct {
	kind domain.NodeKind
}

// NewPassthroughStep создаёт PassthroughStep для типа kind.
func NewPassthroughStep(kind domain.NodeKind) *PassthroughStep {
	return &PassthroughStep{kind: kind}
}

// Kind возвращает тип узла.
func (s *PassthroughStep) Kind() domain.NodeKind {
	return s.kind
}

// Execute возвращает вход как output.
func (s *PassthroughStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
	}
	return NewResponse(req.Input), nil
}
