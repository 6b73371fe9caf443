package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/flowgen/internal/templates"
)

// ListTemplates возвращает галерею шаблонов.
// GET /api/v1/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := templates.List()
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	result := make([]TemplateSummary, len(list))
	for i, t := range list {
		result[i] = TemplateSummaryFrom(t)
	}

	List(w, result, len(result))
}

// GetTemplate возвращает шаблон с графом.
// GET /api/v1/templates/{id}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := templates.Get(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, templates.ErrTemplateNotFound) {
			NotFound(w, "template not found")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	Success(w, tpl)
}
