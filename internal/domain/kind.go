package domain

import "strings"

// NodeKind — тип узла графа.
//
// Набор типов закрыт: каждый тип должен иметь обработчик в steps.Registry.
// Значения совпадают с именами, которые использует редактор на канвасе.
type NodeKind string

const (
	// KindWebhook — триггер, выдаёт заранее заданные mock-данные.
	KindWebhook NodeKind = "webhook"

	// KindAIAgent — вызов генерации текста.
	KindAIAgent NodeKind = "ai_agent"

	// KindDebug — debug sink, передаёт вход без изменений.
	KindDebug NodeKind = "debug"

	// KindJavaScript — пользовательский скрипт.
	KindJavaScript NodeKind = "javascript"

	// KindHTTPRequest — HTTP запрос.
	KindHTTPRequest NodeKind = "http_request"

	// KindCondition — условное ветвление по true/false.
	KindCondition NodeKind = "condition"

	// KindDelay — пауза.
	KindDelay NodeKind = "delay"
)

// NodeKinds возвращает все поддерживаемые типы узлов.
func NodeKinds() []NodeKind {
	return []NodeKind{
		KindWebhook,
		KindAIAgent,
		KindDebug,
		KindJavaScript,
		KindHTTPRequest,
		KindCondition,
		KindDelay,
	}
}

var kindAliases = map[string]NodeKind{
	"trigger":      KindWebhook,
	"ai-agent":     KindAIAgent,
	"ai":           KindAIAgent,
	"debug-sink":   KindDebug,
	"script":       KindJavaScript,
	"http-request": KindHTTPRequest,
	"http":         KindHTTPRequest,
	"branch":       KindCondition,
}

// ParseNodeKind нормализует имя типа узла.
//
// Принимает как канонические имена, так и синонимы (trigger, script, branch, ...).
// Второе значение false, если тип неизвестен; в этом случае возвращается
// исходная строка как есть.
func ParseNodeKind(s string) (NodeKind, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, k := range NodeKinds() {
		if string(k) == key {
			return k, true
		}
	}
	if k, ok := kindAliases[key]; ok {
		return k, true
	}
	return NodeKind(s), false
}

// IsKnown возвращает true, если тип входит в закрытый набор.
func (k NodeKind) IsKnown() bool {
	_, ok := ParseNodeKind(string(k))
	return ok
}

// IsBranch возвращает true для условного узла.
func (k NodeKind) IsBranch() bool {
	return k == KindCondition
}

// String возвращает строковое представление NodeKind.
func (k NodeKind) String() string {
	return string(k)
}
