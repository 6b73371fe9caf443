// Package llm содержит внешних соавторов движка, работающих через Gemini API:
//
//   - Generator — генерация текста для узлов ai_agent
//   - Architect — генерация графа workflow по текстовому описанию
//
// Gemini реализует оба интерфейса поверх google.golang.org/genai.
// Offline — детерминированный генератор для прогонов без сети.
package llm
