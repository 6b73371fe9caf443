package telemetry

import (
	"sync"
	"time"

	"github.com/shaiso/flowgen/internal/domain"
)

// Collector — телеметрия одного run: длительность каждого выполнения узла.
//
// Замеры хранятся в порядке завершения, а не в порядке графа:
// параллельные ветки завершаются в произвольном порядке.
// Потокобезопасен.
type Collector struct {
	mu      sync.Mutex
	samples []domain.StatSample
}

// NewCollector создаёт пустой Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Record добавляет замер.
func (c *Collector) Record(nodeID, label string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, domain.StatSample{
		NodeID:   nodeID,
		Name:     label,
		Duration: float64(d) / float64(time.Millisecond),
	})
}

// Snapshot возвращает копию накопленных замеров.
func (c *Collector) Snapshot() []domain.StatSample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.StatSample, len(c.samples))
	copy(out, c.samples)
	return out
}

// Total возвращает сумму длительностей в миллисекундах.
func (c *Collector) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, s := range c.samples {
		total += s.Duration
	}
	return total
}

// Len возвращает количество замеров.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}
