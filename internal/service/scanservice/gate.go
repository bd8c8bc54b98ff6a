package scanservice

import (
	"sync"
	"time"
)

// DefaultDebounce é o intervalo mínimo entre leituras aceitas.
const DefaultDebounce = 300 * time.Millisecond

// Gate aceita no máximo um evento por intervalo. O laço de decodificação dispara a cada quadro
// enquanto o código está à vista; sem o portão o mesmo código geraria consultas repetidas.
type Gate struct {
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	last     time.Time
	accepted bool
}

// NewGate cria um portão com o intervalo dado; now nil usa time.Now.
func NewGate(interval time.Duration, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{interval: interval, now: now}
}

// Allow informa se o evento passa e, se passar, registra o instante.
func (g *Gate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	t := g.now()
	if g.accepted && t.Sub(g.last) < g.interval {
		return false
	}
	g.last = t
	g.accepted = true
	return true
}

// Reset esquece o último evento aceito.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accepted = false
	g.last = time.Time{}
}
