package cluster

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// CheckFunc realiza uma verificação de saúde. Retorna erro se falhar.
type CheckFunc func(ctx context.Context) error

// HealthReport é o corpo devolvido por /health.
type HealthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Uptime    float64           `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// HealthAggregator permite registrar múltiplas verificações de saúde e as
// expõe através de um único endpoint HTTP.
type HealthAggregator struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	started time.Time
	timeout time.Duration
}

func NewHealthAggregator(timeout time.Duration) *HealthAggregator {
	return &HealthAggregator{
		checks:  make(map[string]CheckFunc),
		started: time.Now(),
		timeout: timeout,
	}
}

// AddCheck registra uma nova função de verificação.
func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Names lista as verificações registradas.
func (h *HealthAggregator) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := lo.Keys(h.checks)
	sort.Strings(names)
	return names
}

// Evaluate roda todas as verificações em paralelo, cada uma com o timeout
// do agregador.
func (h *HealthAggregator) Evaluate(ctx context.Context) HealthReport {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	names := lo.Keys(checks)
	statuses := make([]string, len(names))
	var g errgroup.Group
	for i, name := range names {
		i := i
		check := checks[name]
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()

			statuses[i] = StatusOK
			if err := check(cctx); err != nil {
				statuses[i] = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()
	results := lo.SliceToMap(lo.Zip2(names, statuses), func(t lo.Tuple2[string, string]) (string, string) {
		return t.A, t.B
	})

	report := HealthReport{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.started).Seconds(),
		Checks:    results,
	}
	if lo.SomeBy(lo.Values(results), func(s string) bool { return s != StatusOK }) {
		report.Status = StatusDegraded
	}
	return report
}

// Handler responde 200 quando tudo está ok e 503 quando alguma verificação falha.
func (h *HealthAggregator) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report := h.Evaluate(c.Request.Context())
		code := http.StatusOK
		if report.Status != StatusOK {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, report)
	}
}
