// Package api monta a superfície HTTP do servidor: upgrade WebSocket, saúde
// e métricas.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"goldenglow/internal/cluster"
	"goldenglow/internal/metrics"
	"goldenglow/internal/network"
	"goldenglow/internal/obslog"
)

const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Options reúne as dependências do roteador.
type Options struct {
	WSPath   string
	WS       *network.Server
	Health   *cluster.HealthAggregator
	Gatherer prometheus.Gatherer
}

func NewRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), accessLog())

	r.GET(opts.WSPath, gin.WrapH(opts.WS))
	if opts.Health != nil {
		r.GET(HealthPath, opts.Health.Handler())
	}
	if opts.Gatherer != nil {
		r.GET(MetricsPath, gin.WrapH(metrics.Handler(opts.Gatherer)))
	}
	return r
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		obslog.L().Debug("http_request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
