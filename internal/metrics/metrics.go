// Package metrics concentra os coletores Prometheus do servidor.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "glow"

	gameTypeLabel = "game_type"
	outcomeLabel  = "outcome"
	resultLabel   = "result"
	sinkLabel     = "sink"
	statusLabel   = "status"
)

var (
	ConnectedPeers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_peers",
			Help:      "number of websocket peers registered in the hub",
		})

	QueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "participants waiting for an opponent",
		}, []string{gameTypeLabel})

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "sessions held by the registry, including finished ones still retained",
		})

	MatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matches_total",
			Help:      "pairings made by the matchmaker",
		}, []string{gameTypeLabel})

	MovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "moves received, by outcome",
		}, []string{outcomeLabel})

	GamesFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "sessions that reached a terminal state",
		}, []string{gameTypeLabel, resultLabel})

	ScoreReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_reports_total",
			Help:      "score reports delivered to sinks",
		}, []string{sinkLabel, statusLabel})
)

// Valores do label outcome de MovesTotal.
const (
	MoveAccepted = "accepted"
	MoveRejected = "rejected"
	MoveIgnored  = "ignored"
)

// Valores do label status de ScoreReportsTotal.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusDropped = "dropped"
)

// Register registra todos os coletores em r.
func Register(r prometheus.Registerer) {
	r.MustRegister(
		ConnectedPeers,
		QueueDepth,
		ActiveSessions,
		MatchesTotal,
		MovesTotal,
		GamesFinishedTotal,
		ScoreReportsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler expõe o registry no formato de exposição do Prometheus.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
