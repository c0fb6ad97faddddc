// Package score leva o resultado de partidas terminadas para fora do
// processo (placar no Redis, eventos no NATS, documentos no Mongo, linhas no
// Postgres). Nada aqui roda na goroutine do Hub.
package score

import (
	"context"
	"time"
)

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

// Points é a pontuação atribuída a cada desfecho.
func Points(o Outcome) int {
	switch o {
	case OutcomeWin:
		return 3
	case OutcomeDraw:
		return 1
	default:
		return 0
	}
}

// Report é o resultado de uma sessão do ponto de vista de um participante.
// Cada sessão terminada gera dois reports.
type Report struct {
	SessionID     string    `json:"sessionId"`
	GameType      string    `json:"gameType"`
	ParticipantID string    `json:"participantId"`
	OpponentID    string    `json:"opponentId"`
	Outcome       Outcome   `json:"outcome"`
	Score         int       `json:"score"`
	Moves         []int     `json:"moves"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// Sink grava reports em algum destino externo.
type Sink interface {
	Name() string
	Record(ctx context.Context, r Report) error
	Close() error
}

// Pinger é implementado pelos sinks que sabem verificar a própria conexão.
type Pinger interface {
	Ping(ctx context.Context) error
}
