package session

import (
	"time"

	"go.uber.org/zap"

	"goldenglow/internal/game"
	"goldenglow/internal/metrics"
	"goldenglow/internal/network"
	"goldenglow/internal/obslog"
	"goldenglow/internal/score"
	"goldenglow/internal/session/message"
)

// CommandHandlerFunc define a assinatura de todas as funções que tratam
// eventos vindos de um cliente.
type CommandHandlerFunc func(g *Gateway, p network.Peer, msg network.Message)

// Reporter recebe os resultados de sessões terminadas. Não pode bloquear.
type Reporter interface {
	Report(reports ...score.Report)
}

// Gateway implementa network.EventHandler: traduz eventos do protocolo em
// operações sobre a fila, o registro de sessões e as máquinas de estado.
// Todo o estado aqui é tocado só pela goroutine do Hub.
type Gateway struct {
	peers      map[string]network.Peer
	matchmaker *Matchmaker
	registry   *Registry
	reporter   Reporter
	retention  time.Duration
	now        func() time.Time

	router map[string]CommandHandlerFunc
}

type GatewayOption func(*Gateway)

func WithReporter(r Reporter) GatewayOption {
	return func(g *Gateway) { g.reporter = r }
}

// WithRetention define por quanto tempo uma sessão terminada continua no
// registro antes de ser varrida por OnTick. Zero remove na hora.
func WithRetention(d time.Duration) GatewayOption {
	return func(g *Gateway) { g.retention = d }
}

func WithClock(now func() time.Time) GatewayOption {
	return func(g *Gateway) { g.now = now }
}

func NewGateway(matchmaker *Matchmaker, registry *Registry, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		peers:      make(map[string]network.Peer),
		matchmaker: matchmaker,
		registry:   registry,
		now:        time.Now,
		router:     make(map[string]CommandHandlerFunc),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.registerHandlers()
	return g
}

func (g *Gateway) registerHandlers() {
	g.router[message.TypeFindMatch] = handleFindMatch
	g.router[message.TypeMove] = handleMove
}

// --- Implementação da Interface network.EventHandler ---

func (g *Gateway) OnConnect(p network.Peer) {
	g.peers[p.ID()] = p
	obslog.L().Debug("peer_connected",
		zap.String("participant_id", p.ID()),
		zap.Int("peers", len(g.peers)),
	)
}

// OnDisconnect tira o participante da fila e encerra todas as suas sessões,
// avisando o outro lado de cada uma.
func (g *Gateway) OnDisconnect(p network.Peer) {
	id := p.ID()
	delete(g.peers, id)

	if g.matchmaker.Remove(id) {
		obslog.L().Debug("queue_left_on_disconnect", zap.String("participant_id", id))
	}

	for _, s := range g.registry.SessionsOf(id) {
		if opponent, ok := s.Opponent(id); ok {
			g.send(opponent, message.OpponentDisconnected(s.ID))
		}
		g.registry.Remove(s.ID)
		obslog.L().Info("session_closed_on_disconnect",
			zap.String("session_id", s.ID),
			zap.String("participant_id", id),
			zap.Bool("terminal", s.Terminal()),
		)
	}
	obslog.L().Debug("peer_disconnected",
		zap.String("participant_id", id),
		zap.Int("peers", len(g.peers)),
	)
}

func (g *Gateway) OnMessage(p network.Peer, msg network.Message) {
	handler, found := g.router[msg.Type]
	if !found {
		obslog.L().Debug("unknown_event",
			zap.String("participant_id", p.ID()),
			zap.String("type", msg.Type),
		)
		p.Send(message.Error(message.CodeUnknownEvent, "unknown event type: "+msg.Type))
		return
	}
	handler(g, p, msg)
}

// OnTick varre as sessões terminadas cuja retenção expirou.
func (g *Gateway) OnTick(now time.Time) {
	var expired []string
	g.registry.Range(func(s *Session) bool {
		if s.Terminal() && now.Sub(s.FinishedAt) >= g.retention {
			expired = append(expired, s.ID)
		}
		return true
	})
	for _, id := range expired {
		g.registry.Remove(id)
	}
	if len(expired) > 0 {
		obslog.L().Debug("sessions_swept", zap.Int("count", len(expired)))
	}
}

// send entrega para um participante conectado; participantes que já saíram
// são ignorados.
func (g *Gateway) send(participant string, msg network.Message) {
	p, ok := g.peers[participant]
	if !ok {
		return
	}
	if !p.Send(msg) {
		obslog.L().Warn("peer_send_failed",
			zap.String("participant_id", participant),
			zap.String("type", msg.Type),
		)
	}
}

func (g *Gateway) broadcast(s *Session, msg network.Message) {
	for _, participant := range s.Participants {
		g.send(participant, msg)
	}
}

// finish registra o fim da partida e entrega os resultados ao Reporter.
func (g *Gateway) finish(s *Session) {
	s.FinishedAt = g.now()

	result := string(s.State.Result.Kind)
	metrics.GamesFinishedTotal.WithLabelValues(s.GameType, result).Inc()
	obslog.L().Info("session_finished",
		zap.String("session_id", s.ID),
		zap.String("game_type", s.GameType),
		zap.String("result", result),
		zap.Int("moves", len(s.Moves)),
	)

	if g.reporter != nil {
		g.reporter.Report(reportsFor(s)...)
	}
	if g.retention <= 0 {
		g.registry.Remove(s.ID)
	}
}

func reportsFor(s *Session) []score.Report {
	reports := make([]score.Report, 0, len(s.Participants))
	for i, participant := range s.Participants {
		outcome := score.OutcomeDraw
		if s.State.Result.Kind != game.ResultDraw {
			outcome = score.OutcomeLoss
			if s.State.Result.Winner == i {
				outcome = score.OutcomeWin
			}
		}
		reports = append(reports, score.Report{
			SessionID:     s.ID,
			GameType:      s.GameType,
			ParticipantID: participant,
			OpponentID:    s.Participants[1-i],
			Outcome:       outcome,
			Score:         score.Points(outcome),
			Moves:         append([]int(nil), s.Moves...),
			StartedAt:     s.CreatedAt,
			FinishedAt:    s.FinishedAt,
		})
	}
	return reports
}
