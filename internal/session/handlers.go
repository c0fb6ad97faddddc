package session

import (
	"go.uber.org/zap"

	"goldenglow/internal/metrics"
	"goldenglow/internal/network"
	"goldenglow/internal/obslog"
	"goldenglow/internal/session/message"
)

// handleFindMatch coloca o participante na fila do tipo pedido ou o pareia
// com quem está esperando há mais tempo.
func handleFindMatch(g *Gateway, p network.Peer, msg network.Message) {
	log := obslog.L().With(zap.String("participant_id", p.ID()))

	var req message.FindMatchPayload
	if err := msg.Decode(&req); err != nil {
		p.Send(message.Error(message.CodeInvalidPayload, "find-match expects {gameType}"))
		return
	}
	if _, ok := g.registry.Catalog().Lookup(req.GameType); !ok {
		log.Debug("find_match_unknown_game_type", zap.String("game_type", req.GameType))
		p.Send(message.Error(message.CodeUnknownGameType, "unknown game type: "+req.GameType))
		return
	}

	// Uma sessão ainda em andamento impede nova busca; sessões terminadas
	// que estavam retidas são descartadas (revanche = nova busca).
	for _, s := range g.registry.SessionsOf(p.ID()) {
		if !s.Terminal() {
			p.Send(message.Error(message.CodeAlreadyInSession, "finish or leave session "+s.ID+" first"))
			return
		}
	}
	for _, s := range g.registry.SessionsOf(p.ID()) {
		g.registry.Remove(s.ID)
	}

	// Busca repetida ou troca de tipo: volta para o fim da fila.
	g.matchmaker.Remove(p.ID())

	var opponent string
	for {
		res := g.matchmaker.EnqueueOrPair(req.GameType, p.ID())
		if !res.Paired {
			log.Debug("queue_joined", zap.String("game_type", req.GameType))
			p.Send(message.Waiting())
			return
		}
		if _, ok := g.peers[res.Opponent]; ok {
			opponent = res.Opponent
			break
		}
		// Cabeça da fila sem conexão: descarta e tenta o próximo.
		log.Warn("queue_head_stale", zap.String("opponent_id", res.Opponent))
	}

	s, err := g.registry.Create(req.GameType, opponent, p.ID())
	if err != nil {
		log.Error("session_create_failed", zap.String("opponent_id", opponent), zap.Error(err))
		p.Send(message.Error(message.CodeInternal, "could not start session"))
		g.send(opponent, message.Error(message.CodeInternal, "could not start session"))
		return
	}
	metrics.MatchesTotal.WithLabelValues(s.GameType).Inc()
	log.Info("match_found",
		zap.String("session_id", s.ID),
		zap.String("opponent_id", opponent),
		zap.String("game_type", s.GameType),
	)

	for i, participant := range s.Participants {
		g.send(participant, message.MatchFound(s.ID, s.Participants[1-i], i == 0))
		g.send(participant, message.StateUpdate(s.ID, s.State))
	}
}

// handleMove aplica a jogada na sessão. Sessão inexistente, remetente que não
// participa dela e jogada ilegal são ignorados em silêncio.
func handleMove(g *Gateway, p network.Peer, msg network.Message) {
	var req message.MovePayload
	if err := msg.Decode(&req); err != nil || !req.HasCell() {
		p.Send(message.Error(message.CodeInvalidPayload, "move expects {sessionId, cellIndex}"))
		return
	}

	log := obslog.L().With(
		zap.String("participant_id", p.ID()),
		zap.String("session_id", req.SessionID),
	)

	s, ok := g.registry.Get(req.SessionID)
	if !ok {
		metrics.MovesTotal.WithLabelValues(metrics.MoveIgnored).Inc()
		log.Debug("move_unknown_session")
		return
	}
	idx, ok := s.IndexOf(p.ID())
	if !ok {
		metrics.MovesTotal.WithLabelValues(metrics.MoveIgnored).Inc()
		log.Debug("move_not_a_participant")
		return
	}
	if !s.Apply(idx, req.Cell()) {
		metrics.MovesTotal.WithLabelValues(metrics.MoveRejected).Inc()
		log.Debug("move_rejected", zap.String("cell", req.CellIndex.String()))
		return
	}
	metrics.MovesTotal.WithLabelValues(metrics.MoveAccepted).Inc()

	g.broadcast(s, message.StateUpdate(s.ID, s.State))
	if s.Terminal() {
		g.finish(s)
	}
}
