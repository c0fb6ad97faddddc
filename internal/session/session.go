package session

import (
	"time"

	"goldenglow/internal/game"
)

// Session é uma partida entre exatamente dois participantes. O participante de
// índice 0 é quem esperou mais tempo na fila e faz a primeira jogada.
//
// Só é alterada pelo Gateway, dentro da goroutine do Hub.
type Session struct {
	ID           string
	GameType     string
	Participants [2]string
	State        game.State
	Moves        []int
	CreatedAt    time.Time
	FinishedAt   time.Time

	machine game.StateMachine
}

// IndexOf devolve a posição do participante na sessão.
func (s *Session) IndexOf(participant string) (int, bool) {
	for i, p := range s.Participants {
		if p == participant {
			return i, true
		}
	}
	return -1, false
}

// Opponent devolve o outro participante.
func (s *Session) Opponent(participant string) (string, bool) {
	i, ok := s.IndexOf(participant)
	if !ok {
		return "", false
	}
	return s.Participants[1-i], true
}

func (s *Session) Terminal() bool {
	return s.State.Terminal()
}

// Apply passa a jogada pela máquina de estados. Só troca o estado e registra
// a célula no histórico se a jogada for aceita.
func (s *Session) Apply(participant, cell int) bool {
	next, ok := s.machine.ApplyMove(s.State, participant, cell)
	if !ok {
		return false
	}
	s.State = next
	s.Moves = append(s.Moves, cell)
	return true
}
