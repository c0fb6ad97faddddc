package tictactoe

import "goldenglow/internal/game"

const (
	// GameType é o identificador usado pelos clientes em find-match.
	GameType = "tic-tac-toe"

	boardSize = 9
)

// As 8 linhas canônicas: 3 horizontais, 3 verticais, 2 diagonais.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Machine implementa game.StateMachine para o jogo da velha 3x3.
type Machine struct{}

func New() Machine {
	return Machine{}
}

func (Machine) GameType() string {
	return GameType
}

func (Machine) NewState() game.State {
	return game.State{Cells: make([]game.Mark, boardSize)}
}

// ApplyMove valida e aplica a jogada. Em caso de vitória o turno não avança,
// para que o estado final aponte para quem venceu.
func (Machine) ApplyMove(s game.State, participant, cell int) (game.State, bool) {
	switch {
	case s.Terminal():
		return s, false
	case participant != s.Turn:
		return s, false
	case cell < 0 || cell >= boardSize || len(s.Cells) != boardSize:
		return s, false
	case s.Cells[cell] != game.Empty:
		return s, false
	}

	next := s.Clone()
	next.Cells[cell] = game.MarkFor(participant)

	switch {
	case hasLine(next.Cells):
		next.Result = &game.Result{Kind: game.ResultWin, Winner: participant}
	case isFull(next.Cells):
		next.Result = &game.Result{Kind: game.ResultDraw}
	default:
		next.Turn = 1 - participant
	}
	return next, true
}

func hasLine(cells []game.Mark) bool {
	for _, line := range winLines {
		a := cells[line[0]]
		if a != game.Empty && a == cells[line[1]] && a == cells[line[2]] {
			return true
		}
	}
	return false
}

func isFull(cells []game.Mark) bool {
	for _, c := range cells {
		if c == game.Empty {
			return false
		}
	}
	return true
}
