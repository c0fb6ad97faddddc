package message

// Mensagens no sentido cliente -> servidor.

import (
	"encoding/json"
	"math"
	"strconv"
)

const (
	TypeFindMatch = "find-match"
	TypeMove      = "move"
)

type FindMatchPayload struct {
	GameType string `json:"gameType"`
}

// MovePayload guarda cellIndex como json.Number: qualquer número decodifica,
// e a validação da célula fica com a máquina de estados.
type MovePayload struct {
	SessionID string      `json:"sessionId"`
	CellIndex json.Number `json:"cellIndex,omitempty"`
}

// Move monta o payload de uma jogada.
func Move(sessionID string, cell int) MovePayload {
	return MovePayload{SessionID: sessionID, CellIndex: json.Number(strconv.Itoa(cell))}
}

// HasCell informa se cellIndex veio no payload.
func (p MovePayload) HasCell() bool {
	return p.CellIndex != ""
}

// Cell devolve a célula pedida. Números fracionários ou fora da faixa de
// int32 viram -1, que nenhum tabuleiro aceita.
func (p MovePayload) Cell() int {
	f, err := p.CellIndex.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return -1
	}
	return int(f)
}
