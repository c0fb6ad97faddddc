package message

// Mensagens no sentido servidor -> cliente.
import (
	"encoding/json"

	"go.uber.org/zap"

	"goldenglow/internal/game"
	"goldenglow/internal/network"
	"goldenglow/internal/obslog"
)

const (
	TypeWaiting              = "waiting"
	TypeMatchFound           = "match-found"
	TypeStateUpdate          = "state-update"
	TypeOpponentDisconnected = "opponent-disconnected"
	TypeError                = "error"
)

// Códigos do evento error.
const (
	CodeUnknownEvent     = "unknown-event"
	CodeInvalidPayload   = "invalid-payload"
	CodeUnknownGameType  = "unknown-game-type"
	CodeAlreadyInSession = "already-in-session"
	CodeInternal         = "internal"
)

type MatchFoundPayload struct {
	SessionID  string `json:"sessionId"`
	OpponentID string `json:"opponentId"`
	MovesFirst bool   `json:"movesFirst"`
}

type StateUpdatePayload struct {
	SessionID string     `json:"sessionId"`
	State     game.State `json:"state"`
}

type OpponentDisconnectedPayload struct {
	SessionID string `json:"sessionId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// encode segue adiante sem payload se a serialização falhar; o cliente
// ainda recebe o tipo do evento.
func encode(msgType string, payload any) network.Message {
	msg, err := network.NewMessage(msgType, payload)
	if err != nil {
		obslog.L().Error("message_encode_failed", zap.String("type", msgType), zap.Error(err))
		return network.Message{Type: msgType}
	}
	return msg
}

// Waiting avisa que o participante entrou na fila.
func Waiting() network.Message {
	return network.Message{
		Type:    TypeWaiting,
		Payload: json.RawMessage(`{}`),
	}
}

func MatchFound(sessionID, opponentID string, movesFirst bool) network.Message {
	return encode(TypeMatchFound, MatchFoundPayload{
		SessionID:  sessionID,
		OpponentID: opponentID,
		MovesFirst: movesFirst,
	})
}

func StateUpdate(sessionID string, state game.State) network.Message {
	return encode(TypeStateUpdate, StateUpdatePayload{
		SessionID: sessionID,
		State:     state,
	})
}

func OpponentDisconnected(sessionID string) network.Message {
	return encode(TypeOpponentDisconnected, OpponentDisconnectedPayload{SessionID: sessionID})
}

func Error(code, msg string) network.Message {
	return encode(TypeError, ErrorPayload{Code: code, Message: msg})
}
