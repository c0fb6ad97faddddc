package network

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Message é o envelope padrão para toda a comunicação.
// Type faz o roteamento; Payload fica em JSON bruto para ser decodificado
// pelo handler do tipo.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MaxMessageSize limita o tamanho de um frame recebido de um cliente.
const MaxMessageSize = 4 * 1024

// NewMessage monta um envelope com o payload serializado.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, errors.Wrapf(err, "encode %s payload", msgType)
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Decode lê o payload em v. Payload ausente é tratado como objeto vazio.
func (m Message) Decode(v any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return errors.Wrapf(err, "decode %s payload", m.Type)
	}
	return nil
}
