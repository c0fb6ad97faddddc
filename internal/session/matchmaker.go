package session

import (
	"sync"

	"github.com/samber/lo"

	"goldenglow/internal/metrics"
)

// PairingResult é a resposta de EnqueueOrPair. Quando Paired é false o
// participante ficou esperando na fila.
type PairingResult struct {
	Paired   bool
	Opponent string
}

// Matchmaker mantém uma fila FIFO por tipo de jogo. Quem chega encontra a
// cabeça da fila se houver alguém esperando; senão entra no fim.
type Matchmaker struct {
	mu     sync.Mutex
	queues map[string][]string
}

// NewMatchmaker cria e inicializa um novo Matchmaker.
func NewMatchmaker() *Matchmaker {
	return &Matchmaker{
		queues: make(map[string][]string),
	}
}

func (m *Matchmaker) EnqueueOrPair(gameType, participant string) PairingResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	queue := m.queues[gameType]
	if len(queue) == 0 {
		m.queues[gameType] = append(queue, participant)
		metrics.QueueDepth.WithLabelValues(gameType).Set(1)
		return PairingResult{}
	}

	head := queue[0]
	queue = queue[1:]
	if len(queue) == 0 {
		delete(m.queues, gameType)
	} else {
		m.queues[gameType] = queue
	}
	metrics.QueueDepth.WithLabelValues(gameType).Set(float64(len(queue)))
	return PairingResult{Paired: true, Opponent: head}
}

// Remove tira o participante de qualquer fila. É seguro chamar para quem
// nunca entrou em fila nenhuma.
func (m *Matchmaker) Remove(participant string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for gameType, queue := range m.queues {
		i := lo.IndexOf(queue, participant)
		if i < 0 {
			continue
		}
		queue = append(queue[:i:i], queue[i+1:]...)
		if len(queue) == 0 {
			delete(m.queues, gameType)
		} else {
			m.queues[gameType] = queue
		}
		metrics.QueueDepth.WithLabelValues(gameType).Set(float64(len(queue)))
		return true
	}
	return false
}

func (m *Matchmaker) Len(gameType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queues[gameType])
}

// Waiting devolve uma cópia da fila, do mais antigo para o mais novo.
func (m *Matchmaker) Waiting(gameType string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queues[gameType]...)
}
