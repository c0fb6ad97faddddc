package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"goldenglow/internal/game"
	"goldenglow/internal/metrics"
)

// ErrParticipantBusy é devolvido por Create quando algum dos dois já está em
// outra sessão registrada.
var ErrParticipantBusy = errors.New("session: participant already in a session")

// Registry guarda as sessões vivas e o índice participante -> sessões.
type Registry struct {
	mu            sync.RWMutex
	catalog       *game.Catalog
	sessions      map[string]*Session
	byParticipant map[string]map[string]struct{}
	seq           uint64
	now           func() time.Time
}

func NewRegistry(catalog *game.Catalog) *Registry {
	return &Registry{
		catalog:       catalog,
		sessions:      make(map[string]*Session),
		byParticipant: make(map[string]map[string]struct{}),
		now:           time.Now,
	}
}

// Catalog expõe o catálogo usado para criar estados iniciais.
func (r *Registry) Catalog() *game.Catalog {
	return r.catalog
}

// Create cria a sessão com estado inicial do tipo de jogo. first recebe o
// índice 0 e joga primeiro.
func (r *Registry) Create(gameType, first, second string) (*Session, error) {
	machine, err := r.catalog.Must(gameType)
	if err != nil {
		return nil, err
	}
	if first == second {
		return nil, errors.Wrapf(ErrParticipantBusy, "%s cannot play against itself", first)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range []string{first, second} {
		if len(r.byParticipant[p]) > 0 {
			return nil, errors.Wrapf(ErrParticipantBusy, "%s", p)
		}
	}

	now := r.now()
	s := &Session{
		ID:           r.nextID(gameType, now),
		GameType:     gameType,
		Participants: [2]string{first, second},
		State:        machine.NewState(),
		CreatedAt:    now,
		machine:      machine,
	}
	r.sessions[s.ID] = s
	for _, p := range s.Participants {
		set, ok := r.byParticipant[p]
		if !ok {
			set = make(map[string]struct{}, 1)
			r.byParticipant[p] = set
		}
		set[s.ID] = struct{}{}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return s, nil
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove é idempotente.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.sessions, id)
	for _, p := range s.Participants {
		set := r.byParticipant[p]
		delete(set, id)
		if len(set) == 0 {
			delete(r.byParticipant, p)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
}

// SessionsOf devolve as sessões (ativas ou retidas) que contêm o participante.
func (r *Registry) SessionsOf(participant string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.FilterMap(lo.Keys(r.byParticipant[participant]), func(id string, _ int) (*Session, bool) {
		s, ok := r.sessions[id]
		return s, ok
	})
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Range percorre uma cópia das sessões, então fn pode chamar Remove.
func (r *Registry) Range(fn func(s *Session) bool) {
	r.mu.RLock()
	snapshot := lo.Values(r.sessions)
	r.mu.RUnlock()

	for _, s := range snapshot {
		if !fn(s) {
			return
		}
	}
}

func (r *Registry) nextID(gameType string, now time.Time) string {
	n := atomic.AddUint64(&r.seq, 1)
	return fmt.Sprintf("%s-%d-%d", gameType, now.UnixMilli(), n)
}
