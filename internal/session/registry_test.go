package session

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldenglow/internal/game"
	"goldenglow/internal/game/tictactoe"
)

func newTestRegistry() *Registry {
	return NewRegistry(game.NewCatalog(tictactoe.New()))
}

func TestRegistryCreate(t *testing.T) {
	r := newTestRegistry()

	s, err := r.Create(tictactoe.GameType, "a", "b")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "tic-tac-toe-"))
	assert.Equal(t, [2]string{"a", "b"}, s.Participants)
	assert.Equal(t, 0, s.State.Turn)
	assert.Len(t, s.State.Cells, 9)
	assert.False(t, s.CreatedAt.IsZero())

	got, ok := r.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryIDsAreUnique(t *testing.T) {
	r := newTestRegistry()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		a, b := "a"+string(rune('A'+i)), "b"+string(rune('A'+i))
		s, err := r.Create(tictactoe.GameType, a, b)
		require.NoError(t, err)
		require.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestRegistryRejectsUnknownTypeAndBusyParticipants(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Create("chess", "a", "b")
	assert.True(t, errors.Is(err, game.ErrUnknownGameType))

	_, err = r.Create(tictactoe.GameType, "a", "b")
	require.NoError(t, err)

	_, err = r.Create(tictactoe.GameType, "b", "c")
	assert.True(t, errors.Is(err, ErrParticipantBusy))

	_, err = r.Create(tictactoe.GameType, "d", "d")
	assert.True(t, errors.Is(err, ErrParticipantBusy))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	r := newTestRegistry()
	s, err := r.Create(tictactoe.GameType, "a", "b")
	require.NoError(t, err)

	r.Remove(s.ID)
	r.Remove(s.ID)
	r.Remove("missing")

	_, ok := r.Get(s.ID)
	assert.False(t, ok)
	assert.Empty(t, r.SessionsOf("a"))
	assert.Empty(t, r.SessionsOf("b"))
	assert.Zero(t, r.Len())

	// Depois de removida, os dois podem jogar de novo.
	_, err = r.Create(tictactoe.GameType, "b", "a")
	assert.NoError(t, err)
}

func TestRegistryRangeAllowsRemove(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Create(tictactoe.GameType, "a", "b")
	require.NoError(t, err)
	_, err = r.Create(tictactoe.GameType, "c", "d")
	require.NoError(t, err)

	r.Range(func(s *Session) bool {
		r.Remove(s.ID)
		return true
	})
	assert.Zero(t, r.Len())
}

func TestSessionApplyRecordsHistory(t *testing.T) {
	r := newTestRegistry()
	s, err := r.Create(tictactoe.GameType, "a", "b")
	require.NoError(t, err)

	assert.False(t, s.Apply(1, 4), "second participant cannot open")
	assert.True(t, s.Apply(0, 4))
	assert.False(t, s.Apply(1, 4), "occupied")
	assert.True(t, s.Apply(1, 0))
	assert.Equal(t, []int{4, 0}, s.Moves)

	opp, ok := s.Opponent("a")
	require.True(t, ok)
	assert.Equal(t, "b", opp)
	_, ok = s.Opponent("z")
	assert.False(t, ok)
}
