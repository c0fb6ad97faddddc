package game_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldenglow/internal/game"
	"goldenglow/internal/game/builtin"
	"goldenglow/internal/game/tictactoe"
)

func TestCatalogLookup(t *testing.T) {
	c := game.NewCatalog(tictactoe.New())

	m, ok := c.Lookup(tictactoe.GameType)
	require.True(t, ok)
	assert.Equal(t, tictactoe.GameType, m.GameType())

	_, ok = c.Lookup("chess")
	assert.False(t, ok)

	_, err := c.Must("chess")
	assert.True(t, errors.Is(err, game.ErrUnknownGameType))

	assert.Equal(t, []string{tictactoe.GameType}, c.Types())
}

func TestBuiltinCatalogRejectsUnknownTypes(t *testing.T) {
	_, err := builtin.Catalog([]string{tictactoe.GameType, "connect-four"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, game.ErrUnknownGameType))

	c, err := builtin.Catalog([]string{tictactoe.GameType})
	require.NoError(t, err)
	assert.Equal(t, []string{tictactoe.GameType}, c.Types())
	assert.True(t, builtin.Known(tictactoe.GameType))
}

func TestStateClone(t *testing.T) {
	s := tictactoe.New().NewState()
	s.Result = &game.Result{Kind: game.ResultDraw}

	c := s.Clone()
	c.Cells[0] = game.MarkB
	c.Result.Kind = game.ResultWin

	assert.Equal(t, game.Empty, s.Cells[0])
	assert.Equal(t, game.ResultDraw, s.Result.Kind)
}

func TestResultJSONKeepsWinnerZero(t *testing.T) {
	raw, err := game.Result{Kind: game.ResultWin, Winner: 0}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"win","winner":0}`, string(raw))

	raw, err = game.Result{Kind: game.ResultDraw}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"draw"}`, string(raw))
}
