package tictactoe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldenglow/internal/game"
)

// play aplica a sequência de células alternando os participantes a partir do 0.
func play(t *testing.T, cells ...int) game.State {
	t.Helper()
	m := New()
	s := m.NewState()
	for i, c := range cells {
		var ok bool
		s, ok = m.ApplyMove(s, i%2, c)
		require.Truef(t, ok, "move %d (cell %d) rejected", i, c)
	}
	return s
}

func TestNewStateIsEmpty(t *testing.T) {
	s := New().NewState()
	require.Len(t, s.Cells, 9)
	for _, c := range s.Cells {
		assert.Equal(t, game.Empty, c)
	}
	assert.Equal(t, 0, s.Turn)
	assert.Nil(t, s.Result)
}

func TestApplyMoveIsDeterministic(t *testing.T) {
	m := New()
	s := play(t, 4, 0)
	a, okA := m.ApplyMove(s, 0, 8)
	b, okB := m.ApplyMove(s, 0, 8)
	assert.Equal(t, okA, okB)
	assert.Equal(t, a, b)
}

func TestTurnAlternates(t *testing.T) {
	m := New()
	s := m.NewState()

	s, ok := m.ApplyMove(s, 0, 4)
	require.True(t, ok)
	assert.Equal(t, 1, s.Turn)
	assert.Equal(t, game.MarkA, s.Cells[4])

	s, ok = m.ApplyMove(s, 1, 0)
	require.True(t, ok)
	assert.Equal(t, 0, s.Turn)
	assert.Equal(t, game.MarkB, s.Cells[0])
}

func TestRejectedMovesLeaveStateUntouched(t *testing.T) {
	m := New()
	base := play(t, 4)
	snapshot := base.Clone()

	cases := map[string]struct {
		participant int
		cell        int
	}{
		"wrong turn":    {participant: 0, cell: 0},
		"occupied":      {participant: 1, cell: 4},
		"negative cell": {participant: 1, cell: -1},
		"cell too big":  {participant: 1, cell: 9},
		"not a player":  {participant: 2, cell: 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := m.ApplyMove(base, tc.participant, tc.cell)
			assert.False(t, ok)
			assert.Equal(t, snapshot, got)
			assert.Equal(t, snapshot, base)
		})
	}
}

func TestAcceptedMoveDoesNotMutateInput(t *testing.T) {
	m := New()
	base := m.NewState()
	_, ok := m.ApplyMove(base, 0, 3)
	require.True(t, ok)
	assert.Equal(t, game.Empty, base.Cells[3])
	assert.Equal(t, 0, base.Turn)
}

func TestWinOnEveryLine(t *testing.T) {
	m := New()
	for _, line := range winLines {
		s := m.NewState()
		for _, c := range line {
			s.Cells[c] = game.MarkA
		}
		// Desfaz a última marca e deixa o participante 0 fechar a linha.
		s.Cells[line[2]] = game.Empty

		next, ok := m.ApplyMove(s, 0, line[2])
		require.True(t, ok, "line %v", line)
		require.NotNil(t, next.Result, "line %v", line)
		assert.Equal(t, game.ResultWin, next.Result.Kind)
		assert.Equal(t, 0, next.Result.Winner)
		assert.Equal(t, 0, next.Turn, "turn must stay with the winner")
	}
}

func TestSecondParticipantCanWin(t *testing.T) {
	s := play(t, 0, 3, 1, 4, 8, 5)
	require.NotNil(t, s.Result)
	assert.Equal(t, game.ResultWin, s.Result.Kind)
	assert.Equal(t, 1, s.Result.Winner)
	assert.Equal(t, 1, s.Turn)
}

func TestDraw(t *testing.T) {
	// A B A
	// A B B
	// B A A
	s := play(t, 0, 1, 2, 4, 3, 5, 7, 6, 8)
	require.NotNil(t, s.Result)
	assert.Equal(t, game.ResultDraw, s.Result.Kind)
}

func TestNoMovesAfterTerminal(t *testing.T) {
	m := New()
	s := play(t, 0, 3, 1, 4, 2)
	require.True(t, s.Terminal())

	for p := 0; p < 2; p++ {
		got, ok := m.ApplyMove(s, p, 8)
		assert.False(t, ok)
		assert.Equal(t, s, got)
	}
}

func TestStateJSON(t *testing.T) {
	s := play(t, 4, 0, 1, 3, 7)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"cells":["B","A",null,"B","A",null,null,"A",null],"turn":0,"result":{"kind":"win","winner":0}}`,
		string(raw))

	var back game.State
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s, back)
}
