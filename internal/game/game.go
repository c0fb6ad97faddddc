// Package game define o contrato de uma máquina de estados de jogo por turnos
// e o catálogo de tipos de jogo disponíveis no servidor.
package game

import (
	"encoding/json"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrUnknownGameType é devolvido quando um tipo de jogo não está no catálogo.
var ErrUnknownGameType = errors.New("game: unknown game type")

// Mark é o conteúdo de uma célula do tabuleiro.
type Mark uint8

const (
	Empty Mark = iota
	MarkA
	MarkB
)

// MarkFor devolve a marca do participante de índice 0 ou 1.
func MarkFor(participant int) Mark {
	if participant == 0 {
		return MarkA
	}
	return MarkB
}

func (m Mark) String() string {
	switch m {
	case MarkA:
		return "A"
	case MarkB:
		return "B"
	default:
		return " "
	}
}

// MarshalJSON codifica a célula como null, "A" ou "B".
func (m Mark) MarshalJSON() ([]byte, error) {
	switch m {
	case MarkA:
		return []byte(`"A"`), nil
	case MarkB:
		return []byte(`"B"`), nil
	default:
		return []byte(`null`), nil
	}
}

func (m *Mark) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode mark")
	}
	switch {
	case raw == nil:
		*m = Empty
	case *raw == "A":
		*m = MarkA
	case *raw == "B":
		*m = MarkB
	default:
		return errors.Newf("invalid mark %q", *raw)
	}
	return nil
}

// ResultKind diferencia vitória de empate.
type ResultKind string

const (
	ResultWin  ResultKind = "win"
	ResultDraw ResultKind = "draw"
)

// Result descreve o desfecho de uma partida terminada.
// Winner só tem significado quando Kind == ResultWin.
type Result struct {
	Kind   ResultKind
	Winner int
}

type resultJSON struct {
	Kind   ResultKind `json:"kind"`
	Winner *int       `json:"winner,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Kind: r.Kind}
	if r.Kind == ResultWin {
		winner := r.Winner
		out.Winner = &winner
	}
	return json.Marshal(out)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var in resultJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(err, "decode result")
	}
	r.Kind = in.Kind
	r.Winner = 0
	if in.Winner != nil {
		r.Winner = *in.Winner
	}
	return nil
}

// State é o estado autoritativo de uma partida. Result == nil significa
// partida em andamento; uma vez preenchido o estado não muda mais.
type State struct {
	Cells  []Mark  `json:"cells"`
	Turn   int     `json:"turn"`
	Result *Result `json:"result"`
}

// Terminal informa se a partida já acabou (vitória ou empate).
func (s State) Terminal() bool {
	return s.Result != nil
}

// Clone faz uma cópia profunda, para que quem aplica jogadas nunca toque no
// slice de células do estado original.
func (s State) Clone() State {
	next := State{
		Cells: append([]Mark(nil), s.Cells...),
		Turn:  s.Turn,
	}
	if s.Result != nil {
		r := *s.Result
		next.Result = &r
	}
	return next
}

// StateMachine é implementada uma vez por tipo de jogo. ApplyMove precisa ser
// determinística e nunca alterar o estado recebido: uma jogada rejeitada
// devolve o próprio estado e false.
type StateMachine interface {
	GameType() string
	NewState() State
	ApplyMove(s State, participant, cell int) (State, bool)
}

// Catalog resolve um tipo de jogo para a sua máquina de estados.
// É montado uma vez no startup e só é lido depois disso.
type Catalog struct {
	machines map[string]StateMachine
}

func NewCatalog(machines ...StateMachine) *Catalog {
	c := &Catalog{machines: make(map[string]StateMachine, len(machines))}
	for _, m := range machines {
		c.machines[m.GameType()] = m
	}
	return c
}

func (c *Catalog) Lookup(gameType string) (StateMachine, bool) {
	m, ok := c.machines[gameType]
	return m, ok
}

// Must devolve a máquina ou ErrUnknownGameType.
func (c *Catalog) Must(gameType string) (StateMachine, error) {
	m, ok := c.Lookup(gameType)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownGameType, "%q", gameType)
	}
	return m, nil
}

// Types lista os tipos de jogo registrados em ordem alfabética.
func (c *Catalog) Types() []string {
	types := lo.Keys(c.machines)
	sort.Strings(types)
	return types
}
