// Package builtin conhece todas as máquinas de estado compiladas no binário.
package builtin

import (
	"github.com/cockroachdb/errors"

	"goldenglow/internal/game"
	"goldenglow/internal/game/tictactoe"
)

var factories = map[string]func() game.StateMachine{
	tictactoe.GameType: func() game.StateMachine { return tictactoe.New() },
}

// Known informa se existe implementação para o tipo de jogo.
func Known(gameType string) bool {
	_, ok := factories[gameType]
	return ok
}

// Catalog monta o catálogo com os tipos habilitados na configuração.
func Catalog(types []string) (*game.Catalog, error) {
	machines := make([]game.StateMachine, 0, len(types))
	for _, t := range types {
		factory, ok := factories[t]
		if !ok {
			return nil, errors.Wrapf(game.ErrUnknownGameType, "%q", t)
		}
		machines = append(machines, factory())
	}
	return game.NewCatalog(machines...), nil
}
