package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"goldenglow/internal/game"
	"goldenglow/internal/game/tictactoe"
	"goldenglow/internal/network"
	"goldenglow/internal/session/message"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "server host:port")
	bots := flag.Int("n", 2, "number of concurrent bots")
	games := flag.Int("games", 0, "games per bot before exiting (0 = forever)")
	think := flag.Duration("think", 300*time.Millisecond, "max think time before each move")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < *bots; i++ {
		name := fmt.Sprintf("bot-%d", i)
		g.Go(func() error {
			return runBot(gctx, name, u.String(), *games, *think)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("FAIL: %v", err)
	}
}

// runBot busca partidas e joga células livres aleatórias até completar games.
func runBot(ctx context.Context, name, url string, games int, think time.Duration) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("%s: connect: %w", name, err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var (
		sessionID string
		me        int
		played    int
	)

	if err := send(conn, message.TypeFindMatch, message.FindMatchPayload{GameType: tictactoe.GameType}); err != nil {
		return err
	}

	for {
		var msg network.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s: read: %w", name, err)
		}

		switch msg.Type {
		case message.TypeMatchFound:
			var p message.MatchFoundPayload
			if err := msg.Decode(&p); err != nil {
				return err
			}
			sessionID = p.SessionID
			me = lo.Ternary(p.MovesFirst, 0, 1)
			log.Printf("%s: match %s against %s", name, p.SessionID, p.OpponentID)

		case message.TypeStateUpdate:
			var p message.StateUpdatePayload
			if err := msg.Decode(&p); err != nil {
				return err
			}
			if p.SessionID != sessionID {
				continue
			}
			if p.State.Terminal() {
				played++
				log.Printf("%s: session %s finished (%s)", name, sessionID, describe(p.State, me))
				if games > 0 && played >= games {
					return nil
				}
				if err := send(conn, message.TypeFindMatch, message.FindMatchPayload{GameType: tictactoe.GameType}); err != nil {
					return err
				}
				continue
			}
			if p.State.Turn != me {
				continue
			}
			time.Sleep(time.Duration(rng.Int63n(int64(think) + 1)))
			cell := pickCell(rng, p.State)
			if err := send(conn, message.TypeMove, message.Move(sessionID, cell)); err != nil {
				return err
			}

		case message.TypeOpponentDisconnected:
			log.Printf("%s: opponent left, searching again", name)
			if err := send(conn, message.TypeFindMatch, message.FindMatchPayload{GameType: tictactoe.GameType}); err != nil {
				return err
			}

		case message.TypeError:
			var p message.ErrorPayload
			_ = msg.Decode(&p)
			log.Printf("%s: server error %s: %s", name, p.Code, p.Message)
		}
	}
}

func send(conn *websocket.Conn, msgType string, payload any) error {
	msg, err := network.NewMessage(msgType, payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func pickCell(rng *rand.Rand, s game.State) int {
	free := lo.FilterMap(s.Cells, func(m game.Mark, i int) (int, bool) {
		return i, m == game.Empty
	})
	return free[rng.Intn(len(free))]
}

func describe(s game.State, me int) string {
	switch {
	case s.Result.Kind == game.ResultDraw:
		return "draw"
	case s.Result.Winner == me:
		return "win"
	default:
		return "loss"
	}
}
