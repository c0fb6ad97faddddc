package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"goldenglow/internal/game"
	"goldenglow/internal/game/tictactoe"
	"goldenglow/internal/network"
	"goldenglow/internal/session/message"
)

// view guarda o que o terminal sabe da partida atual. É escrito pelo
// readLoop e lido pelo loop de entrada.
type view struct {
	mu         sync.Mutex
	sessionID  string
	opponent   string
	movesFirst bool
	state      game.State
}

func (v *view) me() int {
	if v.movesFirst {
		return 0
	}
	return 1
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server host:port")
	path := flag.String("path", "/ws", "websocket path")
	id := flag.String("id", "", "participant id sent in the identity header (optional)")
	header := flag.String("header", "X-Participant-Id", "identity header name")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: *addr, Path: *path}
	h := http.Header{}
	if *id != "" {
		h.Set(*header, *id)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), h)
	if err != nil {
		if resp != nil {
			log.Fatalf("Falha ao conectar a %s: %v (status %s)", u.String(), err, resp.Status)
		}
		log.Fatalf("Falha ao conectar a %s: %v", u.String(), err)
	}
	defer conn.Close()
	log.Printf("Conectado a %s", u.String())

	v := &view{}
	done := make(chan struct{})
	go readLoop(conn, v, done)

	go func() {
		printHelp()
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if !handleUserInput(conn, v, strings.TrimSpace(scanner.Text())) {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
		}
	}()

	select {
	case <-done:
		log.Println("Desconectado do servidor.")
	case <-interrupt:
		log.Println("Interrupção recebida, fechando conexão.")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}

func readLoop(conn *websocket.Conn, v *view, done chan struct{}) {
	defer close(done)
	for {
		var msg network.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Erro de leitura: %v", err)
			}
			return
		}
		printServerMessage(v, msg)
	}
}

func printServerMessage(v *view, msg network.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch msg.Type {
	case message.TypeWaiting:
		fmt.Println("\nNa fila, aguardando um oponente...")

	case message.TypeMatchFound:
		var p message.MatchFoundPayload
		if msg.Decode(&p) != nil {
			return
		}
		v.sessionID, v.opponent, v.movesFirst = p.SessionID, p.OpponentID, p.MovesFirst
		fmt.Printf("\nPartida encontrada contra %s (sessão %s). Você é %s.\n",
			p.OpponentID, p.SessionID, game.MarkFor(v.me()))

	case message.TypeStateUpdate:
		var p message.StateUpdatePayload
		if msg.Decode(&p) != nil || p.SessionID != v.sessionID {
			return
		}
		v.state = p.State
		fmt.Println()
		fmt.Print(renderBoard(p.State))
		fmt.Println(statusLine(p.State, v.me()))

	case message.TypeOpponentDisconnected:
		fmt.Println("\nO oponente saiu. Digite 'find' para jogar de novo.")
		v.sessionID = ""

	case message.TypeError:
		var p message.ErrorPayload
		_ = msg.Decode(&p)
		fmt.Printf("\nErro (%s): %s\n", p.Code, p.Message)

	default:
		fmt.Printf("\nInfo (%s): %s\n", msg.Type, string(msg.Payload))
	}
	fmt.Print("> ")
}

// handleUserInput devolve false quando o usuário pede para sair.
func handleUserInput(conn *websocket.Conn, v *view, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		fmt.Print("> ")
		return true
	}

	var (
		msg network.Message
		err error
	)
	switch fields[0] {
	case "find":
		gameType := tictactoe.GameType
		if len(fields) > 1 {
			gameType = fields[1]
		}
		msg, err = network.NewMessage(message.TypeFindMatch, message.FindMatchPayload{GameType: gameType})

	case "move":
		if len(fields) < 2 {
			fmt.Print("Uso: move <0-8>\n> ")
			return true
		}
		cell, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			fmt.Print("Entrada inválida. Por favor, digite um número.\n> ")
			return true
		}
		v.mu.Lock()
		sessionID := v.sessionID
		v.mu.Unlock()
		msg, err = network.NewMessage(message.TypeMove, message.Move(sessionID, cell))

	case "board":
		v.mu.Lock()
		if v.sessionID == "" {
			fmt.Println("Nenhuma partida em andamento.")
		} else {
			fmt.Print(renderBoard(v.state))
			fmt.Println(statusLine(v.state, v.me()))
		}
		v.mu.Unlock()
		fmt.Print("> ")
		return true

	case "quit", "exit":
		return false

	default:
		printHelp()
		return true
	}

	if err != nil {
		log.Printf("Erro ao montar mensagem: %v", err)
		return true
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("Erro ao enviar mensagem: %v", err)
	}
	return true
}

func renderBoard(s game.State) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			i := row*3 + col
			if i < len(s.Cells) && s.Cells[i] != game.Empty {
				cells[col] = s.Cells[i].String()
			} else {
				cells[col] = strconv.Itoa(i)
			}
		}
		sb.WriteString(" " + strings.Join(cells, " | ") + "\n")
		if row < 2 {
			sb.WriteString("---+---+---\n")
		}
	}
	return sb.String()
}

func statusLine(s game.State, me int) string {
	switch {
	case s.Result == nil && s.Turn == me:
		return "Sua vez."
	case s.Result == nil:
		return "Vez do oponente."
	case s.Result.Kind == game.ResultDraw:
		return "Empate! Digite 'find' para jogar de novo."
	case s.Result.Winner == me:
		return "Você venceu! Digite 'find' para jogar de novo."
	default:
		return "Você perdeu. Digite 'find' para jogar de novo."
	}
}

func printHelp() {
	fmt.Print(`
--- Golden Glow ---
find [tipo]   buscar partida (padrão: tic-tac-toe)
move <0-8>    jogar na célula
board         mostrar o tabuleiro
quit          sair
-------------------
> `)
}
