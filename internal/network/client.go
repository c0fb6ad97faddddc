package network

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goldenglow/internal/obslog"
)

const (
	// Tempo para aguardar por uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo para aguardar por uma resposta de pong do cliente.
	pongWait = 60 * time.Second

	// Frequência dos pings. Deve ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Client é uma conexão WebSocket registrada no Hub.
type Client struct {
	id   string
	conn *websocket.Conn
	hub  *Hub

	// O Hub coloca mensagens aqui e o writeLoop as envia; o buffer evita que
	// um cliente lento trave o Hub.
	send chan Message

	mu     sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, hub *Hub, buffer int) *Client {
	return &Client{
		id:   id,
		conn: conn,
		hub:  hub,
		send: make(chan Message, buffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Send nunca bloqueia. Se o buffer estiver cheio a conexão é fechada: o
// readLoop falha em seguida e o Hub processa a desconexão normalmente.
func (c *Client) Send(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		obslog.L().Warn("client_send_buffer_full",
			zap.String("participant_id", c.id),
			zap.Int("buffer", cap(c.send)),
		)
		c.closed = true
		close(c.send)
		c.conn.Close()
		return false
	}
}

// shutdown fecha o canal de envio; o writeLoop manda o frame de close e sai.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				obslog.L().Debug("client_read_failed",
					zap.String("participant_id", c.id),
					zap.Error(err),
				)
			}
			// Frame que não é JSON válido também encerra a conexão.
			return
		}
		if !c.hub.deliver(clientMessage{client: c, msg: msg}) {
			return
		}
	}
}

// writeLoop bombeia mensagens do canal send para a conexão WebSocket.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				obslog.L().Debug("client_write_failed",
					zap.String("participant_id", c.id),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
