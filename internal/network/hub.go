package network

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"goldenglow/internal/metrics"
	"goldenglow/internal/obslog"
)

var (
	// ErrDuplicateParticipant é devolvido quando o identificador já está conectado.
	ErrDuplicateParticipant = errors.New("network: participant already connected")
	// ErrHubStopped é devolvido por operações feitas depois que Run terminou.
	ErrHubStopped = errors.New("network: hub stopped")
)

// clientMessage empacota uma mensagem com o cliente que a enviou.
type clientMessage struct {
	client *Client
	msg    Message
}

type registration struct {
	client *Client
	reply  chan error
}

type lookup struct {
	id    string
	reply chan bool
}

// Hub mantém o conjunto de clientes ativos e roteia eventos para o handler.
// Tudo que chega ao EventHandler passa pela goroutine de Run, em ordem.
type Hub struct {
	// Acessado SOMENTE pela goroutine do Hub.
	clients map[string]*Client

	register   chan registration
	unregister chan *Client
	incoming   chan clientMessage
	lookups    chan lookup
	done       chan struct{}

	handler      EventHandler
	tickInterval time.Duration
}

// NewHub cria o Hub. tickInterval <= 0 desliga o OnTick.
func NewHub(handler EventHandler, tickInterval time.Duration) *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		register:     make(chan registration),
		unregister:   make(chan *Client),
		incoming:     make(chan clientMessage),
		lookups:      make(chan lookup),
		done:         make(chan struct{}),
		handler:      handler,
		tickInterval: tickInterval,
	}
}

// Run processa eventos até ctx ser cancelado. Ao sair, fecha todas as conexões.
func (h *Hub) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if h.tickInterval > 0 {
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			h.stop()
			return nil

		case r := <-h.register:
			if _, exists := h.clients[r.client.id]; exists {
				r.reply <- ErrDuplicateParticipant
				continue
			}
			h.clients[r.client.id] = r.client
			metrics.ConnectedPeers.Set(float64(len(h.clients)))
			r.reply <- nil
			h.safely("connect", r.client.id, func() { h.handler.OnConnect(r.client) })

		case c := <-h.unregister:
			// Um cliente substituído não pode derrubar o registro do atual.
			if h.clients[c.id] != c {
				continue
			}
			delete(h.clients, c.id)
			metrics.ConnectedPeers.Set(float64(len(h.clients)))
			c.shutdown()
			h.safely("disconnect", c.id, func() { h.handler.OnDisconnect(c) })

		case cm := <-h.incoming:
			if h.clients[cm.client.id] != cm.client {
				continue
			}
			h.safely(cm.msg.Type, cm.client.id, func() { h.handler.OnMessage(cm.client, cm.msg) })

		case q := <-h.lookups:
			_, ok := h.clients[q.id]
			q.reply <- ok

		case now := <-tick:
			h.safely("tick", "", func() { h.handler.OnTick(now) })
		}
	}
}

// safely isola um panic do handler no evento que o causou.
func (h *Hub) safely(event, participant string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			obslog.L().Error("hub_handler_panic",
				zap.String("event", event),
				zap.String("participant_id", participant),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	fn()
}

func (h *Hub) stop() {
	close(h.done)
	for id, c := range h.clients {
		c.shutdown()
		delete(h.clients, id)
	}
	metrics.ConnectedPeers.Set(0)
	obslog.L().Info("hub_stopped")
}

// Connected consulta, pela goroutine do Hub, se o identificador está em uso.
func (h *Hub) Connected(id string) (bool, error) {
	q := lookup{id: id, reply: make(chan bool, 1)}
	select {
	case h.lookups <- q:
	case <-h.done:
		return false, ErrHubStopped
	}
	return <-q.reply, nil
}

func (h *Hub) join(c *Client) error {
	r := registration{client: c, reply: make(chan error, 1)}
	select {
	case h.register <- r:
	case <-h.done:
		return ErrHubStopped
	}
	return <-r.reply
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) deliver(cm clientMessage) bool {
	select {
	case h.incoming <- cm:
		return true
	case <-h.done:
		return false
	}
}
