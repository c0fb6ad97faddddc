package network

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"goldenglow/internal/obslog"
)

// IdentityFunc resolve o identificador do participante antes do upgrade.
type IdentityFunc func(r *http.Request) (string, error)

// AnonymousIdentity dá um UUID novo para cada conexão.
func AnonymousIdentity(*http.Request) (string, error) {
	return uuid.NewString(), nil
}

// HeaderIdentity confia no identificador colocado por uma camada de
// autenticação na frente do servidor e cai para anônimo quando ele falta.
func HeaderIdentity(header string) IdentityFunc {
	return func(r *http.Request) (string, error) {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
			return id, nil
		}
		return AnonymousIdentity(r)
	}
}

// Server promove requisições HTTP para WebSocket e entrega os clientes ao Hub.
type Server struct {
	hub        *Hub
	upgrader   websocket.Upgrader
	identity   IdentityFunc
	sendBuffer int
}

type Option func(*Server)

func WithIdentity(fn IdentityFunc) Option {
	return func(s *Server) { s.identity = fn }
}

func WithSendBuffer(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.sendBuffer = n
		}
	}
}

func WithTickInterval(d time.Duration) Option {
	return func(s *Server) { s.hub.tickInterval = d }
}

// WithCheckOrigin restringe as origens aceitas no upgrade.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) { s.upgrader.CheckOrigin = fn }
}

// NewServer recebe o EventHandler e o repassa ao Hub.
// Este é o ponto de injeção da lógica do jogo.
func NewServer(handler EventHandler, opts ...Option) *Server {
	s := &Server{
		hub: NewHub(handler, 0),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		identity:   AnonymousIdentity,
		sendBuffer: 64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run mantém o Hub vivo até ctx ser cancelado.
func (s *Server) Run(ctx context.Context) error {
	return s.hub.Run(ctx)
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// ServeHTTP é o ponto de entrada das conexões de clientes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := obslog.L()

	id, err := s.identity(r)
	if err != nil {
		log.Debug("ws_identity_rejected", zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	busy, err := s.hub.Connected(id)
	if err != nil {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if busy {
		log.Info("ws_duplicate_participant", zap.String("participant_id", id))
		http.Error(w, "participant already connected", http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// O upgrader já respondeu com o erro HTTP.
		log.Debug("ws_upgrade_failed", zap.Error(err))
		return
	}

	client := newClient(id, conn, s.hub, s.sendBuffer)
	if err := s.hub.join(client); err != nil {
		code := websocket.CloseTryAgainLater
		if errors.Is(err, ErrDuplicateParticipant) {
			code = websocket.ClosePolicyViolation
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	log.Debug("ws_connected",
		zap.String("participant_id", id),
		zap.String("remote_addr", r.RemoteAddr),
	)
	go client.writeLoop()
	go client.readLoop()
}
