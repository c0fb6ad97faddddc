package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoHandler devolve cada mensagem ao remetente e entra em pânico com "boom".
type echoHandler struct {
	disconnected chan string
	ticks        chan time.Time
}

func newEchoHandler() *echoHandler {
	return &echoHandler{
		disconnected: make(chan string, 8),
		ticks:        make(chan time.Time, 8),
	}
}

func (h *echoHandler) OnConnect(Peer) {}

func (h *echoHandler) OnDisconnect(p Peer) { h.disconnected <- p.ID() }

func (h *echoHandler) OnMessage(p Peer, msg Message) {
	if msg.Type == "boom" {
		panic("handler exploded")
	}
	p.Send(msg)
}

func (h *echoHandler) OnTick(now time.Time) {
	select {
	case h.ticks <- now:
	default:
	}
}

func startHub(t *testing.T, h EventHandler, opts ...Option) (*Server, string) {
	t.Helper()
	s := NewServer(h, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()

	srv := httptest.NewServer(s)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return s, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialAs(t *testing.T, url, id string) *websocket.Conn {
	t.Helper()
	h := http.Header{}
	h.Set("X-Participant-Id", id)
	conn, _, err := websocket.DefaultDialer.Dial(url, h)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubSurvivesHandlerPanic(t *testing.T) {
	_, url := startHub(t, newEchoHandler(), WithIdentity(HeaderIdentity("X-Participant-Id")))
	conn := dialAs(t, url, "p1")

	require.NoError(t, conn.WriteJSON(Message{Type: "boom"}))
	require.NoError(t, conn.WriteJSON(Message{Type: "echo"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "echo", got.Type)
}

func TestHubReportsDisconnect(t *testing.T) {
	h := newEchoHandler()
	s, url := startHub(t, h, WithIdentity(HeaderIdentity("X-Participant-Id")))
	conn := dialAs(t, url, "p1")

	// Ida e volta para garantir o registro antes de fechar.
	require.NoError(t, conn.WriteJSON(Message{Type: "echo"}))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))

	require.NoError(t, conn.Close())
	select {
	case id := <-h.disconnected:
		assert.Equal(t, "p1", id)
	case <-time.After(3 * time.Second):
		t.Fatal("disconnect not delivered")
	}

	connected, err := s.Hub().Connected("p1")
	require.NoError(t, err)
	assert.False(t, connected)
}

func TestHubTicks(t *testing.T) {
	h := newEchoHandler()
	startHub(t, h, WithTickInterval(10*time.Millisecond))

	select {
	case <-h.ticks:
	case <-time.After(3 * time.Second):
		t.Fatal("no tick")
	}
}

func TestHeaderIdentityFallsBackToAnonymous(t *testing.T) {
	fn := HeaderIdentity("X-Participant-Id")

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("X-Participant-Id", "  alice ")
	id, err := fn(r)
	require.NoError(t, err)
	assert.Equal(t, "alice", id)

	id, err = fn(httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.NoError(t, err)
	assert.Len(t, id, 36)
}

func TestSendClosesSlowClient(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	// Sem writeLoop, o buffer de 1 enche na segunda mensagem.
	c := newClient("slow", conn, nil, 1)
	assert.True(t, c.Send(Message{Type: "a"}))
	assert.False(t, c.Send(Message{Type: "b"}))
	assert.False(t, c.Send(Message{Type: "c"}))

	_, ok := <-c.send
	assert.True(t, ok, "queued message is still delivered in order")
	_, ok = <-c.send
	assert.False(t, ok, "channel is closed after the overflow")
}

func TestMessageDecode(t *testing.T) {
	msg, err := NewMessage("move", map[string]any{"sessionId": "s1", "cellIndex": 4})
	require.NoError(t, err)

	var p struct {
		SessionID string `json:"sessionId"`
		CellIndex int    `json:"cellIndex"`
	}
	require.NoError(t, msg.Decode(&p))
	assert.Equal(t, "s1", p.SessionID)
	assert.Equal(t, 4, p.CellIndex)

	assert.Error(t, Message{Type: "move", Payload: []byte(`"nope"`)}.Decode(&p))
	assert.NoError(t, Message{Type: "move"}.Decode(&p))
}
