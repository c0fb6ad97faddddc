package network

import "time"

// Peer é a visão que a lógica do jogo tem de uma conexão: um identificador
// estável e um jeito de enfileirar mensagens de saída.
type Peer interface {
	ID() string

	// Send enfileira a mensagem sem bloquear. Devolve false quando a conexão
	// já foi encerrada ou não acompanhou o ritmo e foi derrubada.
	Send(msg Message) bool
}

// EventHandler é a interface que conecta a lógica da rede com a lógica do jogo.
// Todos os métodos são chamados pela goroutine do Hub, um evento por vez.
type EventHandler interface {
	OnConnect(p Peer)
	OnDisconnect(p Peer)
	OnMessage(p Peer, msg Message)

	// OnTick é chamado periodicamente pelo Hub, se configurado.
	OnTick(now time.Time)
}
