package ws

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Cliente é uma conexão de dashboard autenticada. Um usuário pode ter
// mais de uma conexão aberta (abas); todas recebem as notificações dele.
type Cliente struct {
	ID     string
	UserID string
	Send   chan []byte
}

type envioUsuario struct {
	userID string
	msg    []byte
}

// Hub roteia eventos de domínio para os dashboards conectados:
// broadcast para todos ou entrega dirigida por usuário.
type Hub struct {
	mu       sync.RWMutex
	clientes map[string]*Cliente            // id da conexão -> cliente
	usuarios map[string]map[string]*Cliente // user_id -> conexões

	register chan *Cliente
	unreg    chan *Cliente

	sendAll chan []byte
	sendOne chan envioUsuario

	log     *slog.Logger
	stop    chan struct{}
	stopped chan struct{}

	nextID atomic.Uint64
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clientes: make(map[string]*Cliente),
		usuarios: make(map[string]map[string]*Cliente),
		register: make(chan *Cliente),
		unreg:    make(chan *Cliente),
		sendAll:  make(chan []byte, 1024),
		sendOne:  make(chan envioUsuario, 1024),
		log:      log.With("cmp", "ws.hub"),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (h *Hub) newID() string {
	id := h.nextID.Add(1)
	return fmt.Sprintf("c%d", id)
}

func (h *Hub) Run() {
	h.log.Info("hub_run_start")
	defer close(h.stopped)

	for {
		select {
		case c := <-h.register:
			if c.ID == "" {
				c.ID = h.newID()
			}
			h.mu.Lock()
			h.clientes[c.ID] = c
			if c.UserID != "" {
				if h.usuarios[c.UserID] == nil {
					h.usuarios[c.UserID] = make(map[string]*Cliente)
				}
				h.usuarios[c.UserID][c.ID] = c
			}
			total := len(h.clientes)
			h.mu.Unlock()
			h.log.Info("client_registered", "id", c.ID, "user_id", c.UserID, "total", total)

		case c := <-h.unreg:
			h.mu.Lock()
			h.removerLocked(c)
			total := len(h.clientes)
			h.mu.Unlock()
			h.log.Info("client_unregistered", "id", c.ID, "total", total)

		case msg := <-h.sendAll:
			h.mu.Lock()
			for _, c := range h.clientes {
				h.entregarLocked(c, msg)
			}
			h.mu.Unlock()

		case u := <-h.sendOne:
			h.mu.Lock()
			conexoes := h.usuarios[u.userID]
			if len(conexoes) == 0 {
				h.mu.Unlock()
				h.log.Debug("send_user_miss", "user_id", u.userID)
				continue
			}
			for _, c := range conexoes {
				h.entregarLocked(c, u.msg)
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for _, c := range h.clientes {
				close(c.Send)
			}
			h.clientes = make(map[string]*Cliente)
			h.usuarios = make(map[string]map[string]*Cliente)
			h.mu.Unlock()
			h.log.Info("hub_run_stop")
			return
		}
	}
}

// entregarLocked tenta enviar sem bloquear; conexão lenta é removida
// para não travar o hub.
func (h *Hub) entregarLocked(c *Cliente, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		h.removerLocked(c)
		h.log.Warn("client_drop_slow", "id", c.ID, "user_id", c.UserID)
	}
}

func (h *Hub) removerLocked(c *Cliente) {
	if c == nil || c.ID == "" {
		return
	}
	if _, ok := h.clientes[c.ID]; !ok {
		return
	}
	delete(h.clientes, c.ID)
	if c.UserID != "" {
		delete(h.usuarios[c.UserID], c.ID)
		if len(h.usuarios[c.UserID]) == 0 {
			delete(h.usuarios, c.UserID)
		}
	}
	close(c.Send)
}

func (h *Hub) Stop() {
	close(h.stop)
	<-h.stopped
}

func (h *Hub) Register(c *Cliente)   { h.register <- c }
func (h *Hub) Unregister(c *Cliente) { h.unreg <- c }

func (h *Hub) Broadcast(b []byte) { h.sendAll <- b }

func (h *Hub) EnviarParaUsuario(userID string, b []byte) {
	h.sendOne <- envioUsuario{userID: userID, msg: b}
}
