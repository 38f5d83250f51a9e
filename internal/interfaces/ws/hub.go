// Package ws difunde las transiciones de lotes a clientes WebSocket.
// El estado persistido del lote sigue siendo la fuente de verdad; los clientes pueden perder eventos.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/qrcert-api/internal/application/ports"
	"github.com/jhoicas/qrcert-api/internal/domain/entity"
)

// Client conexión suscrita. *websocket.Conn la implementa.
type Client interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// subscription cliente con el actor autenticado que abrió la conexión.
type subscription struct {
	client Client
	actor  entity.Actor
}

var _ ports.BatchEventPublisher = (*Hub)(nil)

// Hub registro de clientes y difusión de eventos.
// Cada evento llega solo a los clientes cuyo actor puede ver el alcance del lote.
type Hub struct {
	clients    map[Client]entity.Actor
	register   chan subscription
	unregister chan Client
	broadcast  chan ports.BatchEvent
	done       chan struct{}
	mutex      sync.Mutex
	log        zerolog.Logger
}

// NewHub construye el hub. buffer es la capacidad de la cola de eventos pendientes de difundir.
func NewHub(buffer int, log zerolog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	return &Hub{
		clients:    make(map[Client]entity.Actor),
		register:   make(chan subscription),
		unregister: make(chan Client),
		broadcast:  make(chan ports.BatchEvent, buffer),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run atiende registros y difusiones hasta que ctx se cancela; entonces cierra todos los clientes.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				_ = c.Close()
				delete(h.clients, c)
			}
			h.mutex.Unlock()
			return

		case s := <-h.register:
			h.mutex.Lock()
			h.clients[s.client] = s.actor
			h.mutex.Unlock()
			h.log.Debug().Str("user_id", s.actor.UserID).Str("role", s.actor.Role).Msg("cliente ws conectado")

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				_ = c.Close()
			}
			h.mutex.Unlock()

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev ports.BatchEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c, actor := range h.clients {
		if !actor.CanView(ev.Scope) {
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
			_ = c.Close()
			delete(h.clients, c)
		}
	}
}

// Publish encola el evento sin bloquear al procesador. Si la cola está llena el evento se descarta.
func (h *Hub) Publish(ev ports.BatchEvent) {
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn().Str("batch_id", ev.BatchID).Msg("cola ws llena, evento descartado")
	}
}

// Clients cantidad de clientes conectados.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Handler atiende una conexión: la registra con el actor guardado en Locals bajo actorKey
// y espera a que el cliente cierre. Sin actor la conexión se cierra. Los mensajes entrantes se ignoran.
func (h *Hub) Handler(actorKey string) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		actor, ok := c.Locals(actorKey).(entity.Actor)
		if !ok {
			_ = c.Close()
			return
		}
		if !h.subscribe(c, actor) {
			return
		}
		defer h.leave(c)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// subscribe registra c salvo que el hub ya haya terminado.
func (h *Hub) subscribe(c Client, actor entity.Actor) bool {
	select {
	case h.register <- subscription{client: c, actor: actor}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
