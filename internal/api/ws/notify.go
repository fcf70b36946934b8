// Package ws pushes data-change notifications to connected clients so they
// can re-fetch instead of polling.
package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/bryceheller922-ship-it/Archaleon/internal/store"
)

const (
	writeDeadline = 5 * time.Second
	readDeadline  = 120 * time.Second // extended by pongs
	pingInterval  = 15 * time.Second
	readLimit     = 4 << 10
)

type versionEvent struct {
	Version uint64 `json:"version"`
}

// Notifier fans the store's change counter out to websocket clients. All
// operations on clients happen in the Run loop.
type Notifier struct {
	clients    map[*websocket.Conn]struct{}
	broadcast  chan uint64
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	bus        *store.Bus
}

func NewNotifier(bus *store.Bus) *Notifier {
	return &Notifier{
		clients:    make(map[*websocket.Conn]struct{}),
		broadcast:  make(chan uint64, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		bus:        bus,
	}
}

// Run subscribes to the bus and serves the client set until stop is closed.
func (n *Notifier) Run(stop <-chan struct{}) {
	cancel := n.bus.Subscribe(func(version uint64) {
		select {
		case n.broadcast <- version:
		default: // a slow loop only costs clients an intermediate version
		}
	})
	defer cancel()

	for {
		select {
		case <-stop:
			close(n.done)
			for conn := range n.clients {
				_ = conn.Close()
			}
			return

		case conn := <-n.register:
			n.clients[conn] = struct{}{}
			log.Printf("[Notify] Client connected (%d active)", len(n.clients))

		case conn := <-n.unregister:
			if _, ok := n.clients[conn]; ok {
				_ = conn.Close()
				delete(n.clients, conn)
				log.Printf("[Notify] Client disconnected (%d active)", len(n.clients))
			}

		case version := <-n.broadcast:
			for conn := range n.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
				if err := conn.WriteJSON(versionEvent{Version: version}); err != nil {
					log.Printf("[Notify] Push failed: %v", err)
					_ = conn.Close()
					delete(n.clients, conn)
				}
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true }, // TODO: restrict to the web client origin
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades the connection and sends the current version immediately
// so a reconnecting client knows whether it missed anything.
func (n *Notifier) Handler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("[Notify] Upgrade error:", err)
		return
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := conn.WriteJSON(versionEvent{Version: n.bus.Version()}); err != nil {
		_ = conn.Close()
		return
	}

	select {
	case n.register <- conn:
	case <-n.done:
		_ = conn.Close()
		return
	}
	go n.pingLoop(conn)
	go n.readLoop(conn)
}

// drop hands the connection back to the Run loop. After shutdown nobody
// drains unregister, so the connection is closed directly instead.
func (n *Notifier) drop(conn *websocket.Conn) {
	select {
	case n.unregister <- conn:
	case <-n.done:
		_ = conn.Close()
	}
}

func (n *Notifier) pingLoop(conn *websocket.Conn) {
	t := time.NewTicker(pingInterval)
	defer t.Stop()
	for {
		select {
		case <-n.done:
			return
		case <-t.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				n.drop(conn)
				return
			}
		}
	}
}

// readLoop drains incoming frames; clients only listen, so any read error
// means the connection is gone.
func (n *Notifier) readLoop(conn *websocket.Conn) {
	defer n.drop(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
