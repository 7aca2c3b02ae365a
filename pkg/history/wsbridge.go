package history

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wayfind-dev/wayfind/pkg/location"
)

// Message types exchanged with the browser shim.
const (
	msgInit     = "init"     // server -> client, current location on connect
	msgPush     = "push"     // server -> client, router pushed an entry
	msgPopstate = "popstate" // client -> server, user hit back/forward
)

// wireMessage is the JSON frame exchanged over the bridge.
type wireMessage struct {
	Type     string `json:"type"`
	Location string `json:"location"`
}

// BridgeConfig configures a Bridge.
type BridgeConfig struct {
	// Initial is the starting location, used until a client connects.
	Initial string

	// ReadTimeout bounds how long a connection may stay silent. The
	// browser shim pings within this window. Default: 60s.
	ReadTimeout time.Duration

	// WriteTimeout bounds each outbound write. Default: 10s.
	WriteTimeout time.Duration

	// CheckOrigin overrides the upgrader's origin check. Defaults to
	// same-origin.
	CheckOrigin func(r *http.Request) bool

	Logger *slog.Logger
}

// Bridge mirrors a browser's history over a WebSocket. It implements the
// router's LocationSource: Push broadcasts to connected clients so the
// browser address bar follows the router, and incoming popstate frames
// are delivered to subscribers so the router follows the browser.
type Bridge struct {
	upgrader     websocket.Upgrader
	logger       *slog.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration

	mu      sync.Mutex
	current location.Location
	subs    map[int]func(location.Location)
	nextID  int
	conns   map[*websocket.Conn]*sync.Mutex // per-connection write lock
}

// NewBridge creates a bridge. Serve it on the route the browser shim
// connects to, typically /_wayfind/history.
func NewBridge(cfg BridgeConfig) *Bridge {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     cfg.CheckOrigin,
		},
		logger:       logger,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		current:      location.Parse(cfg.Initial),
		subs:         map[int]func(location.Location){},
		conns:        map[*websocket.Conn]*sync.Mutex{},
	}
}

// Read returns the last known browser location.
func (b *Bridge) Read() location.Location {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Push records the entry and broadcasts it so connected clients call
// history.pushState.
func (b *Bridge) Push(loc location.Location) {
	b.mu.Lock()
	b.current = loc
	conns := make(map[*websocket.Conn]*sync.Mutex, len(b.conns))
	for c, l := range b.conns {
		conns[c] = l
	}
	b.mu.Unlock()

	msg := wireMessage{Type: msgPush, Location: loc.String()}
	for conn, lock := range conns {
		b.write(conn, lock, msg)
	}
}

// Subscribe registers a callback for popstate frames from the browser.
func (b *Bridge) Subscribe(onChange func(location.Location)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = onChange
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Error("history bridge upgrade failed", "error", err)
		return
	}

	lock := &sync.Mutex{}
	b.mu.Lock()
	b.conns[conn] = lock
	current := b.current
	b.mu.Unlock()

	b.write(conn, lock, wireMessage{Type: msgInit, Location: current.String()})
	go b.readLoop(conn, lock)
}

// readLoop reads frames until the connection closes or errors.
func (b *Bridge) readLoop(conn *websocket.Conn, lock *sync.Mutex) {
	defer b.drop(conn)

	for {
		conn.SetReadDeadline(time.Now().Add(b.readTimeout))

		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				b.logger.Error("history bridge read error", "error", err)
			}
			return
		}

		switch msg.Type {
		case msgPopstate:
			b.handlePopstate(msg.Location)
		default:
			b.logger.Warn("unknown history frame", "type", msg.Type)
		}
	}
}

// handlePopstate updates the known location and notifies subscribers.
func (b *Bridge) handlePopstate(raw string) {
	loc := location.Parse(raw)

	b.mu.Lock()
	b.current = loc
	subs := make([]func(location.Location), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	b.logger.Debug("popstate", "location", loc.String())
	for _, fn := range subs {
		fn(loc)
	}
}

func (b *Bridge) write(conn *websocket.Conn, lock *sync.Mutex, msg wireMessage) {
	lock.Lock()
	defer lock.Unlock()

	conn.SetWriteDeadline(time.Now().Add(b.writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		b.logger.Error("history bridge write failed", "error", err)
	}
}

func (b *Bridge) drop(conn *websocket.Conn) {
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()
	conn.Close()
}

// Close drops all connections.
func (b *Bridge) Close() {
	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.conns))
	for c := range b.conns {
		conns = append(conns, c)
	}
	b.conns = map[*websocket.Conn]*sync.Mutex{}
	b.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}
