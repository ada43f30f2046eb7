// Package websocket pushes map and error-panel changes to browsers and
// receives their geolocation updates.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/ports"
	"github.com/lcalzada-xor/photomap/internal/geo"
	"github.com/lcalzada-xor/photomap/internal/telemetry"
)

// Message types exchanged with the browser.
const (
	TypeSnapshot    = "snapshot"
	TypeMarkerAdd   = "marker:add"
	TypeViewAnimate = "view:animate"
	TypePosition    = "position"
	TypeErrors      = "errors"
)

const (
	writeWait        = 5 * time.Second
	pingPeriod       = 30 * time.Second
	maxClientMessage = 4096
)

// DefaultAllowedOrigins is used when no allow-list is configured.
var DefaultAllowedOrigins = []string{
	"http://localhost:8080",
	"http://127.0.0.1:8080",
	"http://[::1]:8080",
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Snapshot is the full map state sent to a browser when it connects.
type Snapshot struct {
	Markers []domain.Marker   `json:"markers"`
	Live    domain.Marker     `json:"live"`
	View    domain.View       `json:"view"`
	Errors  domain.ErrorPanel `json:"errors"`
}

// SnapshotFunc builds the state for a new client.
type SnapshotFunc func(ctx context.Context) (Snapshot, error)

// WSManager implements ports.MapNotifier and ports.ErrorsNotifier.
type WSManager struct {
	Clients map[*gws.Conn]bool
	// pending holds connections still waiting for their snapshot, with the
	// broadcasts queued for them meanwhile.
	pending map[*gws.Conn][][]byte

	upgrader  gws.Upgrader
	snapshot  SnapshotFunc
	positions ports.PositionReporter
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewWSManager creates a manager accepting connections from allowedOrigins.
// A "*" entry allows any origin. Requests without an Origin header and
// same-host requests are always accepted.
func NewWSManager(allowedOrigins []string, logger *slog.Logger) *WSManager {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &WSManager{
		Clients: make(map[*gws.Conn]bool),
		pending: make(map[*gws.Conn][][]byte),
		logger:  logger.With("component", "websocket"),
	}
	m.upgrader = gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return m.checkOrigin(r, allowedOrigins)
		},
	}
	return m
}

func (m *WSManager) checkOrigin(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	for _, a := range allowed {
		if a == "*" || origin == a {
			return true
		}
	}
	m.logger.Warn("WebSocket: rejected origin", "origin", origin)
	return false
}

// SetSnapshot sets the function used to greet new clients.
func (m *WSManager) SetSnapshot(fn SnapshotFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = fn
}

// SetPositionReporter enables client position messages. Without a reporter
// they are ignored.
func (m *WSManager) SetPositionReporter(r ports.PositionReporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = r
}

// Start pings clients until ctx ends, then closes every connection.
func (m *WSManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				m.closeAll()
				return
			case <-ticker.C:
				m.ping()
			}
		}
	}()
}

// ClientCount returns the number of connected clients.
func (m *WSManager) ClientCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Clients)
}

func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Debug("Upgrade error", "error", err)
		return
	}
	conn.SetReadLimit(maxClientMessage)

	// Broadcasts that land while the snapshot is built are queued and
	// flushed right after it.
	m.mu.Lock()
	snapshot := m.snapshot
	m.pending[conn] = nil
	m.mu.Unlock()

	var greeting []byte
	if snapshot != nil {
		snap, err := snapshot(r.Context())
		if err != nil {
			m.logger.Error("Failed to build snapshot", "error", err)
		} else {
			greeting, _ = json.Marshal(outMessage{Type: TypeSnapshot, Payload: snap})
		}
	}

	m.mu.Lock()
	queued, ok := m.pending[conn]
	delete(m.pending, conn)
	if !ok {
		// closeAll ran in the meantime
		m.mu.Unlock()
		return
	}
	if greeting != nil {
		queued = append([][]byte{greeting}, queued...)
	}
	for _, data := range queued {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(gws.TextMessage, data); err != nil {
			m.mu.Unlock()
			conn.Close()
			return
		}
	}
	m.Clients[conn] = true
	m.mu.Unlock()
	telemetry.WSClients.Inc()

	m.logger.Info("WebSocket connected", "remote", r.RemoteAddr)

	go func() {
		defer func() {
			m.remove(conn)
			m.logger.Info("WebSocket disconnected", "remote", r.RemoteAddr)
		}()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			m.handleClientMessage(conn, data)
		}
	}()
}

func (m *WSManager) handleClientMessage(conn *gws.Conn, data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		m.logger.Debug("Ignoring malformed client message", "error", err)
		return
	}
	if msg.Type != TypePosition {
		return
	}

	m.mu.Lock()
	reporter := m.positions
	m.mu.Unlock()
	if reporter == nil {
		return
	}

	c, err := geo.ParsePosition(msg.Payload)
	if err != nil {
		m.logger.Debug("Ignoring invalid position", "error", err)
		return
	}
	reporter.Report(c)
}

// NotifyMarkerAdded broadcasts a new photo marker.
func (m *WSManager) NotifyMarkerAdded(ctx context.Context, marker domain.Marker) {
	m.broadcastMessage(outMessage{Type: TypeMarkerAdd, Payload: marker})
}

// NotifyViewChanged broadcasts a view animation.
func (m *WSManager) NotifyViewChanged(ctx context.Context, v domain.View) {
	m.broadcastMessage(outMessage{Type: TypeViewAnimate, Payload: v})
}

// NotifyLivePosition broadcasts the live-position marker.
func (m *WSManager) NotifyLivePosition(ctx context.Context, marker domain.Marker) {
	m.broadcastMessage(outMessage{Type: TypePosition, Payload: marker})
}

// NotifyErrors broadcasts the error panel.
func (m *WSManager) NotifyErrors(ctx context.Context, panel domain.ErrorPanel) {
	m.broadcastMessage(outMessage{Type: TypeErrors, Payload: panel})
}

func (m *WSManager) broadcastMessage(msg outMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		m.logger.Error("JSON marshal error", "type", msg.Type, "error", err)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn, queued := range m.pending {
		m.pending[conn] = append(queued, data)
	}
	for conn := range m.Clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(gws.TextMessage, data); err != nil {
			m.dropLocked(conn)
		}
	}
}

func (m *WSManager) ping() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.Clients {
		if err := conn.WriteControl(gws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
			m.dropLocked(conn)
		}
	}
}

func (m *WSManager) remove(conn *gws.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropLocked(conn)
}

func (m *WSManager) dropLocked(conn *gws.Conn) {
	if _, ok := m.Clients[conn]; !ok {
		return
	}
	conn.Close()
	delete(m.Clients, conn)
	telemetry.WSClients.Dec()
}

func (m *WSManager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.pending {
		conn.Close()
		delete(m.pending, conn)
	}
	for conn := range m.Clients {
		conn.WriteControl(gws.CloseMessage,
			gws.FormatCloseMessage(gws.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		m.dropLocked(conn)
	}
}
