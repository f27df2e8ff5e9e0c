// Package main provides WebSocket server for change events and live photo
// previews (desktop only).
package main

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	apperrors "github.com/kimhsiao/squishylog/internal/errors"
	"github.com/kimhsiao/squishylog/internal/logging"
	"github.com/kimhsiao/squishylog/internal/media"
	"github.com/kimhsiao/squishylog/internal/models"
	"github.com/kimhsiao/squishylog/internal/records"
	"github.com/kimhsiao/squishylog/internal/uuid"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     localOrigin,
}

// localOrigin only allows connections from loopback hosts.
func localOrigin(r *http.Request) bool {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// WSClient represents a WebSocket client connection.
type WSClient struct {
	id            string
	conn          *websocket.Conn
	send          chan []byte
	hub           *WSHub
	subscriptions map[string]bool
	subMu         sync.RWMutex
	previews      media.Gate
}

// WSHub maintains active client connections and broadcasts messages.
type WSHub struct {
	clients    map[string]*WSClient
	broadcast  chan []byte
	unregister chan *WSClient
	quit       chan struct{}
	stop       sync.Once
	closed     bool
	mu         sync.RWMutex

	api    records.API
	editor records.Editor
}

// WSEnvelope wraps all WebSocket messages.
type WSEnvelope struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// =====================================================
// WebSocket Event Types
// =====================================================

const (
	EventPreviewReady  = "preview.ready"
	EventPreviewFailed = "preview.failed"
)

// PreviewRequest asks for an edited rendering of a photo. Image, when set,
// is rendered directly; otherwise the stored photo at RecordID, Stage and
// Index is used.
type PreviewRequest struct {
	RequestID string `json:"requestId"`
	Image     string `json:"image,omitempty"`
	RecordID  string `json:"recordId,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Index     int    `json:"index"`
	Filter    string `json:"filter"`
	Text      string `json:"text"`
}

// NewWSHub creates a new WebSocket hub rendering previews with editor.
func NewWSHub(api records.API, editor records.Editor) *WSHub {
	hub := &WSHub{
		clients:    make(map[string]*WSClient),
		broadcast:  make(chan []byte, 256),
		unregister: make(chan *WSClient),
		quit:       make(chan struct{}),
		api:        api,
		editor:     editor,
	}
	go hub.run()
	return hub
}

// run manages client connections and broadcasts.
func (h *WSHub) run() {
	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logging.Debug("WebSocket client disconnected", map[string]interface{}{"client": client.id, "total": total})

		case message := <-h.broadcast:
			var envelope WSEnvelope
			if err := json.Unmarshal(message, &envelope); err != nil || envelope.Type == "" {
				logging.Warn("Dropping malformed WebSocket broadcast", map[string]interface{}{"bytes": len(message)})
				continue
			}
			h.mu.Lock()
			for id, client := range h.clients {
				if !client.wants(envelope.Type) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Client send buffer is full, close connection
					close(client.send)
					delete(h.clients, id)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			h.closed = true
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return
		}
	}
}

// add registers a client. It fails once the hub is closed.
func (h *WSHub) add(client *WSClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[client.id] = client
	logging.Debug("WebSocket client connected", map[string]interface{}{"client": client.id, "total": len(h.clients)})
	return true
}

// Close disconnects every client and stops the hub.
func (h *WSHub) Close() {
	h.stop.Do(func() { close(h.quit) })
}

// Broadcast sends a message to all subscribed clients.
func (h *WSHub) Broadcast(messageType string, data map[string]interface{}) {
	bytes, err := marshalEnvelope(messageType, data)
	if err != nil {
		logging.Error("Failed to marshal WebSocket message", err)
		return
	}

	select {
	case h.broadcast <- bytes:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func marshalEnvelope(messageType string, data map[string]interface{}) ([]byte, error) {
	return json.Marshal(WSEnvelope{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// wants reports whether the client receives events of messageType. A
// client without subscriptions receives everything.
func (c *WSClient) wants(messageType string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions) == 0 || c.subscriptions[messageType]
}

// readPump pumps messages from the WebSocket connection.
func (c *WSClient) readPump() {
	defer func() {
		c.previews.Supersede()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Warn("WebSocket read error", map[string]interface{}{"error": err.Error()})
			}
			break
		}

		var msg struct {
			Action  string          `json:"action"`
			Events  []string        `json:"events"`
			Preview *PreviewRequest `json:"preview"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			logging.Debug("Invalid WebSocket message", map[string]interface{}{"error": err.Error()})
			continue
		}

		switch msg.Action {
		case "subscribe":
			c.subMu.Lock()
			for _, e := range msg.Events {
				c.subscriptions[e] = true
			}
			c.subMu.Unlock()
			c.sendAction("subscribe_ack", map[string]interface{}{"subscribed": msg.Events})

		case "unsubscribe":
			c.subMu.Lock()
			for _, e := range msg.Events {
				delete(c.subscriptions, e)
			}
			c.subMu.Unlock()

		case "preview":
			if msg.Preview != nil {
				// Only the newest request per connection is answered
				c.previews.Supersede()
				ticket := c.previews.Issue()
				go c.renderPreview(ticket, *msg.Preview)
			}

		case "ping":
			c.sendAction("pong", nil)
		}
	}
}

// renderPreview renders req and sends the result unless a newer preview
// was requested meanwhile.
func (c *WSClient) renderPreview(ticket media.Ticket, req PreviewRequest) {
	image, err := c.hub.preview(req)
	if !ticket.Current() {
		return
	}

	if err != nil {
		c.sendEvent(EventPreviewFailed, map[string]interface{}{
			"requestId": req.RequestID,
			"code":      apperrors.CodeOf(err),
			"message":   apperrors.MessageOf(err),
		})
		return
	}
	c.sendEvent(EventPreviewReady, map[string]interface{}{
		"requestId": req.RequestID,
		"image":     image,
	})
}

func (h *WSHub) preview(req PreviewRequest) (string, error) {
	source := req.Image
	if source == "" {
		stage, err := models.ParseStage(req.Stage)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrValidation, "preview stage", err)
		}
		rec, err := h.api.Get(req.RecordID)
		if err != nil {
			return "", err
		}
		images := rec.Images(stage)
		if req.Index < 0 || req.Index >= len(images) {
			return "", apperrors.Newf(apperrors.ErrNotFound, "no %s image at position %d", stage, req.Index)
		}
		source = images[req.Index]
	}
	return h.editor.ApplyEdit(source, req.Filter, req.Text)
}

// writePump pumps messages to the WebSocket connection.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

// sendEvent queues an envelope for this client only.
func (c *WSClient) sendEvent(messageType string, data map[string]interface{}) {
	bytes, err := marshalEnvelope(messageType, data)
	if err != nil {
		logging.Error("Failed to marshal WebSocket message", err)
		return
	}
	c.queue(bytes)
}

// sendAction queues a control reply such as an acknowledgment or pong.
func (c *WSClient) sendAction(action string, fields map[string]interface{}) {
	envelope := map[string]interface{}{
		"action":    action,
		"timestamp": time.Now().Unix(),
	}
	for k, v := range fields {
		envelope[k] = v
	}

	bytes, _ := json.Marshal(envelope)
	c.queue(bytes)
}

// queue hands bytes to the write pump. The hub closes send on unregister,
// so the send happens under the hub lock.
func (c *WSClient) queue(bytes []byte) {
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c.id]; !ok {
		return
	}
	select {
	case c.send <- bytes:
	default:
		logging.Warn("WebSocket send buffer full; dropping message", map[string]interface{}{"client": c.id})
	}
}

// HandleWebSocket handles WebSocket connections.
func HandleWebSocket(hub *WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
			return
		}

		client := &WSClient{
			id:            uuid.New(),
			conn:          conn,
			send:          make(chan []byte, 256),
			hub:           hub,
			subscriptions: make(map[string]bool),
		}

		if !hub.add(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
