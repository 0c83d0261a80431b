package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lucas/hexterritory/internal/hexmath"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to configured origins once the client host is fixed.
		return true
	},
}

// ChunkStateProvider supplies the current tiles in a chunk, used both for a
// new connection's initial snapshot and for chunks a moving viewport
// newly uncovers.
type ChunkStateProvider interface {
	GetChunkState(chunkID string) (interface{}, error)
}

// Handler upgrades HTTP connections into viewport-subscribed WebSocket
// clients.
type Handler struct {
	hub           *Hub
	stateProvider ChunkStateProvider
	chunkSize     int
}

// NewHandler creates a new WebSocket handler. chunkSize is the grid's fixed
// chunk edge length, used to translate a viewport (center + radius) into
// the set of chunk IDs covering it.
func NewHandler(hub *Hub, stateProvider ChunkStateProvider, chunkSize int) *Handler {
	return &Handler{hub: hub, stateProvider: stateProvider, chunkSize: chunkSize}
}

// ServeWS upgrades the request and subscribes the new client to every
// chunk touching the viewport centered on (center, radius).
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request, center hexmath.Hex, radius int) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	chunkIDs := chunkIDsInViewport(center, radius, h.chunkSize)
	client := newClient(h.hub, conn, chunkIDs)
	client.chunkSize = h.chunkSize
	client.stateProvider = h.stateProvider

	h.hub.Register(client)
	client.sendChunkSnapshots(chunkIDs)

	go client.writePump()
	go client.readPump()
}

func chunkIDsInViewport(center hexmath.Hex, radius, chunkSize int) []string {
	chunks := hexmath.ChunksInRange(center, radius, chunkSize)
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = ChunkMemberID(c)
	}
	return ids
}

func (c *Client) sendChunkSnapshots(chunkIDs []string) {
	if c.stateProvider == nil {
		return
	}
	for _, chunkID := range chunkIDs {
		state, err := c.stateProvider.GetChunkState(chunkID)
		if err != nil {
			continue
		}
		data, err := json.Marshal(state)
		if err != nil {
			continue
		}
		select {
		case c.Send <- data:
		default:
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			break
		}
		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Coalesce whatever else is already queued into the same
			// websocket frame instead of one frame per chunk update.
			pending := len(c.Send)
			for i := 0; i < pending; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches an inbound client frame. A "viewport" message
// recomputes which chunks the client's new center/radius covers and
// resyncs its subscription, pushing snapshots for any chunk that just
// came into view.
func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("failed to parse client message: %v", err)
		return
	}

	switch msg.Type {
	case "ping":
		response, _ := json.Marshal(map[string]string{"type": "pong"})
		c.Send <- response

	case "viewport":
		c.resyncViewport(msg)

	default:
		log.Printf("unknown client message type: %s", msg.Type)
	}
}

func (c *Client) resyncViewport(msg ClientMessage) {
	before := c.Chunks()
	seen := make(map[string]bool, len(before))
	for _, id := range before {
		seen[id] = true
	}

	center := hexmath.Hex{Q: msg.Q, R: msg.R}
	chunkIDs := chunkIDsInViewport(center, msg.Radius, c.chunkSize)
	c.hub.Resync(c, chunkIDs)

	var newlyVisible []string
	for _, id := range chunkIDs {
		if !seen[id] {
			newlyVisible = append(newlyVisible, id)
		}
	}
	c.sendChunkSnapshots(newlyVisible)
}

// ClientMessage represents a message from a WebSocket client.
type ClientMessage struct {
	Type   string `json:"type"`
	Q      int    `json:"q,omitempty"`
	R      int    `json:"r,omitempty"`
	Radius int    `json:"radius,omitempty"`
}
