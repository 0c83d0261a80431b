// Package ws fans out tile change notifications to WebSocket
// viewers. A viewer does not watch a single room: it watches a viewport, a
// radius-bounded region of the hex grid that typically spans several
// chunks, and its subscription set is recomputed and resynced every time
// the viewport moves (see §1, "a windowed slice of the world").
package ws

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lucas/hexterritory/internal/hexmath"
)

// ChunkMemberID formats a chunk coordinate as the "q:r" string used both as
// a hub room key and as a set-member ID in the storage layer.
func ChunkMemberID(chunk hexmath.Hex) string {
	return strconv.Itoa(chunk.Q) + ":" + strconv.Itoa(chunk.R)
}

// Client represents a WebSocket connection and the set of chunks its
// current viewport covers. A client is normally subscribed to many chunks
// at once, not one.
type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	Send chan []byte
	hub  *Hub

	chunkSize     int
	stateProvider ChunkStateProvider

	mu     sync.RWMutex
	chunks map[string]struct{}
}

func newClient(hub *Hub, conn *websocket.Conn, initialChunks []string) *Client {
	c := &Client{
		ID:     uuid.New(),
		Conn:   conn,
		Send:   make(chan []byte, 256),
		hub:    hub,
		chunks: make(map[string]struct{}, len(initialChunks)),
	}
	for _, id := range initialChunks {
		c.chunks[id] = struct{}{}
	}
	return c
}

// Chunks returns the chunk IDs the client is currently subscribed to.
func (c *Client) Chunks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.chunks))
	for id := range c.chunks {
		out = append(out, id)
	}
	return out
}

// Hub manages all WebSocket connections, keeping a reverse index from
// chunk ID to every client whose viewport currently covers it.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	chunkRooms map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan chunkBroadcast
}

type chunkBroadcast struct {
	ChunkID string
	Message interface{}
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		chunkRooms: make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan chunkBroadcast, 256),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case msg := <-h.broadcast:
			h.broadcastToChunk(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	for _, chunkID := range client.Chunks() {
		h.joinChunkLocked(client, chunkID)
	}
	log.Printf("client %s subscribed to %d chunks", client.ID, len(client.chunks))
}

func (h *Hub) joinChunkLocked(client *Client, chunkID string) {
	if h.chunkRooms[chunkID] == nil {
		h.chunkRooms[chunkID] = make(map[*Client]bool)
	}
	h.chunkRooms[chunkID][client] = true
}

func (h *Hub) leaveChunkLocked(client *Client, chunkID string) {
	if room, ok := h.chunkRooms[chunkID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.chunkRooms, chunkID)
		}
	}
}

// Resync moves a client's subscription to match a newly computed viewport,
// joining chunks that just came into view and leaving ones that fell out
// of it. Chunks the viewport still covers are left untouched.
func (h *Hub) Resync(client *Client, chunkIDs []string) {
	target := make(map[string]struct{}, len(chunkIDs))
	for _, id := range chunkIDs {
		target[id] = struct{}{}
	}

	client.mu.Lock()
	current := client.chunks
	client.chunks = target
	client.mu.Unlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	for chunkID := range current {
		if _, stillVisible := target[chunkID]; !stillVisible {
			h.leaveChunkLocked(client, chunkID)
		}
	}
	for chunkID := range target {
		if _, wasVisible := current[chunkID]; !wasVisible {
			h.joinChunkLocked(client, chunkID)
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		for chunkID := range client.chunks {
			h.leaveChunkLocked(client, chunkID)
		}
		log.Printf("client %s disconnected", client.ID)
	}
}

func (h *Hub) broadcastToChunk(msg chunkBroadcast) {
	h.mu.RLock()
	room, ok := h.chunkRooms[msg.ChunkID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(room))
	for client := range room {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(msg.Message)
	if err != nil {
		log.Printf("failed to marshal chunk broadcast: %v", err)
		return
	}

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.unregister <- client
		}
	}
}

// BroadcastChunkUpdate sends message to every client whose viewport covers
// chunkID. It is driven by the claim/repair/nexus HTTP handlers (via
// api.Handler.notifyChunk) whenever a tile changes; the recharge tick and
// the snapshot flush loop run independently of the hub and never call it,
// so a tick alone produces no websocket traffic.
func (h *Hub) BroadcastChunkUpdate(chunkID string, message interface{}) {
	h.broadcast <- chunkBroadcast{ChunkID: chunkID, Message: message}
}

// Register adds a new client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ChunkClientCount returns the number of clients whose viewport covers chunkID.
func (h *Hub) ChunkClientCount(chunkID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if room, ok := h.chunkRooms[chunkID]; ok {
		return len(room)
	}
	return 0
}
