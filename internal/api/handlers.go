package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lucas/hexterritory/internal/hexmath"
	"github.com/lucas/hexterritory/internal/ws"
	"github.com/lucas/hexterritory/internal/world"
)

// Handler contains the HTTP handler methods over a WorldEngine.
type Handler struct {
	engine    *world.Engine
	hub       *ws.Hub
	wsHandler *ws.Handler
	chunkSize int
}

// NewHandler creates a new API handler.
func NewHandler(engine *world.Engine, hub *ws.Hub, chunkSize int) *Handler {
	h := &Handler{engine: engine, hub: hub, chunkSize: chunkSize}
	h.wsHandler = ws.NewHandler(hub, &chunkStateAdapter{engine: engine, chunkSize: chunkSize}, chunkSize)
	return h
}

// chunkStateAdapter adapts world.Engine to ws.ChunkStateProvider.
type chunkStateAdapter struct {
	engine    *world.Engine
	chunkSize int
}

func (a *chunkStateAdapter) GetChunkState(chunkID string) (interface{}, error) {
	chunk, err := parseChunkID(chunkID)
	if err != nil {
		return nil, err
	}
	center := hexmath.ChunkCenter(chunk, a.chunkSize)
	tiles, err := a.engine.TilesInRange(context.Background(), center.Q, center.R, a.chunkSize)
	if err != nil {
		return nil, err
	}
	// The range around the center reaches into neighbouring chunks; keep
	// only the tiles that belong to this chunk.
	inChunk := tiles[:0]
	for _, t := range tiles {
		if hexmath.ChunkIndex(t.Coord(), a.chunkSize) == chunk {
			inChunk = append(inChunk, t)
		}
	}
	return inChunk, nil
}

// parseChunkID parses a "q:r" chunk coordinate.
func parseChunkID(chunkID string) (hexmath.Hex, error) {
	parts := strings.SplitN(chunkID, ":", 2)
	if len(parts) != 2 {
		return hexmath.Hex{}, errors.New("chunk id must be q:r")
	}
	q, err := strconv.Atoi(parts[0])
	if err != nil {
		return hexmath.Hex{}, errors.New("chunk id must be q:r")
	}
	r, err := strconv.Atoi(parts[1])
	if err != nil {
		return hexmath.Hex{}, errors.New("chunk id must be q:r")
	}
	return hexmath.Hex{Q: q, R: r}, nil
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Claim handles POST /api/claim.
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Q      int    `json:"q"`
		R      int    `json:"r"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	res, err := h.engine.Claim(r.Context(), req.UserID, req.Q, req.R, nowMillis())
	if h.handleEngineError(w, err) {
		return
	}

	h.notifyChunk(req.Q, req.R)
	writeJSON(w, http.StatusOK, res)
}

// Repair handles POST /api/repair.
func (h *Handler) Repair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Q      int    `json:"q"`
		R      int    `json:"r"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	res, err := h.engine.Repair(r.Context(), req.UserID, req.Q, req.R, nowMillis())
	if h.handleEngineError(w, err) {
		return
	}

	h.notifyChunk(req.Q, req.R)
	writeJSON(w, http.StatusOK, res)
}

// RegisterNexus handles POST /api/nexus.
func (h *Handler) RegisterNexus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Q     int `json:"q"`
		R     int `json:"r"`
		Level int `json:"level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tile, err := h.engine.RegisterNexus(r.Context(), req.Q, req.R, req.Level, nowMillis())
	if h.handleEngineError(w, err) {
		return
	}

	h.notifyChunk(req.Q, req.R)
	writeJSON(w, http.StatusOK, tile)
}

// SetAllianceTag handles POST /api/alliance.
func (h *Handler) SetAllianceTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string  `json:"user_id"`
		Tag    *string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	profile, err := h.engine.SetAllianceTag(r.Context(), req.UserID, req.Tag)
	if h.handleEngineError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// TilesInRange handles GET /api/tiles.
func (h *Handler) TilesInRange(w http.ResponseWriter, r *http.Request) {
	q, r2, radius, err := parseCenterAndRadius(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tiles, err := h.engine.TilesInRange(r.Context(), q, r2, radius)
	if h.handleEngineError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, tiles)
}

// RadarSummary handles GET /api/radar.
func (h *Handler) RadarSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	q, r2, radius, err := parseCenterAndRadius(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.engine.RadarSummary(r.Context(), userID, q, r2, radius)
	if h.handleEngineError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// Leaderboard handles GET /api/leaderboard.
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	board, err := h.engine.Leaderboard(r.Context(), limit)
	if h.handleEngineError(w, err) {
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// WebSocket handles GET /ws/view?q=&r=&radius=, subscribing the caller to
// every chunk touching that viewport and pushing tile updates as the
// caller's viewport moves via a subsequent "viewport" client message.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	q, r2, radius, err := parseCenterAndRadius(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.wsHandler.ServeWS(w, r, hexmath.Hex{Q: q, R: r2}, radius)
}

func (h *Handler) notifyChunk(q, r int) {
	chunk := hexmath.ChunkIndex(hexmath.Hex{Q: q, R: r}, h.chunkSize)
	h.hub.BroadcastChunkUpdate(ws.ChunkMemberID(chunk), map[string]interface{}{
		"type": "tile_update",
		"q":    q,
		"r":    r,
	})
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// handleEngineError maps a world.Error to an HTTP status and writes the
// response, returning true if it did so (caller should return immediately).
func (h *Handler) handleEngineError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	var werr *world.Error
	if errors.As(err, &werr) {
		switch werr.Kind {
		case world.KindInvalidArgument:
			writeError(w, http.StatusBadRequest, werr.Message)
		case world.KindCancelled:
			writeError(w, http.StatusRequestTimeout, werr.Message)
		default:
			log.Printf("engine error: %v", werr)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return true
	}
	log.Printf("unclassified engine error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
	return true
}

func parseCenterAndRadius(r *http.Request) (q, rr, radius int, err error) {
	q, err = strconv.Atoi(r.URL.Query().Get("q"))
	if err != nil {
		return 0, 0, 0, errors.New("q must be an integer")
	}
	rr, err = strconv.Atoi(r.URL.Query().Get("r"))
	if err != nil {
		return 0, 0, 0, errors.New("r must be an integer")
	}
	radius, err = strconv.Atoi(r.URL.Query().Get("radius"))
	if err != nil {
		return 0, 0, 0, errors.New("radius must be an integer")
	}
	return q, rr, radius, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// devTick manually triggers a recharge tick (dev only).
func (h *Handler) devTick(engine *world.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := engine.RechargeTick(r.Context(), nowMillis()); h.handleEngineError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "tick processed"})
	}
}

// devFlush manually triggers a snapshot flush (dev only).
func (h *Handler) devFlush(engine *world.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := engine.SnapshotFlush(r.Context())
		if h.handleEngineError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"persisted": count})
	}
}
