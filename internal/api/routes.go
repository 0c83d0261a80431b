package api

import (
	"net/http"

	"github.com/lucas/hexterritory/internal/config"
	"github.com/lucas/hexterritory/internal/ws"
	"github.com/lucas/hexterritory/internal/world"
)

// NewRouter creates the HTTP router with all routes.
func NewRouter(engine *world.Engine, hub *ws.Hub, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	handler := NewHandler(engine, hub, cfg.World.Economy.ChunkSize)

	mux.HandleFunc("GET /health", handler.Health)

	mux.HandleFunc("POST /api/claim", handler.Claim)
	mux.HandleFunc("POST /api/repair", handler.Repair)
	mux.HandleFunc("POST /api/nexus", handler.RegisterNexus)
	mux.HandleFunc("POST /api/alliance", handler.SetAllianceTag)
	mux.HandleFunc("GET /api/tiles", handler.TilesInRange)
	mux.HandleFunc("GET /api/radar", handler.RadarSummary)
	mux.HandleFunc("GET /api/leaderboard", handler.Leaderboard)

	mux.HandleFunc("GET /ws/view", handler.WebSocket)

	if cfg.Dev.Enabled {
		mux.HandleFunc("POST /api/dev/tick", handler.devTick(engine))
		mux.HandleFunc("POST /api/dev/flush", handler.devFlush(engine))
	}

	return corsMiddleware(mux)
}

// corsMiddleware adds CORS headers for development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
