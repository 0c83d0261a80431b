package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lucas/hexterritory/internal/api"
	"github.com/lucas/hexterritory/internal/config"
	"github.com/lucas/hexterritory/internal/store"
	"github.com/lucas/hexterritory/internal/world"
	"github.com/lucas/hexterritory/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	devMode := flag.Bool("dev", false, "enable development mode")
	noDB := flag.Bool("no-db", false, "run without Redis/Postgres (in-memory only)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("failed to load config from %s, using defaults: %v", *configPath, err)
		cfg = config.Default()
	}
	if *devMode {
		cfg.Dev.Enabled = true
	}
	if *noDB {
		cfg.Dev.NoDB = true
	}

	kv, sink, closeStores := mustOpenStores(cfg)
	defer closeStores()

	errs := store.LogErrorSink{}
	engine := world.New(kv, sink, errs, cfg.World)

	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	runBackgroundLoops(ctx, engine, errs, cfg.World)

	router := api.NewRouter(engine, hub, cfg)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server starting on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

// mustOpenStores wires the KVStore and SnapshotSink per the -dev/-no-db
// flags: a live Redis/Postgres pair in production, MemStore/no-op in
// development.
func mustOpenStores(cfg *config.Config) (store.KVStore, store.SnapshotSink, func()) {
	if cfg.Dev.Enabled || cfg.Dev.NoDB {
		log.Println("running without Redis/Postgres (in-memory mode)")
		return store.NewMemStore(), noopSink{}, func() {}
	}

	redisStore, err := store.NewRedis(cfg.Database.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}

	pg, err := store.NewPostgres(cfg.Database.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	if err := pg.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate PostgreSQL schema: %v", err)
	}

	return redisStore, pg, func() {
		redisStore.Close()
		pg.Close()
	}
}

type noopSink struct{}

func (noopSink) UpsertTiles(context.Context, []store.TileRow) error { return nil }

// runBackgroundLoops starts the recharge tick and snapshot flush loops as
// independent cooperative tasks, stopped when ctx is cancelled (§9 "Timers").
func runBackgroundLoops(ctx context.Context, engine *world.Engine, errs store.ErrorSink, cfg config.WorldConfig) {
	go runLoop(ctx, "recharge-tick", cfg.Timing.RechargeInterval(), errs, func(ctx context.Context) error {
		return engine.RechargeTick(ctx, time.Now().UnixMilli())
	})
	go runLoop(ctx, "snapshot-flush", cfg.Timing.SnapshotInterval(), errs, func(ctx context.Context) error {
		count, err := engine.SnapshotFlush(ctx)
		if err == nil {
			log.Printf("snapshot-flush: persisted %d tiles", count)
		}
		return err
	})
}

// runLoop runs fn on a fixed interval until ctx is cancelled. A failing run
// is reported to errs, never fatal: the next scheduled tick still fires.
func runLoop(ctx context.Context, name string, interval time.Duration, errs store.ErrorSink, fn func(context.Context) error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				errs.ReportError(name, err)
			}
		}
	}
}
