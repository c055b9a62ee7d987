package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"billbuddy/pos/internal/api"
	"billbuddy/pos/internal/assistant"
	"billbuddy/pos/internal/assistantws"
	"billbuddy/pos/internal/billing"
	"billbuddy/pos/internal/catalog"
	"billbuddy/pos/internal/config"
	"billbuddy/pos/internal/events"
	"billbuddy/pos/internal/health"
	"billbuddy/pos/internal/sessions"
)

func main() {
	// Load .env file if present (ignored if missing)
	_ = godotenv.Load()

	cfg := config.Load()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	cat := catalog.New(client)
	bills := billing.NewService(client)
	sess := sessions.NewStore()
	ev := events.NewStore()

	if cfg.Catalog.SeedFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		n, err := cat.SeedFile(ctx, cfg.Catalog.SeedFile)
		cancel()
		if err != nil {
			log.Printf("catalog seed: %v", err)
		} else if n > 0 {
			log.Printf("catalog seeded with %d products", n)
		}
	}

	reg := assistantws.NewRegistry()
	factory := func(sessionID string, wc *assistantws.Client) *assistant.Runner {
		return assistant.NewRunner(sessionID, wc, wc, cat, bills, ev, wc.Hooks(), assistant.Options{
			SettleDelay:  time.Duration(cfg.Assistant.SettleMs) * time.Millisecond,
			DisplayDelay: time.Duration(cfg.Assistant.DisplayMs) * time.Millisecond,
			MaxResults:   cfg.Assistant.MaxResults,
		})
	}
	wss := assistantws.NewServer(cfg, sess, ev, reg, factory)

	h := api.NewHandlers(cfg, sess, ev, cat, bills, wss)
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(h))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws/assistant", wss.HandleAssistantWS)
	mux.HandleFunc("/healthz/deep", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		status := health.CheckAll(ctx, client)
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           logMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		log.Printf("shutdown signal received; stopping server...")
		// Close live assistant sessions before draining HTTP
		for _, id := range sess.ListIDs() {
			wss.CloseSession(id)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	log.Printf("server starting on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Println("server error:", err)
		os.Exit(1)
	}
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
