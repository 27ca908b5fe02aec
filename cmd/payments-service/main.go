// cmd/payments-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloom/internal/catalog"
	"bloom/internal/checkout"
	"bloom/internal/store"
	"bloom/internal/stripeapi"
	"bloom/internal/webhook"
	"bloom/pkg/config"
	"bloom/pkg/db"
	"bloom/pkg/logger"
	"bloom/pkg/middleware"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)

	pool := db.MustConnect(cfg, log)
	rdb := db.MustRedis(cfg, log)

	var st store.Provider
	if pool != nil {
		st = store.NewPostgresProvider(pool, log)
		if err := store.EnsureSchema(context.Background(), pool); err != nil {
			log.Fatalw("schema", "err", err)
		}
	} else {
		st = store.NewMemoryProvider(log)
	}

	// Left nil when the secret is missing; the routes then answer 500 per the
	// configuration-error contract instead of crashing at startup.
	var sessions checkout.SessionCreator
	var customers checkout.CustomerDirectory
	var source catalog.Source
	if cfg.StripeSecretKey != "" {
		sc := stripeapi.New(cfg.StripeSecretKey)
		sessions, customers, source = sc, sc, sc
	}

	checkoutH := checkout.NewHandler(log, sessions, customers, st, checkout.NewRedisReplay(rdb))
	catalogH := catalog.NewHandler(log, source)
	webhookH := webhook.NewHandler(log, st, cfg.StripeWebhookSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.Tracing(cfg))
	r.Use(middleware.Metrics())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	})
	r.With(middleware.CORS("POST, OPTIONS")).Handle("/checkout-session", http.HandlerFunc(checkoutH.Anonymous))
	r.With(middleware.CORS("GET, OPTIONS")).Handle("/products", http.HandlerFunc(catalogH.Serve))
	r.With(middleware.CORS("POST, OPTIONS"), middleware.SupabaseAuth(cfg)).Handle("/checkout", http.HandlerFunc(checkoutH.Authenticated))
	r.Post("/webhook", webhookH.Serve)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("payments-service listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("payments-service stopped")
}
