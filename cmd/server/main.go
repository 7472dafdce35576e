// Package main runs the star notary server:
// - HTTP API under /v1 with a WebSocket event stream at /v1/events
// - /health and Prometheus /metrics
// - in-memory or PostgreSQL ledger, optional ClickHouse sale analytics
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"star-notary/internal/api"
	"star-notary/internal/config"
	"star-notary/internal/domain"
	"star-notary/internal/events"
	"star-notary/internal/ledger"
	"star-notary/internal/notary"
	"star-notary/internal/observability"
	"star-notary/internal/storage"
	chstore "star-notary/internal/storage/clickhouse"
	"star-notary/internal/storage/memory"
	"star-notary/internal/storage/migrations"
	pgstore "star-notary/internal/storage/postgres"
)

const shutdownTimeout = 30 * time.Second

func main() {
	envFile := flag.String("env-file", ".env", "File with NOTARY_* variables; the environment wins")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if err := config.LoadEnvFile(*envFile); err != nil {
		logger.Fatalf("Failed to load env file: %v", err)
	}
	cfg, err := config.Parse()
	if err != nil {
		logger.Fatalf("Failed to parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, analytics, cleanup, err := createStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	broker := events.NewBroker[domain.Event]()
	defer broker.Close()

	svc := notary.New(notary.Options{
		DB:        db,
		Metadata:  ledger.Metadata{Name: cfg.TokenName, Symbol: cfg.TokenSymbol},
		Broker:    broker,
		Analytics: analytics,
		Faucet:    cfg.Faucet,
		Logger:    log.New(os.Stdout, "[notary] ", log.LstdFlags),
	})

	minters := cfg.InitialMinters()
	if len(minters) == 0 {
		logger.Println("No NOTARY_DEPLOYER or NOTARY_MINTERS set: nobody can create stars")
	}
	if err := svc.Bootstrap(ctx, minters...); err != nil {
		logger.Fatalf("Failed to seed minters: %v", err)
	}
	logger.Printf("Serving %s (%s) with %d minter(s)", svc.Name(), svc.Symbol(), len(minters))

	handler := api.NewHandler(api.Options{
		Notary: svc,
		Broker: broker,
		Logger: log.New(os.Stdout, "[api] ", log.LstdFlags),
	})

	servers := []*http.Server{{Addr: cfg.HTTPAddr, Handler: newRouter(handler, cfg.MetricsAddr == "")}}
	if cfg.MetricsAddr != "" {
		servers = append(servers, &http.Server{Addr: cfg.MetricsAddr, Handler: newOpsMux()})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Printf("Starting HTTP server on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Printf("Server error: %v", err)
	}

	go func() {
		// Wait for second signal for immediate shutdown
		sig := <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stream connections are hijacked; closing the broker ends them.
	broker.Close()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Shutdown %s: %v", srv.Addr, err)
		}
	}
	cancel()

	logger.Println("Shutdown complete")
}

// newRouter mounts the API and, when withOps is set, /health and /metrics.
func newRouter(h *api.Handler, withOps bool) http.Handler {
	r := chi.NewRouter()
	if withOps {
		r.Mount("/health", healthHandler())
		r.Mount("/metrics", observability.Handler())
	}
	r.Mount("/", h.Routes())
	return r
}

// newOpsMux serves /health and /metrics on a separate listener.
func newOpsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", healthHandler())
	mux.Handle("/metrics", observability.Handler())
	return mux
}

func healthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
}

// createStores selects the ledger backend. Analytics is nil unless
// NOTARY_CLICKHOUSE_DSN is set.
func createStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.DB, storage.SaleStore, func(), error) {
	var (
		db      storage.DB
		closers []func()
		cleanup = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
		analytic storage.SaleStore
	)

	if cfg.UseMemory {
		logger.Println("Using in-memory storage; state is lost on exit")
		db = memory.NewDB()
	} else {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if cfg.Migrate {
			applied, err := migrations.ApplyPostgres(ctx, pool)
			if err != nil {
				cleanup()
				return nil, nil, nil, fmt.Errorf("postgres migrations: %w", err)
			}
			if len(applied) > 0 {
				logger.Printf("Applied postgres migrations: %v", applied)
			}
		}
		db = pgstore.NewDB(pool)
	}

	if cfg.ClickhouseDSN != "" {
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Migrate {
			conn, err = chstore.EnsureDatabase(ctx, cfg.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			cleanup()
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		if cfg.Migrate {
			if err := migrations.ApplyClickhouse(ctx, conn); err != nil {
				cleanup()
				return nil, nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
			}
		}
		analytic = chstore.NewSaleStore(conn)
		logger.Println("Recording sales to ClickHouse")
	}

	return db, analytic, cleanup, nil
}
