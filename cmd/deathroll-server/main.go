// Command deathroll-server serves a single Death Roll game over HTTP on loopback.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/deathroll-go/internal/api"
	"github.com/MJE43/deathroll-go/internal/config"
	"github.com/MJE43/deathroll-go/internal/engine"
	"github.com/MJE43/deathroll-go/internal/logging"
	"github.com/MJE43/deathroll-go/internal/session"
	"github.com/MJE43/deathroll-go/internal/store"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		config.Exitf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server_failed", zap.Error(err))
		logger.Sync()
		config.Exitf("deathroll-server: %v", err)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	// History lives for the process only.
	db, err := store.NewSQLiteDB(store.MemoryDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	sources := session.MathSources(0)
	if seeds := cfg.Seeds(); !seeds.Empty() {
		sources = session.SeededSources(seeds)
		logger.Info("seeded_rng",
			zap.String("server_seed_hash", engine.HashServerSeed(seeds.Server)),
			zap.String("client_seed", seeds.Client),
		)
	}

	sess := session.New(
		session.WithRecorder(db),
		session.WithSources(sources),
		session.WithLogger(logger.Named("session")),
		session.WithDefaultWager(cfg.DefaultWager),
	)

	srv := api.NewServer(sess, db, logger, cfg.RequestTimeout)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.RequestTimeout,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      2 * cfg.RequestTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()
	logger.Info("listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("engine_version", api.EngineVersion),
	)

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
