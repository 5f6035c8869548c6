package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/MJE43/deathroll-go/internal/logging"
	"github.com/MJE43/deathroll-go/internal/session"
	"github.com/MJE43/deathroll-go/internal/store"
)

// Server handles HTTP requests for a single live game.
type Server struct {
	db           store.DB
	session      *session.Session
	errorHandler *ErrorHandler
	logger       *zap.Logger
	timeout      time.Duration
	startTime    time.Time
}

// NewServer creates a new API server. db may be nil, in which case the
// statistics endpoint reports an empty history.
func NewServer(sess *session.Session, db store.DB, logger *zap.Logger, timeout time.Duration) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger = logger.Named("api")

	server := &Server{
		db:           db,
		session:      sess,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		timeout:      timeout,
		startTime:    time.Now(),
	}

	logger.Info("api_server_created",
		zap.String("engine_version", EngineVersion),
		zap.Bool("database_enabled", db != nil),
	)
	return server
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(s.logger))
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(s.errorHandler.TimeoutHandler(s.timeout))

	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.Get("/version", s.handleVersion)

		r.Route("/game", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Post("/", s.handleStartGame)
			r.Post("/roll", s.handleRoll)
		})

		r.Get("/odds", s.handleOdds)
		r.Get("/odds/table", s.handleOddsTable)
		r.Get("/stats", s.handleStats)
		r.Get("/history", s.handleHistory)
		r.Get("/history/{id}", s.handleHistoryGame)
		r.Post("/seed/hash", s.handleSeedHash)
	})

	return r
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", zap.Error(err))
	}
}
