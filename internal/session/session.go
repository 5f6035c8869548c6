// Package session holds the single live Death Roll game behind a shell.
//
// Shells such as the HTTP API may receive calls from several goroutines. The
// session serialises them so every start or roll runs to completion before
// the next call can observe the game.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MJE43/deathroll-go/internal/engine"
	"github.com/MJE43/deathroll-go/internal/games"
	"github.com/MJE43/deathroll-go/internal/odds"
	"github.com/MJE43/deathroll-go/internal/store"
)

// ErrNoGame is returned when rolling or reading before any game was started.
var ErrNoGame = errors.New("no game started")

// Recorder receives finished games.
type Recorder interface {
	SaveGame(ctx context.Context, rec *store.GameRecord) error
}

// SourceFactory builds the random source for a new game. nonce counts games
// started by the session, beginning at 1.
type SourceFactory func(nonce uint64) engine.Source

// MathSources returns a factory sharing one math/rand source across games.
func MathSources(seed int64) SourceFactory {
	src := engine.NewMathSource(seed)
	return func(uint64) engine.Source { return src }
}

// SeededSources returns a factory that gives each game its own HMAC stream,
// using the game number as nonce.
func SeededSources(seeds engine.Seeds) SourceFactory {
	return func(nonce uint64) engine.Source { return engine.NewSeededSource(seeds, nonce) }
}

// Snapshot is a read-only copy of the live game.
type Snapshot struct {
	ID                        string           `json:"id"`
	Nonce                     uint64           `json:"nonce"`
	Wager                     int              `json:"wager"`
	Bound                     int              `json:"bound"`
	Active                    games.Player     `json:"active"`
	Status                    games.Status     `json:"status"`
	Loser                     *games.Player    `json:"loser,omitempty"`
	Log                       []games.LogEntry `json:"log"`
	Messages                  []string         `json:"messages"`
	Outcome                   string           `json:"outcome,omitempty"`
	NextRollerLoseProbability float64          `json:"next_roller_lose_probability"`
	NextRollerLosePercent     string           `json:"next_roller_lose_percent"`
	StartedAt                 time.Time        `json:"started_at"`
}

// Session owns one game at a time.
type Session struct {
	mu        sync.Mutex
	game      *games.Game
	id        string
	nonce     uint64
	startedAt time.Time
	src       engine.Source

	sources      SourceFactory
	recorder     Recorder
	logger       *zap.Logger
	now          func() time.Time
	defaultWager int
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder stores every finished game.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithSources replaces the default time-seeded math/rand source.
func WithSources(f SourceFactory) Option {
	return func(s *Session) { s.sources = f }
}

// WithLogger sets the logger. The default discards output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithDefaultWager sets the wager used when Start receives zero.
func WithDefaultWager(wager int) Option {
	return func(s *Session) { s.defaultWager = wager }
}

// New creates an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		sources: MathSources(0),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start replaces the current game with a fresh one. A zero wager falls back
// to the session default, and the result is clamped to the playable floor.
func (s *Session) Start(wager int) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wager == 0 {
		wager = s.defaultWager
	}
	wager = games.ClampWager(wager, games.MinPlayableWager)
	s.nonce++
	s.id = uuid.New().String()
	s.startedAt = s.now().UTC()
	s.src = s.sources(s.nonce)
	s.game = games.StartGame(wager)

	s.logger.Info("game_started",
		zap.String("game_id", s.id),
		zap.Int("wager", wager),
		zap.Uint64("nonce", s.nonce),
	)
	return s.snapshotLocked()
}

// Roll advances the live game by one roll.
func (s *Session) Roll(ctx context.Context) (games.LogEntry, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game == nil {
		return games.LogEntry{}, Snapshot{}, ErrNoGame
	}

	entry, err := s.game.Roll(s.src)
	if err != nil {
		s.logger.Warn("roll_rejected", zap.String("game_id", s.id), zap.Error(err))
		return games.LogEntry{}, s.snapshotLocked(), err
	}

	s.logger.Debug("roll",
		zap.String("game_id", s.id),
		zap.Stringer("player", entry.Player),
		zap.Int("value", entry.Value),
	)

	s.finishLocked(ctx)
	return entry, s.snapshotLocked(), nil
}

// RollUntilFinished rolls the live game to its end and returns the entries
// it added.
func (s *Session) RollUntilFinished(ctx context.Context) ([]games.LogEntry, Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game == nil {
		return nil, Snapshot{}, ErrNoGame
	}

	entries, err := s.game.RollUntilFinished(s.src)
	if err != nil {
		s.logger.Warn("roll_rejected", zap.String("game_id", s.id), zap.Error(err))
		return entries, s.snapshotLocked(), err
	}
	s.finishLocked(ctx)
	return entries, s.snapshotLocked(), nil
}

func (s *Session) finishLocked(ctx context.Context) {
	loser, ok := s.game.Loser()
	if !ok {
		return
	}
	s.logger.Info("game_finished",
		zap.String("game_id", s.id),
		zap.Stringer("loser", loser),
		zap.Int("rolls", s.game.Rolls()),
	)
	s.recordLocked(ctx, loser)
}

// Snapshot returns the live game, or ErrNoGame.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game == nil {
		return Snapshot{}, ErrNoGame
	}
	return s.snapshotLocked(), nil
}

func (s *Session) recordLocked(ctx context.Context, loser games.Player) {
	if s.recorder == nil {
		return
	}
	text, _ := loser.MarshalText()
	rec := &store.GameRecord{
		ID:         s.id,
		Wager:      s.game.Wager(),
		Rolls:      s.game.Rolls(),
		Loser:      string(text),
		StartedAt:  s.startedAt,
		FinishedAt: s.now().UTC(),
	}
	// History is best effort; the finished game stays valid either way.
	// The save must not depend on the caller's deadline.
	if err := s.recorder.SaveGame(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Error("record_game_failed", zap.String("game_id", s.id), zap.Error(err))
	}
}

func (s *Session) snapshotLocked() Snapshot {
	g := s.game
	p := g.NextRollerLoseProbability()
	snap := Snapshot{
		ID:                        s.id,
		Nonce:                     s.nonce,
		Wager:                     g.Wager(),
		Bound:                     g.Bound(),
		Active:                    g.Active(),
		Status:                    g.Status(),
		Log:                       g.Log(),
		Messages:                  g.Messages(),
		Outcome:                   g.Outcome(),
		NextRollerLoseProbability: p,
		NextRollerLosePercent:     odds.FormatPercent(p),
		StartedAt:                 s.startedAt,
	}
	if loser, ok := g.Loser(); ok {
		snap.Loser = &loser
	}
	return snap
}
