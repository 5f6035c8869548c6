package api

import (
	"github.com/MJE43/deathroll-go/internal/games"
	"github.com/MJE43/deathroll-go/internal/odds"
	"github.com/MJE43/deathroll-go/internal/session"
	"github.com/MJE43/deathroll-go/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types with proper categorization
const (
	// Input validation errors
	ErrTypeInvalidWager = "invalid_wager"
	ErrTypeValidation   = "validation_error"

	// Game-related errors
	ErrTypeGameNotFound     = "game_not_found"
	ErrTypeInvalidOperation = "invalid_operation"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidWager, ErrTypeValidation:
		return CategoryValidation
	case ErrTypeGameNotFound, ErrTypeInvalidOperation:
		return CategoryGame
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// StartRequest starts a new game. Wagers below the playable floor are raised to it.
type StartRequest struct {
	Wager int `json:"wager"`
}

// GameResponse wraps the live game.
type GameResponse struct {
	Game          session.Snapshot `json:"game"`
	EngineVersion string           `json:"engine_version"`
}

// RollResponse is the entry produced by a roll plus the updated game.
type RollResponse struct {
	Entry         games.LogEntry   `json:"entry"`
	Message       string           `json:"message"`
	Game          session.Snapshot `json:"game"`
	EngineVersion string           `json:"engine_version"`
}

// OddsResponse is a single calculator query.
type OddsResponse struct {
	Wager           int     `json:"wager"`
	LoseProbability float64 `json:"lose_probability"`
	WinProbability  float64 `json:"win_probability"`
	LosePercent     string  `json:"lose_percent"`
	EngineVersion   string  `json:"engine_version"`
}

// OddsTableResponse is the predefined-wager table.
type OddsTableResponse struct {
	Rows          []odds.Row `json:"rows"`
	EngineVersion string     `json:"engine_version"`
}

// WagerStats compares observed outcomes against the calculator for one wager.
type WagerStats struct {
	store.Summary
	ObservedLossRate  float64 `json:"observed_player_one_loss_rate"`
	PredictedLossRate float64 `json:"predicted_player_one_loss_rate"`
	PredictedPercent  string  `json:"predicted_percent"`
}

// StatsResponse is the history of finished games in this process.
type StatsResponse struct {
	Overall       store.Summary `json:"overall"`
	ByWager       []WagerStats  `json:"by_wager"`
	EngineVersion string        `json:"engine_version"`
}

// GamesResponse represents the games metadata response
type GamesResponse struct {
	Games         []games.GameSpec `json:"games"`
	Rules         []string         `json:"rules"`
	EngineVersion string           `json:"engine_version"`
}

// HistoryResponse is one page of finished games.
type HistoryResponse struct {
	store.GamesList
	EngineVersion string `json:"engine_version"`
}

// HistoryGameResponse is a single finished game.
type HistoryGameResponse struct {
	Game          store.GameRecord `json:"game"`
	EngineVersion string           `json:"engine_version"`
}

// SeedHashRequest represents a seed hashing request
type SeedHashRequest struct {
	ServerSeed string `json:"server_seed"`
}

// SeedHashResponse represents a seed hashing response
type SeedHashResponse struct {
	Hash          string          `json:"hash"`
	EngineVersion string          `json:"engine_version"`
	Echo          SeedHashRequest `json:"echo"`
}
