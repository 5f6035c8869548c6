package store

import (
	"context"
	"time"
)

// DB represents the game history interface
type DB interface {
	Close() error
	Ping(ctx context.Context) error
	Migrate() error
	SaveGame(ctx context.Context, rec *GameRecord) error
	GetGame(ctx context.Context, id string) (*GameRecord, error)
	ListGames(ctx context.Context, query GamesQuery) (*GamesList, error)
	Summary(ctx context.Context, wager int) (*Summary, error)
	Wagers(ctx context.Context) ([]int, error)
}

// GameRecord is a finished game.
type GameRecord struct {
	ID         string    `json:"id" db:"id"`
	Wager      int       `json:"wager" db:"wager"`
	Rolls      int       `json:"rolls" db:"rolls"`
	Loser      string    `json:"loser" db:"loser"` // "player_one" or "player_two"
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}

// GamesQuery represents query parameters for listing games
type GamesQuery struct {
	Wager   int `json:"wager,omitempty"` // 0 means all wagers
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
}

// GamesList represents a paginated games response
type GamesList struct {
	Games      []GameRecord `json:"games"`
	TotalCount int          `json:"totalCount"`
	Page       int          `json:"page"`
	PerPage    int          `json:"perPage"`
	TotalPages int          `json:"totalPages"`
}

// Summary aggregates finished games, optionally for a single wager.
type Summary struct {
	Wager           int     `json:"wager,omitempty"`
	Games           int     `json:"games"`
	PlayerOneLosses int     `json:"player_one_losses"`
	PlayerTwoLosses int     `json:"player_two_losses"`
	AvgRolls        float64 `json:"avg_rolls"`
}

// PlayerOneLossRate is the observed share of games lost by the first roller.
func (s Summary) PlayerOneLossRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.PlayerOneLosses) / float64(s.Games)
}
