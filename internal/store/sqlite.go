package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the history for the lifetime of the process only.
const MemoryDSN = ":memory:"

// ErrNotFound is returned when a game id is unknown.
var ErrNotFound = errors.New("game not found")

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB creates a new SQLite database connection
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every new connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate runs database migrations
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			wager INTEGER NOT NULL,
			rolls INTEGER NOT NULL,
			loser TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_wager ON games(wager)`,
		`CREATE INDEX IF NOT EXISTS idx_games_finished_at ON games(finished_at DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// SaveGame stores a finished game, assigning an id when missing
func (s *SQLiteDB) SaveGame(ctx context.Context, rec *GameRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.FinishedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO games (id, wager, rolls, loser, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Wager, rec.Rolls, rec.Loser, rec.StartedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// GetGame retrieves a game by id
func (s *SQLiteDB) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	var rec GameRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, wager, rolls, loser, started_at, finished_at FROM games WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Wager, &rec.Rolls, &rec.Loser, &rec.StartedAt, &rec.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return &rec, nil
}

// ListGames returns finished games, newest first
func (s *SQLiteDB) ListGames(ctx context.Context, query GamesQuery) (*GamesList, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 {
		query.PerPage = 50
	}
	if query.PerPage > 500 {
		query.PerPage = 500
	}

	where := ""
	args := []any{}
	if query.Wager > 0 {
		where = " WHERE wager = ?"
		args = append(args, query.Wager)
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count games: %w", err)
	}

	offset := (query.Page - 1) * query.PerPage
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, wager, rolls, loser, started_at, finished_at FROM games`+where+
			` ORDER BY finished_at DESC, id LIMIT ? OFFSET ?`,
		append(args, query.PerPage, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	list := &GamesList{
		Games:      []GameRecord{},
		TotalCount: total,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: (total + query.PerPage - 1) / query.PerPage,
	}
	for rows.Next() {
		var rec GameRecord
		if err := rows.Scan(&rec.ID, &rec.Wager, &rec.Rolls, &rec.Loser, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		list.Games = append(list.Games, rec)
	}
	return list, rows.Err()
}

// Summary aggregates outcomes. wager 0 summarises every game.
func (s *SQLiteDB) Summary(ctx context.Context, wager int) (*Summary, error) {
	q := `SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN loser = 'player_one' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN loser = 'player_two' THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(rolls), 0)
		FROM games`
	args := []any{}
	if wager > 0 {
		q += ` WHERE wager = ?`
		args = append(args, wager)
	}

	sum := Summary{Wager: wager}
	if err := s.db.QueryRowContext(ctx, q, args...).
		Scan(&sum.Games, &sum.PlayerOneLosses, &sum.PlayerTwoLosses, &sum.AvgRolls); err != nil {
		return nil, fmt.Errorf("failed to summarise games: %w", err)
	}
	return &sum, nil
}

// Wagers lists the distinct wagers that have finished games, ascending.
func (s *SQLiteDB) Wagers(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT wager FROM games ORDER BY wager`)
	if err != nil {
		return nil, fmt.Errorf("failed to list wagers: %w", err)
	}
	defer rows.Close()

	var wagers []int
	for rows.Next() {
		var w int
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, w)
	}
	return wagers, rows.Err()
}
