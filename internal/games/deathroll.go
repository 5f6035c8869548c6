package games

import (
	"errors"
	"fmt"

	"github.com/MJE43/deathroll-go/internal/engine"
	"github.com/MJE43/deathroll-go/internal/odds"
)

// ErrInvalidOperation is returned when a roll is attempted on a game that is
// not in progress.
var ErrInvalidOperation = errors.New("invalid operation")

// Game is one Death Roll session. Players alternate rolling in [1, Bound];
// whoever rolls a 1 loses. The zero value is a game that has not started.
//
// A Game has a single owner and is not safe for concurrent use.
type Game struct {
	wager  int
	bound  int
	active Player
	status Status
	loser  Player
	log    []LogEntry
}

// StartGame returns a fresh game in progress. The caller is responsible for
// clamping wager to its floor first (see ClampWager).
func StartGame(wager int) *Game {
	return &Game{
		wager:  wager,
		bound:  wager,
		active: PlayerOne,
		status: StatusInProgress,
		log:    []LogEntry{{Kind: EntryStarted, Wager: wager}},
	}
}

// Roll draws the active player's roll from src and advances the game.
//
// A roll of 1 finishes the game with the roller as loser, leaving the bound
// and the active player unchanged. Any other value becomes the new bound and
// passes the turn.
func (g *Game) Roll(src engine.Source) (LogEntry, error) {
	if g.status != StatusInProgress {
		return LogEntry{}, fmt.Errorf("roll while %s: %w", g.status, ErrInvalidOperation)
	}

	value := engine.RollValue(src, g.bound)
	entry := LogEntry{Kind: EntryRolled, Player: g.active, Value: value}

	g.log = append(g.log, entry)
	if value == 1 {
		g.status = StatusFinished
		g.loser = g.active
		return entry, nil
	}
	g.bound = value
	g.active = g.active.Other()
	return entry, nil
}

// RollUntilFinished rolls until the game ends and returns the entries it added.
func (g *Game) RollUntilFinished(src engine.Source) ([]LogEntry, error) {
	var entries []LogEntry
	for g.status == StatusInProgress {
		entry, err := g.Roll(src)
		if err != nil {
			return entries, err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("roll while %s: %w", g.status, ErrInvalidOperation)
	}
	return entries, nil
}

func (g *Game) Wager() int     { return g.wager }
func (g *Game) Bound() int     { return g.bound }
func (g *Game) Active() Player { return g.active }
func (g *Game) Status() Status { return g.status }

// Loser reports the player who rolled the 1. ok is false until the game is finished.
func (g *Game) Loser() (p Player, ok bool) {
	if g.status != StatusFinished {
		return 0, false
	}
	return g.loser, true
}

// Winner is the other player once the game is finished.
func (g *Game) Winner() (p Player, ok bool) {
	loser, ok := g.Loser()
	if !ok {
		return 0, false
	}
	return loser.Other(), true
}

// Log returns a copy of the game history in chronological order.
func (g *Game) Log() []LogEntry {
	out := make([]LogEntry, len(g.log))
	copy(out, g.log)
	return out
}

// Rolls counts the rolled entries in the log.
func (g *Game) Rolls() int {
	if len(g.log) == 0 {
		return 0
	}
	return len(g.log) - 1
}

// Messages renders the log as display lines.
func (g *Game) Messages() []string {
	lines := make([]string, len(g.log))
	for i, e := range g.log {
		lines[i] = e.String()
	}
	return lines
}

// Outcome is the closing announcement, empty while the game is not finished.
func (g *Game) Outcome() string {
	winner, ok := g.Winner()
	if !ok {
		return ""
	}
	return winner.String() + " wins!"
}

// NextRollerLoseProbability feeds the current bound to the calculator. The
// result is the loss probability of whoever rolls next.
func (g *Game) NextRollerLoseProbability() float64 {
	return odds.LoseProbability(g.bound)
}

// NextRollerWinProbability is the complement of NextRollerLoseProbability.
func (g *Game) NextRollerWinProbability() float64 {
	return odds.WinProbability(g.bound)
}
