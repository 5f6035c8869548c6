package games

import (
	"fmt"
)

// Player identifies a seat. The zero value means no player.
type Player int

const (
	PlayerOne Player = iota + 1
	PlayerTwo
)

// Other returns the opposing player.
func (p Player) Other() Player {
	if p == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

// String returns the display name, e.g. "Player 1".
func (p Player) String() string {
	switch p {
	case PlayerOne:
		return "Player 1"
	case PlayerTwo:
		return "Player 2"
	default:
		return "nobody"
	}
}

func (p Player) MarshalText() ([]byte, error) {
	switch p {
	case PlayerOne:
		return []byte("player_one"), nil
	case PlayerTwo:
		return []byte("player_two"), nil
	default:
		return nil, fmt.Errorf("unknown player %d", int(p))
	}
}

func (p *Player) UnmarshalText(text []byte) error {
	switch string(text) {
	case "player_one":
		*p = PlayerOne
	case "player_two":
		*p = PlayerTwo
	default:
		return fmt.Errorf("unknown player %q", text)
	}
	return nil
}

// Status is the game lifecycle stage.
type Status int

const (
	StatusNotStarted Status = iota
	StatusInProgress
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusInProgress:
		return "in_progress"
	case StatusFinished:
		return "finished"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{StatusNotStarted, StatusInProgress, StatusFinished} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// EntryKind distinguishes log records.
type EntryKind string

const (
	EntryStarted EntryKind = "started"
	EntryRolled  EntryKind = "rolled"
)

// LogEntry is one immutable record of game history. Started entries carry
// Wager; rolled entries carry Player and Value.
type LogEntry struct {
	Kind   EntryKind `json:"kind"`
	Wager  int       `json:"wager,omitempty"`
	Player Player    `json:"player,omitempty"`
	Value  int       `json:"value,omitempty"`
}

// String renders the entry for display.
func (e LogEntry) String() string {
	switch e.Kind {
	case EntryStarted:
		return fmt.Sprintf("Game started with a wager of %dg", e.Wager)
	case EntryRolled:
		return fmt.Sprintf("%s rolled: %d", e.Player, e.Value)
	default:
		return string(e.Kind)
	}
}

// Terminal reports whether the entry is a roll of 1.
func (e LogEntry) Terminal() bool {
	return e.Kind == EntryRolled && e.Value == 1
}
