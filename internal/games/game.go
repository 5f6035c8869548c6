package games

// GameSpec describes a playable game to shells.
type GameSpec struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MetricLabel string `json:"metric_label"`
	MinWager    int    `json:"min_wager"`
}

// DeathRollSpec returns metadata about Death Roll.
func DeathRollSpec() GameSpec {
	return GameSpec{
		ID:          "deathroll",
		Name:        "Death Roll",
		MetricLabel: "roll",
		MinWager:    MinPlayableWager,
	}
}

// ListGames returns the specs of all available games.
func ListGames() []GameSpec {
	return []GameSpec{DeathRollSpec()}
}

// Rules are the instructions shown to players, in order.
var Rules = []string{
	"Two players agree on a wager amount (minimum 5g).",
	"The first player rolls a number between 1 and the wager amount.",
	"The second player then rolls between 1 and the number the first player rolled.",
	"Players continue taking turns, rolling between 1 and the previous roll.",
	"The game ends when a player rolls a 1, resulting in their loss.",
}
