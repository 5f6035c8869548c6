// Package odds computes the displayed Death Roll probabilities.
//
// The calculator multiplies (n-1)/n for every n from the bound down to 2 and
// returns the complement. The chain steps down by exactly one per factor
// rather than following the rolled value, so the result is not the true
// recursive loss probability of the game. Displayed statistics depend on this
// exact formula.
package odds

import "github.com/shopspring/decimal"

// DefaultWagers are the wagers listed in the statistics table.
var DefaultWagers = []int{2, 10, 25, 50, 100}

// LoseProbability returns the probability, in [0, 1], that the player who
// rolls first against bound eventually rolls the terminal 1.
//
// bound must be >= 1; smaller values are not validated and yield 0.
func LoseProbability(bound int) float64 {
	survival := 1.0
	for n := bound; n > 1; n-- {
		survival *= float64(n-1) / float64(n)
	}
	return 1 - survival
}

// WinProbability is the complement of LoseProbability for the same roller.
func WinProbability(bound int) float64 {
	return 1 - LoseProbability(bound)
}

// Percent converts a probability to a percentage rounded to two places.
func Percent(p float64) decimal.Decimal {
	return decimal.NewFromFloat(p).Mul(decimal.NewFromInt(100)).Round(2)
}

// FormatPercent renders p as a percentage with exactly two decimals, e.g. "80.00%".
func FormatPercent(p float64) string {
	return Percent(p).StringFixed(2) + "%"
}

// Row is one line of the statistics table.
type Row struct {
	Wager           int             `json:"wager"`
	LoseProbability float64         `json:"lose_probability"`
	Percent         decimal.Decimal `json:"percent"`
}

// Table evaluates the calculator for each wager, in order.
func Table(wagers []int) []Row {
	rows := make([]Row, 0, len(wagers))
	for _, w := range wagers {
		p := LoseProbability(w)
		rows = append(rows, Row{
			Wager:           w,
			LoseProbability: p,
			Percent:         Percent(p),
		})
	}
	return rows
}
