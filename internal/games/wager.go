package games

import (
	"strconv"
	"strings"
)

const (
	// MinPlayableWager is the smallest wager a game may start with.
	MinPlayableWager = 5
	// MinCalculatorWager is the smallest bound offered by the standalone calculator.
	MinCalculatorWager = 2
)

// ClampWager raises wager to floor when it is below it.
func ClampWager(wager, floor int) int {
	if wager < floor {
		return floor
	}
	return wager
}

// ParseWager reads a wager from user input. Like a lenient integer parse it
// keeps an optional sign and the leading digits, so "12g" is 12 and "3.9" is 3.
// Input with no leading digits, zero, and values too large for an int fall
// back to floor; the result is then clamped to floor.
func ParseWager(input string, floor int) int {
	v, err := strconv.Atoi(leadingInt(strings.TrimSpace(input)))
	if err != nil || v == 0 {
		return floor
	}
	return ClampWager(v, floor)
}

// leadingInt returns the optional sign and digit prefix of s.
func leadingInt(s string) string {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return ""
	}
	return s[:end]
}
