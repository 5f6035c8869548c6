package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MJE43/deathroll-go/internal/games"
	"github.com/MJE43/deathroll-go/internal/odds"
	"github.com/MJE43/deathroll-go/internal/session"
)

const help = "Enter rolls, n starts a new game, q quits."

// client drives a session from line-based input.
type client struct {
	sess    *session.Session
	out     io.Writer
	wager   int
	printed int
}

func newClient(sess *session.Session, out io.Writer, wager int) *client {
	return &client{sess: sess, out: out, wager: wager}
}

func (c *client) start() {
	c.printed = 0
	c.render(c.sess.Start(c.wager))
}

// roll reports whether the game is finished after the attempt.
func (c *client) roll(ctx context.Context) (bool, error) {
	_, snap, err := c.sess.Roll(ctx)
	if errors.Is(err, games.ErrInvalidOperation) {
		fmt.Fprintln(c.out, "The game is over. "+help)
		return true, nil
	}
	if err != nil {
		return false, err
	}
	c.render(snap)
	return snap.Status == games.StatusFinished, nil
}

func (c *client) render(snap session.Snapshot) {
	for _, msg := range snap.Messages[c.printed:] {
		fmt.Fprintln(c.out, msg)
	}
	c.printed = len(snap.Messages)

	if snap.Status == games.StatusFinished {
		fmt.Fprintln(c.out, snap.Outcome)
		return
	}
	fmt.Fprintf(c.out, "Wager: %dg | Current roll: %d | %s to roll, win probability %s, lose probability %s\n",
		snap.Wager, snap.Bound, snap.Active,
		odds.FormatPercent(odds.WinProbability(snap.Bound)), snap.NextRollerLosePercent)
}

// auto plays one game to the end.
func (c *client) auto(ctx context.Context) error {
	c.start()
	_, snap, err := c.sess.RollUntilFinished(ctx)
	if err != nil {
		return err
	}
	c.render(snap)
	return nil
}

// interactive plays until q or end of input.
func (c *client) interactive(ctx context.Context, in io.Reader) error {
	c.start()
	fmt.Fprintln(c.out, help)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "":
			if _, err := c.roll(ctx); err != nil {
				return err
			}
		case "n":
			c.start()
		case "q":
			return nil
		default:
			fmt.Fprintln(c.out, help)
		}
	}
	return sc.Err()
}

func printOddsTable(out io.Writer) {
	fmt.Fprintln(out, "Wager   Player 1 loses")
	for _, row := range odds.Table(odds.DefaultWagers) {
		fmt.Fprintf(out, "%5dg   %s%%\n", row.Wager, row.Percent.StringFixed(2))
	}
}

func printCalc(out io.Writer, input string) {
	wager := games.ParseWager(input, games.MinCalculatorWager)
	fmt.Fprintf(out, "Wager %dg: Player 1 loses %s\n", wager, odds.FormatPercent(odds.LoseProbability(wager)))
}
