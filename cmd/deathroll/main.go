// Command deathroll plays Death Roll in the terminal.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/MJE43/deathroll-go/internal/config"
	"github.com/MJE43/deathroll-go/internal/logging"
	"github.com/MJE43/deathroll-go/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		config.Exitf("config: %v", err)
	}

	wager := flag.Int("wager", cfg.DefaultWager, "starting wager (minimum 5)")
	auto := flag.Bool("auto", false, "roll until the game is finished, then exit")
	showOdds := flag.Bool("odds", false, "print the statistics table and exit")
	calc := flag.String("calc", "", "print the loss probability for a custom wager (minimum 2) and exit")
	seed := flag.Int64("seed", 0, "math/rand seed; 0 seeds from the clock")
	verbose := flag.Bool("v", false, "log game events to stderr")
	flag.Parse()

	if *showOdds {
		printOddsTable(os.Stdout)
		return
	}
	if *calc != "" {
		printCalc(os.Stdout, *calc)
		return
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = logging.New(cfg.LogLevel, cfg.LogDev); err != nil {
			config.Exitf("logger: %v", err)
		}
		defer logger.Sync()
	}

	sources := session.MathSources(*seed)
	if seeds := cfg.Seeds(); *seed == 0 && !seeds.Empty() {
		sources = session.SeededSources(seeds)
	}
	sess := session.New(session.WithSources(sources), session.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := newClient(sess, os.Stdout, *wager)
	if *auto {
		err = c.auto(ctx)
	} else {
		err = c.interactive(ctx, os.Stdin)
	}
	if err != nil {
		config.Exitf("deathroll: %v", err)
	}
}
