// Command train runs tabular Q-learning against the round engine and
// checkpoints the value table into the local SQLite store.
package main

import (
	"context"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kurav/Blackjack-RL/engine"
	"github.com/kurav/Blackjack-RL/engine/agent"
	"github.com/kurav/Blackjack-RL/internal/config"
	"github.com/kurav/Blackjack-RL/internal/store"
	"github.com/kurav/Blackjack-RL/internal/trainer"
)

func main() {
	variant := flag.String("variant", "standard", "game variant to train on: standard or reverse")
	episodes := flag.Int("episodes", 0, "override BJ_EPISODES when positive")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()
	if *episodes > 0 {
		cfg.Episodes = *episodes
	}

	rules := engine.Rules{
		NaturalPayout:      cfg.NaturalPayout,
		DealerHitsSoft17:   cfg.DealerHitsSoft17,
		NumDecks:           cfg.NumDecks,
		ReshuffleThreshold: cfg.ReshuffleThreshold,
	}
	switch *variant {
	case "standard":
	case "reverse":
		rules.DealerPlaysFirst = true
	default:
		log.Fatalf("unknown variant %q (want standard or reverse)", *variant)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("open checkpoint store")
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	if err := st.CreateRun(ctx, runID, rules.Variant()); err != nil {
		log.WithError(err).Fatal("register run")
	}

	log.WithFields(logrus.Fields{
		"run":     runID,
		"variant": rules.Variant(),
		"seed":    seed,
		"alpha":   cfg.Alpha,
		"gamma":   cfg.Gamma,
		"epsilon": cfg.Epsilon,
	}).Info("starting run")

	env := engine.NewRound(rules, seed)
	learner := agent.NewQLearner(cfg.Alpha, cfg.Gamma, cfg.Epsilon, seed)

	tr := trainer.New(env, learner, trainer.Config{
		Episodes:        cfg.Episodes,
		SaveEvery:       cfg.SaveEvery,
		InitialBankroll: cfg.InitialBankroll,
		BetSize:         cfg.BetSize,
		NaturalPayout:   cfg.NaturalPayout,
	}, log, st, runID)

	if err := tr.Run(ctx); err != nil {
		if ctx.Err() != nil {
			log.Warn("training interrupted; last checkpoint kept")
			return
		}
		log.WithError(err).Fatal("training failed")
	}
}
