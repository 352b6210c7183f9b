// Command serve exposes play sessions over HTTP and WebSocket. The most
// recently trained standard value table, when present, annotates game state
// with advice.
package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kurav/Blackjack-RL/engine"
	"github.com/kurav/Blackjack-RL/engine/agent"
	"github.com/kurav/Blackjack-RL/internal/config"
	"github.com/kurav/Blackjack-RL/internal/server"
	"github.com/kurav/Blackjack-RL/internal/store"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg := config.Load()

	rules := engine.Rules{
		NaturalPayout:      cfg.NaturalPayout,
		DealerHitsSoft17:   cfg.DealerHitsSoft17,
		NumDecks:           cfg.NumDecks,
		ReshuffleThreshold: cfg.ReshuffleThreshold,
	}

	srv := server.New(log, rules, loadAdvisor(log, cfg.DBPath))

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("server stopped")
	}
}

// loadAdvisor restores the latest standard-variant table for advice. A
// missing table is normal on a fresh install, so the server starts without
// one.
func loadAdvisor(log *logrus.Logger, dbPath string) *agent.QLearner {
	st, err := store.Open(dbPath)
	if err != nil {
		log.WithError(err).Warn("checkpoint store unavailable; serving without advice")
		return nil
	}
	defer st.Close()

	snap, episode, err := st.LatestSnapshot(context.Background(), "standard")
	if errors.Is(err, store.ErrNoCheckpoint) {
		log.Info("no trained table yet; serving without advice")
		return nil
	}
	if err != nil {
		log.WithError(err).Warn("checkpoint load failed; serving without advice")
		return nil
	}

	q := agent.NewQLearner(0, 0, 0, 1)
	if err := q.RestoreSnapshot(snap); err != nil {
		log.WithError(err).Warn("checkpoint corrupt; serving without advice")
		return nil
	}
	log.WithFields(logrus.Fields{"episode": episode, "states": q.States()}).Info("advice table loaded")
	return q
}
