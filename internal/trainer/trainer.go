// Package trainer runs training episodes against a round engine, tracks
// windowed outcome statistics, and checkpoints the learner's value table on
// a fixed cadence.
package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kurav/Blackjack-RL/engine"
	"github.com/kurav/Blackjack-RL/engine/agent"
)

// Env is the slice of the round engine the trainer needs.
type Env interface {
	Reset() engine.Observation
	Step(engine.Action) (engine.Observation, float64, bool, error)
	Outcomes() []engine.Outcome
}

// Snapshotter is implemented by agents whose learned state can be
// checkpointed. Agents without it (e.g. the random baseline) train without
// checkpoints.
type Snapshotter interface {
	Snapshot() []byte
}

// Checkpointer receives value-table snapshots on the save cadence.
type Checkpointer interface {
	SaveCheckpoint(ctx context.Context, runID string, episode int, snapshot []byte) error
}

// Config controls a training session.
type Config struct {
	Episodes        int
	SaveEvery       int     // checkpoint and log cadence, in episodes
	InitialBankroll float64 // starting balance for the simulated bankroll
	BetSize         float64 // currency units per unit bet
	NaturalPayout   float64 // blackjack multiplier for bankroll credit; 0 means 1.5
}

// window accumulates per-outcome counts between checkpoints.
type window struct {
	wins, losses, pushes, blackjacks int
	startBalance                     float64
}

func (w window) total() int { return w.wins + w.losses + w.pushes + w.blackjacks }

// Trainer drives episodes of one env/agent pair. Not safe for concurrent
// use; run one Trainer per worker.
type Trainer struct {
	env   Env
	agent agent.Agent
	cfg   Config
	log   *logrus.Logger

	cp    Checkpointer
	runID string
}

// New assembles a trainer. cp may be nil to train without persistence.
func New(env Env, ag agent.Agent, cfg Config, log *logrus.Logger, cp Checkpointer, runID string) *Trainer {
	return &Trainer{env: env, agent: ag, cfg: cfg, log: log, cp: cp, runID: runID}
}

// Run trains for the configured number of episodes. The context is checked
// between episodes, so cancellation never interrupts a round mid-step.
func (t *Trainer) Run(ctx context.Context) error {
	if t.cfg.Episodes <= 0 {
		return fmt.Errorf("trainer: episodes must be positive, got %d", t.cfg.Episodes)
	}
	saveEvery := t.cfg.SaveEvery
	if saveEvery <= 0 {
		saveEvery = t.cfg.Episodes
	}
	// Keep the bankroll in step with what the engine actually pays for a
	// natural, not a fixed 3:2.
	naturalPayout := t.cfg.NaturalPayout
	if naturalPayout <= 0 {
		naturalPayout = 1.5
	}

	start := time.Now()
	balance := t.cfg.InitialBankroll
	win := window{startBalance: balance}

	t.log.WithFields(logrus.Fields{
		"run":      t.runID,
		"episodes": t.cfg.Episodes,
	}).Info("training started")

	for ep := 1; ep <= t.cfg.Episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := t.runEpisode(ep); err != nil {
			return err
		}

		// Outcome bookkeeping mirrors the reporting boundary: one tag per
		// resolved hand, bankroll moves by the flat bet size.
		for _, outcome := range t.env.Outcomes() {
			switch outcome {
			case engine.OutcomeWin:
				win.wins++
				balance += t.cfg.BetSize
			case engine.OutcomeLoss:
				win.losses++
				balance -= t.cfg.BetSize
			case engine.OutcomePush:
				win.pushes++
			case engine.OutcomeBlackjack:
				win.blackjacks++
				balance += t.cfg.BetSize * naturalPayout
			}
		}

		if ep%saveEvery == 0 {
			t.logWindow(ep, saveEvery, win, balance)
			if err := t.checkpoint(ctx, ep); err != nil {
				return err
			}
			win = window{startBalance: balance}
		}
	}

	if err := t.checkpoint(ctx, t.cfg.Episodes); err != nil {
		return err
	}

	t.log.WithFields(logrus.Fields{
		"run":     t.runID,
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
		"balance": balance,
	}).Info("training complete")
	return nil
}

// runEpisode plays one round to completion, feeding every transition to the
// agent with its per-step reward.
func (t *Trainer) runEpisode(ep int) error {
	obs := t.env.Reset()
	done := false
	for !done {
		a := t.agent.Act(obs)
		next, reward, d, err := t.env.Step(a)
		if err != nil {
			return fmt.Errorf("episode %d: %w", ep, err)
		}
		t.agent.Observe(obs, a, reward, next, d)
		obs, done = next, d
	}
	return nil
}

func (t *Trainer) logWindow(ep, span int, w window, balance float64) {
	total := w.total()
	if total == 0 {
		return
	}
	profit := balance - w.startBalance
	fields := logrus.Fields{
		"run":             t.runID,
		"episodes":        fmt.Sprintf("%d-%d", ep-span+1, ep),
		"win_rate":        rate(w.wins, total),
		"loss_rate":       rate(w.losses, total),
		"push_rate":       rate(w.pushes, total),
		"blackjack_rate":  rate(w.blackjacks, total),
		"profit_per_hand": profit / float64(total),
		"window_profit":   profit,
		"balance":         balance,
	}
	if q, ok := t.agent.(*agent.QLearner); ok {
		fields["states"] = q.States()
	}
	t.log.WithFields(fields).Info("training window")
}

// checkpoint saves the agent's table when both a checkpointer and a
// snapshottable agent are present.
func (t *Trainer) checkpoint(ctx context.Context, episode int) error {
	if t.cp == nil {
		return nil
	}
	snap, ok := t.agent.(Snapshotter)
	if !ok {
		return nil
	}
	if err := t.cp.SaveCheckpoint(ctx, t.runID, episode, snap.Snapshot()); err != nil {
		return fmt.Errorf("checkpoint at episode %d: %w", episode, err)
	}
	return nil
}

func rate(n, total int) float64 {
	return float64(n) / float64(total)
}
