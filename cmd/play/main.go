// Command play deals interactive-speed demo rounds at the terminal, letting
// the most recently trained value table pick the moves. When no checkpoint
// exists the random baseline plays instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	"github.com/kurav/Blackjack-RL/engine"
	"github.com/kurav/Blackjack-RL/engine/agent"
	"github.com/kurav/Blackjack-RL/internal/config"
	"github.com/kurav/Blackjack-RL/internal/store"
)

func main() {
	variant := flag.String("variant", "standard", "game variant: standard or reverse")
	rounds := flag.Int("rounds", 10, "number of rounds to play")
	flag.Parse()

	log := logrus.New()
	cfg := config.Load()

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

	player := loadPlayer(log, cfg.DBPath, rules.Variant(), seed)
	round := engine.NewRound(rules, seed)

	pterm.DefaultHeader.Printfln("blackjack %s — %d rounds", rules.Variant(), *rounds)

	total := 0.0
	for i := 1; i <= *rounds; i++ {
		reward, err := playRound(round, player)
		if err != nil {
			log.WithError(err).Fatal("round aborted")
		}
		total += reward
		renderRound(i, round, reward)
	}

	style := pterm.NewStyle(pterm.FgLightGreen)
	if total < 0 {
		style = pterm.NewStyle(pterm.FgLightRed)
	}
	style.Printfln("net result over %d rounds: %+.1f units", *rounds, total)
}

// loadPlayer restores the latest checkpoint for the variant. Play is greedy
// (epsilon 0) so the table's learned policy shows undiluted.
func loadPlayer(log *logrus.Logger, dbPath, variant string, seed uint64) agent.Agent {
	st, err := store.Open(dbPath)
	if err != nil {
		log.WithError(err).Warn("checkpoint store unavailable; using random play")
		return agent.NewRandomAgent(seed)
	}
	defer st.Close()

	snap, episode, err := st.LatestSnapshot(context.Background(), variant)
	if errors.Is(err, store.ErrNoCheckpoint) {
		log.Warn("no trained table found; using random play")
		return agent.NewRandomAgent(seed)
	}
	if err != nil {
		log.WithError(err).Warn("checkpoint load failed; using random play")
		return agent.NewRandomAgent(seed)
	}

	q := agent.NewQLearner(0, 0, 0, seed)
	if err := q.RestoreSnapshot(snap); err != nil {
		log.WithError(err).Warn("checkpoint corrupt; using random play")
		return agent.NewRandomAgent(seed)
	}
	log.WithFields(logrus.Fields{"episode": episode, "states": q.States()}).Info("loaded value table")
	return q
}

func playRound(round *engine.Round, player agent.Agent) (float64, error) {
	obs := round.Reset()
	total := 0.0
	for {
		a := player.Act(obs)
		next, reward, done, err := round.Step(a)
		if err != nil {
			return 0, err
		}
		total += reward
		if done {
			return total, nil
		}
		obs = next
	}
}

func renderRound(n int, round *engine.Round, reward float64) {
	dealer := fmt.Sprintf("dealer %s (%d)", cards(round.DealerHand()), round.DealerValue())

	var hands []string
	outcomes := round.Outcomes()
	for i, h := range round.Hands() {
		tag := "?"
		if i < len(outcomes) {
			tag = outcomes[i].String()
		}
		hands = append(hands, fmt.Sprintf("%s — %s", cards(h), colorOutcome(tag)))
	}

	pterm.Printfln("round %2d  %s | player %s | %+.1f", n, dealer, strings.Join(hands, " / "), reward)
}

func cards(ranks []engine.Rank) string {
	parts := make([]string, len(ranks))
	for i, r := range ranks {
		parts[i] = string(r)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func colorOutcome(tag string) string {
	switch tag {
	case "win", "blackjack":
		return pterm.LightGreen(tag)
	case "loss":
		return pterm.LightRed(tag)
	case "push":
		return pterm.LightYellow(tag)
	}
	return tag
}
