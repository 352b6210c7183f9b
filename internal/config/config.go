// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config collects every knob the training and serving binaries read.
type Config struct {
	// Learner hyperparameters.
	Alpha   float64
	Gamma   float64
	Epsilon float64

	// Table rules.
	NumDecks           int
	ReshuffleThreshold int
	NaturalPayout      float64
	DealerHitsSoft17   bool

	// Training loop.
	Episodes        int
	SaveEvery       int
	InitialBankroll float64
	BetSize         float64
	Seed            uint64

	// Persistence and serving.
	DBPath     string
	ListenAddr string
}

// Load reads the optional .env file and assembles a Config from the
// environment, falling back to defaults for anything unset.
func Load() Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return Config{
		Alpha:   envFloat("BJ_ALPHA", 0.1),
		Gamma:   envFloat("BJ_GAMMA", 0.99),
		Epsilon: envFloat("BJ_EPSILON", 0.2),

		NumDecks:           envInt("BJ_NUM_DECKS", 1),
		ReshuffleThreshold: envInt("BJ_RESHUFFLE_THRESHOLD", 15),
		NaturalPayout:      envFloat("BJ_NATURAL_PAYOUT", 1.5),
		DealerHitsSoft17:   envBool("BJ_DEALER_HITS_SOFT17", false),

		Episodes:        envInt("BJ_EPISODES", 500000),
		SaveEvery:       envInt("BJ_SAVE_EVERY", 10000),
		InitialBankroll: envFloat("BJ_INITIAL_BANKROLL", 10000),
		BetSize:         envFloat("BJ_BET_SIZE", 100),
		Seed:            envUint("BJ_SEED", 0),

		DBPath:     envStr("BJ_DB_PATH", "saves/blackjack.db"),
		ListenAddr: envStr("BJ_LISTEN_ADDR", ":8080"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
