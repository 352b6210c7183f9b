package trainer

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurav/Blackjack-RL/engine"
	"github.com/kurav/Blackjack-RL/engine/agent"
)

// mockCheckpointer records every checkpoint call for assertions.
type mockCheckpointer struct {
	episodes  []int
	snapshots [][]byte
}

func (m *mockCheckpointer) SaveCheckpoint(_ context.Context, _ string, episode int, snapshot []byte) error {
	m.episodes = append(m.episodes, episode)
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRunCheckpointCadence(t *testing.T) {
	env := engine.NewRound(engine.DefaultRules(), 7)
	q := agent.NewQLearner(0.1, 0.99, 0.2, 7)
	cp := &mockCheckpointer{}

	tr := New(env, q, Config{
		Episodes:        250,
		SaveEvery:       100,
		InitialBankroll: 10000,
		BetSize:         100,
	}, quietLogger(), cp, "run-test")

	require.NoError(t, tr.Run(context.Background()))

	// Two cadence saves plus the final save.
	assert.Equal(t, []int{100, 200, 250}, cp.episodes)
	for _, snap := range cp.snapshots {
		assert.NotEmpty(t, snap)
	}
	assert.Greater(t, q.States(), 0, "training should visit states")
}

func TestRunWithoutCheckpointer(t *testing.T) {
	env := engine.NewRound(engine.ReverseRules(), 3)
	q := agent.NewQLearner(0.1, 0.99, 0.2, 3)

	tr := New(env, q, Config{Episodes: 50, SaveEvery: 10}, quietLogger(), nil, "run-test")
	require.NoError(t, tr.Run(context.Background()))
}

func TestRunRandomAgentSkipsSnapshots(t *testing.T) {
	env := engine.NewRound(engine.DefaultRules(), 5)
	cp := &mockCheckpointer{}

	tr := New(env, agent.NewRandomAgent(5), Config{Episodes: 50, SaveEvery: 25}, quietLogger(), cp, "run-rand")
	require.NoError(t, tr.Run(context.Background()))

	assert.Empty(t, cp.episodes, "random agent has no learned state to checkpoint")
}

func TestRunRejectsZeroEpisodes(t *testing.T) {
	env := engine.NewRound(engine.DefaultRules(), 1)
	tr := New(env, agent.NewRandomAgent(1), Config{}, quietLogger(), nil, "run-bad")
	assert.Error(t, tr.Run(context.Background()))
}

// naturalEnv settles every episode as an immediate blackjack, making the
// bankroll credit deterministic regardless of which action the agent picks.
type naturalEnv struct{}

func (naturalEnv) Reset() engine.Observation { return engine.Observation{} }
func (naturalEnv) Step(engine.Action) (engine.Observation, float64, bool, error) {
	return engine.Observation{}, 1.5, true, nil
}
func (naturalEnv) Outcomes() []engine.Outcome {
	return []engine.Outcome{engine.OutcomeBlackjack}
}

// TestBankrollUsesConfiguredNaturalPayout verifies the window balance credits
// blackjacks at the configured multiplier rather than a fixed 3:2.
func TestBankrollUsesConfiguredNaturalPayout(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	tr := New(naturalEnv{}, agent.NewRandomAgent(1), Config{
		Episodes:      4,
		SaveEvery:     4,
		BetSize:       100,
		NaturalPayout: 2.0,
	}, log, nil, "run-payout")

	require.NoError(t, tr.Run(context.Background()))

	var window *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "training window" {
			window = e
		}
	}
	require.NotNil(t, window, "one stats window should have been logged")
	// 4 blackjacks at 100 x 2.0 from a zero starting bankroll.
	assert.Equal(t, 800.0, window.Data["balance"])
	assert.Equal(t, 1.0, window.Data["blackjack_rate"])
}

func TestRunHonorsCancellation(t *testing.T) {
	env := engine.NewRound(engine.DefaultRules(), 1)
	tr := New(env, agent.NewRandomAgent(1), Config{Episodes: 1000000}, quietLogger(), nil, "run-cancel")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tr.Run(ctx), context.Canceled)
}
