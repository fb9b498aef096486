package policies

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/soccer"
)

type fakeState struct {
	hash     string
	reward   float64
	terminal bool
}

func (f *fakeState) Hash() string           { return f.hash }
func (f *fakeState) Observation() []float64 { return nil }
func (f *fakeState) Reward() float64        { return f.reward }
func (f *fakeState) Terminal() bool         { return f.terminal }

func TestQTable(t *testing.T) {
	q := NewQTable(1)
	assert.Equal(t, 0.5, q.Get("s", "a", 0.5))
	q.Set("s", "b", 2)
	action, val := q.Max("s", 0)
	assert.Equal(t, "b", action)
	assert.Equal(t, 2.0, val)

	action, val = q.Max("unknown", -1)
	assert.Empty(t, action)
	assert.Equal(t, -1.0, val)
	assert.False(t, q.HasState("unknown"))

	action, val = q.MaxAmong("s", []string{"a", "c"}, 0.5)
	assert.Contains(t, []string{"a", "c"}, action)
	assert.Equal(t, 0.5, val)

	action, _ = q.MaxAmong("s", nil, 0)
	assert.Empty(t, action)

	path := filepath.Join(t.TempDir(), "qtable.jsonl")
	require.NoError(t, q.Record(path))
	r := NewQTable(2)
	require.NoError(t, r.Read(path))
	assert.Equal(t, q.Size(), r.Size())
	all, ok := r.GetAll("s")
	require.True(t, ok)
	assert.Equal(t, 2.0, all["b"])

	assert.Error(t, r.Read(filepath.Join(t.TempDir(), "missing.jsonl")))
}

func TestRandomPolicyStaysInBox(t *testing.T) {
	p := NewRandomPolicyConstructor(1).NewPolicy()
	space := core.UnitBox(3)
	for i := 0; i < 100; i++ {
		a := p.PickAction(nil, &fakeState{}, space)
		assert.True(t, space.Contains(a.Values()))
	}
}

func TestQLearningUpdate(t *testing.T) {
	p := NewQLearningPolicy(QLearningParams{Alpha: 0.5, Discount: 0.9, Resolution: 3, Seed: 1})
	space := core.UnitBox(3)
	s := &fakeState{hash: "s"}
	next := &fakeState{hash: "n", reward: 1}

	a := p.PickAction(nil, s, space)
	require.NotNil(t, a)
	assert.True(t, space.Contains(a.Values()))

	p.UpdateStep(nil, s, a, next)
	assert.InDelta(t, 0.5, p.Table().Get("s", a.Hash(), 0), 1e-12)

	p.UpdateStep(nil, s, a, next)
	assert.InDelta(t, 0.75, p.Table().Get("s", a.Hash(), 0), 1e-12)

	// the learned action is now the greedy one
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Hash(), p.PickAction(nil, s, space).Hash())
	}

	p.Reset()
	assert.Zero(t, p.Table().Size())
}

func TestQLearningDoesNotBootstrapTerminal(t *testing.T) {
	p := NewQLearningPolicy(QLearningParams{Alpha: 1, Discount: 1, Seed: 1})
	a := core.NewContinuousAction(0, 0, 0)
	p.Table().Set("n", a.Hash(), 10)

	p.UpdateStep(nil, &fakeState{hash: "s"}, a, &fakeState{hash: "n", reward: 1, terminal: true})
	assert.Equal(t, 1.0, p.Table().Get("s", a.Hash(), 0))

	p.UpdateStep(nil, &fakeState{hash: "s"}, a, &fakeState{hash: "n", reward: 1})
	assert.Equal(t, 11.0, p.Table().Get("s", a.Hash(), 0))
}

func TestQLearningBonus(t *testing.T) {
	p := NewQLearningPolicy(QLearningParams{Alpha: 1, Bonus: 1, Seed: 1})
	a := core.NewContinuousAction(1, 1, 1)
	s := &fakeState{hash: "s"}
	p.UpdateStep(nil, s, a, &fakeState{hash: "n", terminal: true})
	assert.InDelta(t, 1.0, p.Table().Get("s", a.Hash(), 0), 1e-12)
	p.UpdateStep(nil, s, a, &fakeState{hash: "n", terminal: true})
	assert.InDelta(t, 1/1.4142135623730951, p.Table().Get("s", a.Hash(), 0), 1e-12)
}

func TestSoftmax(t *testing.T) {
	w := Softmax([]float64{1, 2, 3}, 3, 1)
	assert.InDelta(t, 1.0, w[0]+w[1]+w[2], 1e-12)
	assert.Less(t, w[0], w[1])
	assert.Less(t, w[1], w[2])

	flat := Softmax([]float64{1, 2, 3}, 3, 1e6)
	assert.InDelta(t, flat[0], flat[2], 1e-5)
}

func TestSoftMaxPolicy(t *testing.T) {
	p := NewSoftMaxPolicy(SoftMaxParams{Alpha: 1, Gamma: 0, Temperature: 0.01, CountPenalty: 0.5, Seed: 3})
	space := core.UnitBox(3)
	s := &fakeState{hash: "s"}

	a := p.PickAction(nil, s, space)
	require.NotNil(t, a)
	assert.Len(t, p.QTable["s"], 27)

	p.UpdateStep(nil, s, a, &fakeState{hash: "n", reward: 1})
	assert.Equal(t, 1.0, p.QTable["s"][a.Hash()])
	// second visit of n is penalized
	p.UpdateStep(nil, s, a, &fakeState{hash: "n", reward: 1})
	assert.Equal(t, 0.5, p.QTable["s"][a.Hash()])

	// with a low temperature the best action dominates
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Hash(), p.PickAction(nil, s, space).Hash())
	}
}

func TestUCBPolicy(t *testing.T) {
	p := NewUCBPolicy(UCBParams{Horizon: 10, Episodes: 10, StateSize: 10, MaxReturn: 2, Seed: 1})
	space := core.UnitBox(3)
	s := &fakeState{hash: "s"}
	a := p.PickAction(nil, s, space)
	require.NotNil(t, a)
	assert.Greater(t, p.eta, 0.0)

	// without bonus the first update is a full replacement
	p.UpdateStep(nil, s, a, &fakeState{hash: "n", reward: 0.5})
	assert.InDelta(t, 0.5+2, p.qTable.Get("s", a.Hash(), 0), 1e-12)

	p.UpdateStep(nil, s, a, &fakeState{hash: "n", reward: 0.5, terminal: true})
	alpha := 11.0 / 12.0
	assert.InDelta(t, (1-alpha)*2.5+alpha*0.5, p.qTable.Get("s", a.Hash(), 0), 1e-12)
}

func TestHierarchyPolicy(t *testing.T) {
	predicates := []Predicate{
		{Name: "any", Check: func(core.State) bool { return true }},
		{Name: "reached", Check: func(s core.State) bool { return s.Hash() == "goal" }},
	}
	p := NewHierarchyPolicy(HierarchyParams{Alpha: 1, Discount: 0.5, Seed: 1}, predicates...)
	space := core.UnitBox(3)

	p.ResetEpisode(nil)
	start := &fakeState{hash: "start"}
	a := p.PickAction(nil, start, space)
	require.NotNil(t, a)

	p.UpdateStep(nil, start, a, &fakeState{hash: "goal", reward: 1})
	assert.Equal(t, 1, p.Current())
	p.UpdateEpisode(nil)

	// env reward + visit bonus + progress reward
	assert.InDelta(t, 1+1+ProgressReward, p.qTables[0].Get("start", a.Hash(), 0), 1e-12)

	p.ResetEpisode(nil)
	assert.Equal(t, 0, p.Current())
}

func TestHeuristicPolicyReadsLines(t *testing.T) {
	keys := NewLineKeys(strings.NewReader("w\nDE\n"))
	p := NewHeuristicPolicyConstructor(keys).NewPolicy()
	space := core.UnitBox(3)

	line, err := keys.Next()
	require.NoError(t, err)
	assert.Equal(t, "w", line)
	assert.Equal(t, []float64{-1, 0, 0}, p.PickAction(nil, nil, space).Values())

	_, err = keys.Next()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1}, p.PickAction(nil, nil, space).Values())

	_, err = keys.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLocalMove(t *testing.T) {
	// facing -x, moving toward -x is straight ahead
	m := localMove(mgl64.Vec2{-1, 0}, -90)
	assert.InDelta(t, 0, m[0], 1e-9)
	assert.InDelta(t, 1, m[1], 1e-9)

	m = localMove(mgl64.Vec2{0.5, 0.25}, 0)
	assert.InDelta(t, 1, m[0], 1e-9)
	assert.InDelta(t, 0.5, m[1], 1e-9)

	assert.Equal(t, []float64{0, 0, 0}, localMove(mgl64.Vec2{}, 10))
}

func TestChasePolicyPushesTowardTarget(t *testing.T) {
	p := NewChasePolicy()
	state := &soccer.State{
		Obs: []float64{
			-8, 0.5, 0, // target
			0, 0.5, 0, // ball
			1.5, 0.5, 0, // agent, lined up behind the ball
			0, 0,
		},
		AgentYaw: -90,
	}
	a := p.PickAction(nil, state, core.UnitBox(3))
	require.NotNil(t, a)
	assert.InDelta(t, 0, a.Values()[0], 1e-9)
	assert.InDelta(t, 1, a.Values()[1], 1e-9)

	assert.Nil(t, p.PickAction(nil, &fakeState{}, core.UnitBox(3)))
}

func TestChasePolicyScoresInEnv(t *testing.T) {
	env, err := soccer.NewEnv(soccer.DefaultSceneConfig(), 5)
	require.NoError(t, err)

	exp := &core.Experiment{Name: "chase", Environment: env, Policy: NewChasePolicy()}
	c := core.NewComparison()
	c.AddExperiment(exp)
	results, err := c.Run(context.Background(), 1, &core.RunConfig{
		Episodes:                     5,
		Horizon:                      2000,
		ThresholdConsecutiveErrors:   5,
		ThresholdConsecutiveTimeouts: 5,
	})
	require.NoError(t, err)
	result := results[0]["chase"]
	assert.Equal(t, 5, result.CompletedEpisodes)
	assert.Greater(t, result.TotalReward, 0.0)
}
