package push

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/soccer-push/benchmarks/common"
	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/soccer"
)

type otherState struct{}

func (otherState) Hash() string           { return "" }
func (otherState) Observation() []float64 { return nil }
func (otherState) Reward() float64        { return 0 }
func (otherState) Terminal() bool         { return false }

func at(x, z float64) mgl64.Vec3 {
	return mgl64.Vec3{x, soccer.SpawnHeight, z}
}

func TestPredicates(t *testing.T) {
	target := at(-8, 0)
	cases := []struct {
		name  string
		pred  policies.PredicateFunc
		state *soccer.State
		want  bool
	}{
		{"near", NearBall(), &soccer.State{Agent: at(1, 0), Ball: at(0, 0), Target: target}, true},
		{"far", NearBall(), &soccer.State{Agent: at(3, 0), Ball: at(0, 0), Target: target}, false},
		{"advanced", BallAdvanced(0.5), &soccer.State{Ball: at(-4.5, 0), Target: target}, true},
		{"not advanced", BallAdvanced(0.5), &soccer.State{Ball: at(-3, 0), Target: target}, false},
		{"within", BallWithin(3), &soccer.State{Ball: at(-6, 1), Target: target}, true},
		{"not within", BallWithin(3), &soccer.State{Ball: at(-2, 0), Target: target}, false},
		{"goal", Goal(), &soccer.State{Outcome: soccer.OutcomeGoal}, true},
		{"fell", Goal(), &soccer.State{Outcome: soccer.OutcomeAgentFell}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.pred(c.state))
		})
	}
	assert.False(t, NearBall()(otherState{}))
}

func TestHierarchies(t *testing.T) {
	push := GetHierarchy("Push")
	require.Len(t, push, 3)
	assert.Equal(t, "Goal", push[2].Name)
	assert.Nil(t, GetHierarchy("Unknown"))

	sets := getHierarchySet("Push")
	require.Len(t, sets, 3)
	assert.Equal(t, "Push[1]", sets[0].Name)
	assert.Len(t, sets[0].Predicates, 1)
	assert.Equal(t, "Push[3]", sets[2].Name)
	assert.Len(t, sets[2].Predicates, 3)

	assert.Len(t, getHierarchySet("set1"), 3)
	assert.Empty(t, getHierarchySet("set9"))
}

func traceOf(states ...*soccer.State) *core.Trace {
	trace := core.NewTrace()
	for i := 1; i < len(states); i++ {
		trace.AddStep(&core.Step{State: states[i-1], NextState: states[i]})
	}
	return trace
}

func TestEvents(t *testing.T) {
	checks := make(map[string]func(*core.Trace) bool)
	for _, e := range Events() {
		checks[e.Name] = e.Check
	}
	target := at(-8, 0)

	scored := traceOf(
		&soccer.State{Agent: at(5, 0), Ball: at(0, 0), Target: target},
		&soccer.State{Agent: at(1, 0), Ball: at(0, 0), Target: target},
		&soccer.State{Agent: at(-7, 0), Ball: at(-8, 0), Target: target, Outcome: soccer.OutcomeGoal},
	)
	assert.True(t, checks["goal"](scored))
	assert.False(t, checks["agent_fell"](scored))
	assert.False(t, checks["never_touched"](scored))

	fell := traceOf(
		&soccer.State{Agent: at(14, 0), Ball: at(0, 0), Target: target},
		&soccer.State{Agent: at(16, 0), Ball: at(0, 0), Target: target, Outcome: soccer.OutcomeAgentFell},
	)
	assert.True(t, checks["agent_fell"](fell))
	assert.True(t, checks["never_touched"](fell))

	assert.False(t, checks["goal"](core.NewTrace()))
	assert.False(t, checks["never_touched"](core.NewTrace()))
}

type frames struct {
	got []soccer.Frame
}

func (f *frames) Broadcast(v interface{}) error {
	f.got = append(f.got, v.(soccer.Frame))
	return nil
}

func TestWatch(t *testing.T) {
	env, err := soccer.NewEnv(soccer.DefaultSceneConfig(), 1)
	require.NoError(t, err)
	out := &frames{}

	err = Watch(context.Background(), env, policies.NewChasePolicy(), out, WatchConfig{Episodes: 2, Horizon: 5}, nil)
	require.NoError(t, err)
	require.Len(t, out.got, 12)
	assert.Equal(t, 1, out.got[0].Episode)
	assert.Equal(t, 0, out.got[0].Step)
	assert.Equal(t, 5, out.got[5].Step)
	assert.Equal(t, 2, out.got[6].Episode)
	assert.Equal(t, "none", out.got[11].Outcome)
}

func TestWatchStopsOnCancel(t *testing.T) {
	env, err := soccer.NewEnv(soccer.DefaultSceneConfig(), 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = Watch(ctx, env, policies.NewChasePolicy(), &frames{}, WatchConfig{Interval: time.Millisecond}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlay(t *testing.T) {
	in := strings.NewReader("w\n!\n")
	out := new(bytes.Buffer)

	err := Play(PlayConfig{Scene: soccer.DefaultSceneConfig(), Seed: 3, Repeat: 3}, in, out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "episode 1 step 0 ")
	assert.Contains(t, text, "episode 1 step 3 ")
	assert.Contains(t, text, "episode 2 step 0 ")
	assert.Contains(t, text, "agent (")
	assert.NotContains(t, text, "\x1b[")
}

func testFlags(t *testing.T) *common.Flags {
	f := common.DefaultFlags()
	f.SavePath = t.TempDir()
	f.Episodes = 2
	f.Horizon = 20
	f.Parallelism = 3
	f.RecordReplay = true
	f.RecordEventTraces = true
	return f
}

func TestPrepareComparison(t *testing.T) {
	f := testFlags(t)
	cmp, err := PrepareComparison(f, soccer.DefaultSceneConfig(), nil)
	require.NoError(t, err)
	require.Len(t, cmp.Experiments, 7)

	results, err := cmp.Run(context.Background(), 1, &core.RunConfig{
		Episodes:                     f.Episodes,
		Horizon:                      f.Horizon,
		EpisodeTimeout:               f.EpisodeTimeout,
		ThresholdConsecutiveErrors:   f.MaxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: f.MaxConsecutiveTimeouts,
	}, f.Parallelism)
	require.NoError(t, err)
	require.Len(t, results, 1)
	for name, r := range results[0] {
		assert.False(t, r.IsError(), name)
		assert.Equal(t, 2, r.CompletedEpisodes, name)
	}

	for _, file := range []string{"reward_analyzer.json", "rewards.html", "coverage_analyzer.json", "events.json", "replay.jsonl", "predicate_comparison_Push.json"} {
		_, err := os.Stat(filepath.Join(f.SavePath, "0", file))
		assert.NoError(t, err, file)
	}
}

func TestPrepareHierarchyComparison(t *testing.T) {
	f := testFlags(t)
	_, err := PrepareHierarchyComparison(f, soccer.DefaultSceneConfig(), "Unknown", nil)
	assert.Error(t, err)

	cmp, err := PrepareHierarchyComparison(f, soccer.DefaultSceneConfig(), "Push", nil)
	require.NoError(t, err)
	assert.Len(t, cmp.Experiments, 5)
	assert.Contains(t, cmp.Analyzers, "HierarchyCoverage_Push[3]")

	bad := soccer.DefaultSceneConfig()
	bad.DeltaTime = 0
	_, err = PrepareComparison(f, bad, nil)
	assert.Error(t, err)
}
