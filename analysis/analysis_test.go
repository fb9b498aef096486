package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/replay"
)

type testState struct {
	hash     string
	reward   float64
	terminal bool
	outcome  string
	near     bool
}

func (s *testState) Hash() string           { return s.hash }
func (s *testState) Observation() []float64 { return []float64{float64(len(s.hash))} }
func (s *testState) Reward() float64        { return s.reward }
func (s *testState) Terminal() bool         { return s.terminal }
func (s *testState) OutcomeName() string    { return s.outcome }

// newTrace chains the states into steps, the reward of a step is the
// reward of the state it leads to
func newTrace(states ...*testState) (*core.EpisodeContext, *core.Trace) {
	eCtx := core.NewEpisodeContext(context.Background())
	for i := 1; i < len(states); i++ {
		eCtx.Trace.AddStep(&core.Step{
			State:     states[i-1],
			Action:    core.NewContinuousAction(1, 0, 0),
			NextState: states[i],
			Reward:    states[i].reward,
		})
	}
	return eCtx, eCtx.Trace
}

func goalEpisode() (*core.EpisodeContext, *core.Trace) {
	return newTrace(
		&testState{hash: "a", outcome: "none"},
		&testState{hash: "b", reward: 0.05, near: true, outcome: "near"},
		&testState{hash: "c", reward: 1, terminal: true, near: true, outcome: "goal"},
	)
}

func truncatedEpisode() (*core.EpisodeContext, *core.Trace) {
	return newTrace(
		&testState{hash: "a"},
		&testState{hash: "d"},
	)
}

func TestRewardAnalyzer(t *testing.T) {
	r := NewRewardAnalyzer()
	r.Analyze(goalEpisode())
	r.Analyze(truncatedEpisode())

	failed, trace := truncatedEpisode()
	failed.Error(errors.New("boom"))
	r.Analyze(failed, trace)

	ds, ok := r.DataSet().(*rewardDataset)
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{1.05, 0}, ds.Rewards, 1e-12)
	assert.Equal(t, []int{2, 1}, ds.Lengths)
	assert.Equal(t, []int{2, 3}, ds.Timesteps)
	assert.Equal(t, map[string]int{"goal": 1, OutcomeTruncated: 1}, ds.Outcomes)

	r.Reset()
	ds = r.DataSet().(*rewardDataset)
	assert.Empty(t, ds.Rewards)
	assert.Empty(t, ds.Outcomes)
}

func TestRewardComparatorWritesSummary(t *testing.T) {
	dir := t.TempDir()
	r := NewRewardAnalyzer()
	r.Analyze(goalEpisode())
	r.Analyze(truncatedEpisode())

	cmp := NewRewardComparatorConstructor(dir, 10).NewComparator(3)
	cmp.Compare([]string{"chase", "missing"}, []core.DataSet{r.DataSet(), nil})

	bs, err := os.ReadFile(filepath.Join(dir, "3", "reward_analyzer.json"))
	require.NoError(t, err)
	summaries := make(map[string]*RewardSummary)
	require.NoError(t, json.Unmarshal(bs, &summaries))
	require.Contains(t, summaries, "chase")
	assert.NotContains(t, summaries, "missing")

	s := summaries["chase"]
	assert.Equal(t, 2, s.Episodes)
	assert.InDelta(t, 0.525, s.MeanReward, 1e-9)
	assert.InDelta(t, 1.5, s.MeanLength, 1e-9)
	assert.Greater(t, s.StdReward, 0.0)

	html, err := os.ReadFile(filepath.Join(dir, "3", "rewards.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Episode reward")
}

func TestRewardComparatorLogsWriteFailures(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(blocked, []byte("not a directory"), 0o644))

	r := NewRewardAnalyzer()
	r.Analyze(goalEpisode())

	observed, logs := observer.New(zap.ErrorLevel)
	cmp := NewRewardComparatorConstructor(blocked, 10).WithLogger(zap.New(observed)).NewComparator(1)
	cmp.Compare([]string{"chase"}, []core.DataSet{r.DataSet()})

	require.Equal(t, 1, logs.FilterMessage("saving reward summary").Len())
	entries := logs.FilterMessage("rendering reward chart").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["run"])
}

func TestSummarizeSingleEpisode(t *testing.T) {
	s := summarize(&rewardDataset{Rewards: []float64{2}, Lengths: []int{4}, Outcomes: map[string]int{}})
	assert.Equal(t, 2.0, s.MeanReward)
	assert.Zero(t, s.StdReward)
	assert.Equal(t, 4.0, s.MeanLength)
}

func TestCoverageAnalyzer(t *testing.T) {
	c := NewCoverageAnalyzer()
	c.Analyze(goalEpisode())
	c.Analyze(truncatedEpisode())

	ds := c.DataSet().(*coverageDataset)
	assert.Equal(t, []int{2, 3}, ds.Timesteps)
	assert.Equal(t, []int{3, 4}, ds.UniqueStates)

	dir := t.TempDir()
	NewCoverageComparatorConstructor(dir).NewComparator(0).Compare([]string{"random"}, []core.DataSet{ds})
	_, err := os.Stat(filepath.Join(dir, "0", "coverage_analyzer.json"))
	assert.NoError(t, err)

	c.Reset()
	assert.Empty(t, c.DataSet().(*coverageDataset).Timesteps)
}

func TestPredicateAnalyzer(t *testing.T) {
	near := policies.Predicate{Name: "Near", Check: func(s core.State) bool { return s.(*testState).near }}
	goal := policies.Predicate{Name: "Goal", Check: func(s core.State) bool { return s.Terminal() }}
	p := NewPredicateAnalyzer(near, goal)

	p.Analyze(truncatedEpisode())
	eCtx, trace := goalEpisode()
	eCtx.Episode = 1
	p.Analyze(eCtx, trace)

	ds := p.DataSet().(*predicateDataset)
	assert.Equal(t, 2, ds.FirstTimeStepToFinal)
	assert.Equal(t, 1, ds.FirstEpisodeToFinal)
	assert.Equal(t, map[string]int{"Init": 2, "Near": 1, "Goal": 0}, ds.PredicateEpisodes)
	assert.Equal(t, map[string]int{"Init": 2, "Near": 1, "Goal": 0}, ds.PredicateTimesteps)
	assert.Equal(t, []int{0, 1}, ds.FinalPredicateStates)
	assert.Equal(t, []int{1, 3}, ds.FinalPredicateTimesteps)
}

func TestEventAnalyzer(t *testing.T) {
	dir := t.TempDir()
	scored := EventSpec{Name: "scored", Check: func(tr *core.Trace) bool { return tr.Terminated() }}
	a := NewEventAnalyzerConstructor(dir, 1, scored).NewAnalyzer("chase", 0)

	for i := 0; i < 3; i++ {
		eCtx, trace := goalEpisode()
		eCtx.Episode = i
		a.Analyze(eCtx, trace)
	}
	a.Analyze(truncatedEpisode())

	assert.Equal(t, map[string]int{"scored": 3}, a.DataSet())
	files, err := os.ReadDir(filepath.Join(dir, "events"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "0_chase_scored_event_0.txt", files[0].Name())

	NewEventComparatorConstructor(dir).NewComparator(0).Compare([]string{"chase"}, []core.DataSet{a.DataSet()})
	bs, err := os.ReadFile(filepath.Join(dir, "0", "events.json"))
	require.NoError(t, err)
	assert.Contains(t, string(bs), `"scored": 3`)
}

func TestErrorAnalyzer(t *testing.T) {
	dir := t.TempDir()
	a := NewErrorAnalyzerConstructor(dir).NewAnalyzer("random", 0)

	a.Analyze(truncatedEpisode())
	assert.Equal(t, 0, a.DataSet())

	eCtx, trace := truncatedEpisode()
	eCtx.Episode = 4
	eCtx.Error(errors.New("invalid action"))
	a.Analyze(eCtx, trace)
	assert.Equal(t, 1, a.DataSet())

	bs, err := os.ReadFile(filepath.Join(dir, "errors", "0_random_error_4.txt"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(bs), "Error: invalid action\n"))
	assert.Contains(t, string(bs), "Step 0")
}

func TestPrintDebugAnalyzer(t *testing.T) {
	dir := t.TempDir()
	a := NewPrintDebugAnalyzerConstructor(dir, 1).NewAnalyzer("chase", 0)

	a.Analyze(goalEpisode())
	_, err := os.Stat(filepath.Join(dir, "traces"))
	assert.True(t, os.IsNotExist(err))

	eCtx, trace := goalEpisode()
	eCtx.Episode = 1
	trace.Step(1).Misc = map[string]interface{}{"outcome": "goal"}
	a.Analyze(eCtx, trace)

	bs, err := os.ReadFile(filepath.Join(dir, "traces", "0_chase_trace_1.txt"))
	require.NoError(t, err)
	out := string(bs)
	assert.Contains(t, out, "Step 1")
	assert.Contains(t, out, "Action: [1.000,0.000,0.000]")
	assert.Contains(t, out, "Reward: 1.000")
	assert.Contains(t, out, "outcome: goal")
}

func TestReplayAnalyzer(t *testing.T) {
	dir := t.TempDir()
	buffer := replay.NewBuffer(0, 1)
	a := NewReplayAnalyzerConstructor(buffer).NewAnalyzer("chase", 0)

	a.Analyze(goalEpisode())
	a.Analyze(truncatedEpisode())
	failed, trace := goalEpisode()
	failed.Timeout()
	a.Analyze(failed, trace)

	assert.Equal(t, 3, a.DataSet())
	stats := buffer.Stats()
	assert.Equal(t, 3, stats.TotalTransitions)
	assert.Equal(t, 2, stats.TotalEpisodes)
	assert.Equal(t, 3, stats.TransitionsByEnv["chase"])

	NewReplayComparatorConstructor(buffer, dir).NewComparator(1).Compare([]string{"chase"}, []core.DataSet{a.DataSet()})
	assert.Zero(t, buffer.Len())

	bs, err := os.ReadFile(filepath.Join(dir, "1", "replay.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(bs)), "\n")
	require.Len(t, lines, 3)
	var last replay.Transition
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.True(t, last.Done)
	assert.Equal(t, 1.0, last.Reward)
	assert.Equal(t, "b", last.State)
	assert.Equal(t, []float64{1, 0, 0}, last.Action)

	_, err = os.Stat(filepath.Join(dir, "1", "replay_stats.json"))
	assert.NoError(t, err)

	a.Reset()
	assert.Equal(t, 0, a.DataSet())
}
