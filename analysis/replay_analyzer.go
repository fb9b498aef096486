package analysis

import (
	"context"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/google/uuid"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/replay"
	"github.com/zeu5/soccer-push/util"
)

// ReplayAnalyzer copies the transitions of every successful episode into a
// replay buffer shared by all experiments
type ReplayAnalyzer struct {
	buffer *replay.Buffer
	exp    string
	stored int
}

var _ core.Analyzer = &ReplayAnalyzer{}

func NewReplayAnalyzer(buffer *replay.Buffer, exp string) *ReplayAnalyzer {
	return &ReplayAnalyzer{
		buffer: buffer,
		exp:    exp,
	}
}

func (r *ReplayAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if eCtx.IsError() || eCtx.IsTimeout() {
		return
	}
	episodeID := uuid.NewString()
	transitions := make([]*replay.Transition, 0, trace.Len())
	for i := 0; i < trace.Len(); i++ {
		step := trace.Step(i)
		transitions = append(transitions, &replay.Transition{
			EnvID:           r.exp,
			EpisodeID:       episodeID,
			StepNumber:      i,
			State:           step.State.Hash(),
			Observation:     step.State.Observation(),
			Action:          step.Action.Values(),
			NextObservation: step.NextState.Observation(),
			Reward:          step.Reward,
			Done:            step.NextState.Terminal(),
		})
	}
	ids, _ := r.buffer.StoreBatch(context.Background(), transitions)
	r.stored += len(ids)
}

// DataSet is the number of transitions stored
func (r *ReplayAnalyzer) DataSet() core.DataSet {
	return r.stored
}

func (r *ReplayAnalyzer) Reset() {
	r.stored = 0
}

type ReplayAnalyzerConstructor struct {
	buffer *replay.Buffer
}

var _ core.AnalyzerConstructor = &ReplayAnalyzerConstructor{}

func NewReplayAnalyzerConstructor(buffer *replay.Buffer) *ReplayAnalyzerConstructor {
	return &ReplayAnalyzerConstructor{buffer: buffer}
}

func (c *ReplayAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	return NewReplayAnalyzer(c.buffer, exp)
}

// ReplayComparator exports the buffer to replay.jsonl with its statistics
// in replay_stats.json, then empties it for the next run
type ReplayComparator struct {
	buffer   *replay.Buffer
	savePath string
}

var _ core.Comparator = &ReplayComparator{}

func NewReplayComparator(buffer *replay.Buffer, savePath string) *ReplayComparator {
	return &ReplayComparator{
		buffer:   buffer,
		savePath: savePath,
	}
}

func (c *ReplayComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	stored := make(map[string]int)
	for i, name := range experimentNames {
		if n, ok := datasets[i].(int); ok {
			stored[name] = n
		}
	}
	if err := c.export(stored); err != nil {
		fmt.Fprintf(os.Stderr, "exporting replay buffer: %s\n", err)
	}
	c.buffer.Clear(0)
}

func (c *ReplayComparator) export(stored map[string]int) error {
	if err := util.SaveJson(path.Join(c.savePath, "replay_stats.json"), map[string]interface{}{
		"stored": stored,
		"buffer": c.buffer.Stats(),
	}); err != nil {
		return err
	}
	f, err := os.Create(path.Join(c.savePath, "replay.jsonl"))
	if err != nil {
		return err
	}
	defer f.Close()
	return c.buffer.WriteJSONL(f)
}

type ReplayComparatorConstructor struct {
	buffer   *replay.Buffer
	savePath string
}

var _ core.ComparatorConstructor = &ReplayComparatorConstructor{}

func NewReplayComparatorConstructor(buffer *replay.Buffer, savePath string) *ReplayComparatorConstructor {
	return &ReplayComparatorConstructor{
		buffer:   buffer,
		savePath: savePath,
	}
}

func (c *ReplayComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewReplayComparator(c.buffer, path.Join(c.savePath, strconv.Itoa(run)))
}
