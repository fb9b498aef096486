package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zeu5/soccer-push/util"
)

var (
	ErrTooManyTimeouts = errors.New("too many timeouts")
	ErrTooManyErrors   = errors.New("too many errors")
)

const progressFrequency = 200 * time.Millisecond

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer

	output *util.ParallelOutput

	*RunConfig
}

type ExperimentResult struct {
	CompletedEpisodes int
	TotalEpisodes     int
	ErrorEpisodes     int
	TimeoutEpisodes   int
	TotalTimeSteps    int
	// Episodes that ended in a terminal state before the horizon
	TerminalEpisodes int
	TotalReward      float64

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// MeanReward is the average cumulative reward of completed episodes
func (r *ExperimentResult) MeanReward() float64 {
	if r.CompletedEpisodes == 0 {
		return 0
	}
	return r.TotalReward / float64(r.CompletedEpisodes)
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	logger := ctx.logger().With(zap.String("experiment", e.Name), zap.Int("run", ctx.run))
	space := e.Environment.ActionSpace()
	e.Policy.Reset()

	consecutiveErrors := 0
	consecutiveTimeouts := 0
EpisodeLoop:
	for episode := 0; episode < ctx.Episodes; episode++ {
		if err := ctx.ctx.Err(); err != nil {
			result.Error = err
			break EpisodeLoop
		}

		ctx.output.TrySet(fmt.Sprintf(
			"Experiment: %s, Run %d, Episode %d/%d, Timesteps: %d, Mean reward: %.3f, Error: %d, Timedout: %d",
			e.Name, ctx.run, episode, ctx.Episodes, result.TotalTimeSteps, result.MeanReward(), result.ErrorEpisodes, result.TimeoutEpisodes,
		))

		episodeCtx, cancel := ctx.episodeContext()
		eCtx := NewEpisodeContext(episodeCtx)
		eCtx.Run = ctx.run
		eCtx.Episode = episode
		eCtx.Horizon = ctx.Horizon
		eCtx.StartTimeStep = result.TotalTimeSteps

		go e.runEpisode(eCtx, space)
		// the episode goroutine checks its context before every step
		<-eCtx.Done()
		cancel()

		if err := ctx.ctx.Err(); err != nil {
			result.Error = err
			break EpisodeLoop
		}

		errorred := eCtx.IsError()
		timedout := eCtx.IsTimeout()
		if errorred {
			result.ErrorEpisodes++
			logger.Warn("episode failed", zap.Int("episode", episode), zap.Error(eCtx.Err()))
			if consecutiveErrors++; consecutiveErrors >= ctx.ThresholdConsecutiveErrors {
				result.Error = ErrTooManyErrors
				break EpisodeLoop
			}
		} else {
			consecutiveErrors = 0
		}
		if timedout {
			result.TimeoutEpisodes++
			logger.Warn("episode timed out", zap.Int("episode", episode), zap.Duration("timeout", ctx.EpisodeTimeout))
			if consecutiveTimeouts++; consecutiveTimeouts >= ctx.ThresholdConsecutiveTimeouts {
				result.Error = ErrTooManyTimeouts
				break EpisodeLoop
			}
		} else {
			consecutiveTimeouts = 0
		}

		if !errorred && !timedout {
			reward := eCtx.Trace.TotalReward()
			result.TotalTimeSteps += eCtx.Trace.Len()
			result.TotalReward += reward
			result.CompletedEpisodes++
			if eCtx.Trace.Terminated() {
				result.TerminalEpisodes++
			}
			logger.Debug("episode finished",
				zap.Int("episode", episode),
				zap.Int("steps", eCtx.Trace.Len()),
				zap.Float64("reward", reward),
				zap.Bool("terminal", eCtx.Trace.Terminated()),
			)
		}
		result.TotalEpisodes++

		for _, a := range ctx.analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}
	}
	if result.Error != nil {
		logger.Error("experiment stopped", zap.Error(result.Error))
	}
	ctx.output.Set(fmt.Sprintf(
		"Experiment: %s, Run %d, Episodes: %d, Timesteps: %d, Mean reward: %.3f, Terminal: %d, Error: %d, Timedout: %d",
		e.Name, ctx.run, result.TotalEpisodes, result.TotalTimeSteps, result.MeanReward(), result.TerminalEpisodes, result.ErrorEpisodes, result.TimeoutEpisodes,
	))
	logger.Info("experiment finished",
		zap.Int("episodes", result.TotalEpisodes),
		zap.Int("completed", result.CompletedEpisodes),
		zap.Int("timesteps", result.TotalTimeSteps),
		zap.Float64("mean_reward", result.MeanReward()),
	)

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}

	e.Policy.Reset()
	return result
}

func (ctx *experimentRunContext) episodeContext() (context.Context, context.CancelFunc) {
	if ctx.EpisodeTimeout <= 0 {
		return context.WithCancel(ctx.ctx)
	}
	return context.WithTimeout(ctx.ctx, ctx.EpisodeTimeout)
}

// runEpisode plays one episode and closes the episode context when done.
// A horizon of zero or less runs until the environment terminates.
func (e *Experiment) runEpisode(eCtx *EpisodeContext, space *ActionSpace) {
	e.Policy.ResetEpisode(eCtx)
	state, err := e.Environment.Reset(eCtx)
	if err != nil {
		eCtx.Error(fmt.Errorf("reset: %w", err))
		return
	}
	for step := 0; eCtx.Horizon <= 0 || step < eCtx.Horizon; step++ {
		if err := eCtx.Context.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				eCtx.Timeout()
			} else {
				eCtx.Error(err)
			}
			return
		}

		sCtx := &StepContext{Step: step, EpisodeContext: eCtx}
		action := e.Policy.PickAction(sCtx, state, space)
		if action == nil {
			eCtx.Error(ErrNoAction)
			return
		}
		nextState, err := e.Environment.Step(action, sCtx)
		if err != nil {
			eCtx.Error(fmt.Errorf("step %d: %w", step, err))
			return
		}
		e.Policy.UpdateStep(sCtx, state, action, nextState)
		eCtx.Trace.AddStep(&Step{
			State:     state,
			Action:    action,
			NextState: nextState,
			Reward:    nextState.Reward(),
		})
		state = nextState
		if state.Terminal() {
			break
		}
	}
	e.Policy.UpdateEpisode(eCtx)
	eCtx.Finish()
}

// Run executes every experiment sequentially for the given number of runs
// and returns the results of each run keyed by experiment name.
func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig) ([]map[string]*ExperimentResult, error) {
	out := make([]map[string]*ExperimentResult, 0, runs)
	for run := 0; run < runs; run++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		printer := util.NewTerminalPrinter(rConfig.progressOut(), progressFrequency)
		outputs := make([]*util.ParallelOutput, len(c.Experiments))
		for i := range c.Experiments {
			outputs[i] = printer.NewOutput()
		}
		printer.Start(ctx)

		results := make(map[string]*ExperimentResult)
		for i, e := range c.Experiments {
			if err := ctx.Err(); err != nil {
				printer.Stop()
				return out, err
			}
			eCtx := &experimentRunContext{
				run:       run,
				ctx:       ctx,
				analyzers: make(map[string]Analyzer),
				output:    outputs[i],
				RunConfig: rConfig,
			}
			for name, a := range c.Analyzers {
				a.Reset()
				eCtx.analyzers[name] = a
			}
			results[e.Name] = e.run(eCtx)
		}
		printer.Stop()
		out = append(out, results)

		names, datasets := gatherDatasets(results, c.Comparators)
		for name, cmp := range c.Comparators {
			cmp.Compare(names, datasets[name])
		}
	}
	return out, nil
}

// Run executes the experiments of each run on a pool of at most
// parallelism workers. Every experiment gets fresh environment, policy and
// analyzer instances.
func (c *ParallelComparison) Run(ctx context.Context, runs int, rConfig *RunConfig, parallelism int) ([]map[string]*ExperimentResult, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	out := make([]map[string]*ExperimentResult, 0, runs)
	for run := 0; run < runs; run++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		printer := util.NewTerminalPrinter(rConfig.progressOut(), progressFrequency)
		outputs := make([]*util.ParallelOutput, len(c.Experiments))
		for i := range c.Experiments {
			outputs[i] = printer.NewOutput()
		}
		printer.Start(ctx)

		results := make(map[string]*ExperimentResult)
		mu := new(sync.Mutex)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(parallelism)
		for i, e := range c.Experiments {
			worker := i
			experiment := e
			g.Go(func() error {
				eCtx := &experimentRunContext{
					run:       run,
					ctx:       gctx,
					analyzers: make(map[string]Analyzer),
					output:    outputs[worker],
					RunConfig: rConfig,
				}
				for name, aC := range c.Analyzers {
					eCtx.analyzers[name] = aC.NewAnalyzer(experiment.Name, worker)
				}
				exp := &Experiment{
					Name:        experiment.Name,
					Environment: experiment.Environment.NewEnvironment(worker),
					Policy:      experiment.Policy.NewPolicy(),
				}
				result := exp.run(eCtx)

				mu.Lock()
				results[experiment.Name] = result
				mu.Unlock()
				return nil
			})
		}
		g.Wait()
		printer.Stop()
		out = append(out, results)

		if err := ctx.Err(); err != nil {
			return out, err
		}
		names, datasets := gatherDatasets(results, c.Comparators)
		for name, cC := range c.Comparators {
			cC.NewComparator(run).Compare(names, datasets[name])
		}
	}
	return out, nil
}

// gatherDatasets lines up the datasets of each analysis with the
// (sorted) experiment names. Failed experiments contribute nil.
func gatherDatasets[C any](results map[string]*ExperimentResult, comparators map[string]C) ([]string, map[string][]DataSet) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	datasets := make(map[string][]DataSet)
	for analysis := range comparators {
		datasets[analysis] = make([]DataSet, len(names))
		for i, name := range names {
			result := results[name]
			if result.IsError() {
				continue
			}
			datasets[analysis][i] = result.Datasets[analysis]
		}
	}
	return names, datasets
}
