package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeu5/soccer-push/benchmarks/push"
	"github.com/zeu5/soccer-push/core"
)

func RunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compare the baselines and learning policies on the push task",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := sceneConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()
			cmp, err := push.PrepareComparison(flags, config, logger)
			if err != nil {
				return err
			}
			return runComparison(cmp, logger)
		},
	}

	cmd.AddCommand(runHierarchyCommand())

	return cmd
}

func runHierarchyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hierarchy [name|set]",
		Args:  cobra.ExactArgs(1),
		Short: "Run the hierarchy policies of a named hierarchy or hierarchy set",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := sceneConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()
			cmp, err := push.PrepareHierarchyComparison(flags, config, args[0], logger)
			if err != nil {
				return err
			}
			return runComparison(cmp, logger)
		},
	}

	return cmd
}

// runComparison runs cmp until done or interrupted and logs the result of
// every experiment
func runComparison(cmp *core.ParallelComparison, logger *zap.Logger) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os
	defer signal.Stop(sigCh)

	doneCh := make(chan struct{}) // channel for done signal from application
	defer close(doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-sigCh:
			logger.Info("interrupted, stopping")
		case <-doneCh:
		}
		cancel()
	}()

	results, err := cmp.Run(ctx, flags.NumRuns, &core.RunConfig{
		Episodes:                     flags.Episodes,
		Horizon:                      flags.Horizon,
		ThresholdConsecutiveErrors:   flags.MaxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: flags.MaxConsecutiveTimeouts,
		EpisodeTimeout:               flags.EpisodeTimeout,
		Logger:                       logger,
		Out:                          os.Stdout,
	}, flags.Parallelism)

	for run, result := range results {
		names := make([]string, 0, len(result))
		for name := range result {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r := result[name]
			fields := []zap.Field{
				zap.Int("run", run),
				zap.String("experiment", name),
				zap.Int("completed", r.CompletedEpisodes),
				zap.Int("errors", r.ErrorEpisodes),
				zap.Int("timeouts", r.TimeoutEpisodes),
				zap.Int("terminal", r.TerminalEpisodes),
				zap.Float64("mean_reward", r.MeanReward()),
			}
			if r.IsError() {
				logger.Warn("experiment failed", append(fields, zap.Error(r.Error))...)
				continue
			}
			logger.Info("experiment finished", fields...)
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
