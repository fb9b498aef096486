package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zeu5/soccer-push/benchmarks/push"
	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/soccer"
	"github.com/zeu5/soccer-push/stream"
)

func newServePolicy(name string, seed int64) (core.Policy, error) {
	switch name {
	case "chase":
		return policies.NewChasePolicy(), nil
	case "random":
		return policies.NewRandomPolicy(seed), nil
	case "qlearning":
		return policies.NewQLearningPolicy(policies.QLearningParams{
			Alpha:      0.1,
			Discount:   0.99,
			Epsilon:    0.1,
			Resolution: policies.DefaultResolution,
			Seed:       seed,
		}), nil
	default:
		return nil, fmt.Errorf("unknown policy %q, expected chase, random or qlearning", name)
	}
}

func ServeCommand() *cobra.Command {
	var policyName string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stream the episodes of a policy to websocket viewers at /ws",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := sceneConfig(cmd)
			if err != nil {
				return err
			}
			policy, err := newServePolicy(policyName, flags.Seed)
			if err != nil {
				return err
			}
			env, err := soccer.NewEnv(config, flags.Seed)
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return serve(ctx, env, policy, logger)
		},
	}
	cmd.Flags().StringVar(&policyName, "policy", "chase", "Policy to stream (chase, random, qlearning)")

	return cmd
}

func serve(ctx context.Context, env core.Environment, policy core.Policy, logger *zap.Logger) error {
	hub := stream.NewHub(logger)
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	server := &http.Server{Addr: flags.Addr, Handler: mux}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving viewers", zap.String("addr", flags.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		// the server goes down once the episodes are played
		defer cancel()
		defer hub.Close()
		return push.Watch(gctx, env, policy, hub, push.WatchConfig{
			Episodes: flags.Episodes,
			Horizon:  flags.Horizon,
			Interval: flags.StepInterval,
		}, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
