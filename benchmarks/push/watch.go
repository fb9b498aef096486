package push

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/soccer"
)

// Broadcaster publishes frames to viewers
type Broadcaster interface {
	Broadcast(v interface{}) error
}

type WatchConfig struct {
	// Episodes to play, zero plays until ctx is done
	Episodes int
	Horizon  int
	// Interval between two steps, zero runs as fast as possible
	Interval time.Duration
}

// Watch plays episodes of policy on env and broadcasts the frame of every
// state. It returns when the episodes are played or ctx is done.
func Watch(ctx context.Context, env core.Environment, policy core.Policy, out Broadcaster, config WatchConfig, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var tick <-chan time.Time
	if config.Interval > 0 {
		ticker := time.NewTicker(config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	space := env.ActionSpace()

	for episode := 0; config.Episodes <= 0 || episode < config.Episodes; episode++ {
		eCtx := core.NewEpisodeContext(ctx)
		eCtx.Episode = episode
		eCtx.Horizon = config.Horizon

		policy.ResetEpisode(eCtx)
		state, err := env.Reset(eCtx)
		if err != nil {
			return err
		}
		publish(out, state, logger)

		for step := 0; config.Horizon <= 0 || step < config.Horizon; step++ {
			if tick != nil {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-tick:
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}

			sCtx := &core.StepContext{Step: step, EpisodeContext: eCtx}
			action := policy.PickAction(sCtx, state, space)
			if action == nil {
				return core.ErrNoAction
			}
			next, err := env.Step(action, sCtx)
			if err != nil {
				return err
			}
			policy.UpdateStep(sCtx, state, action, next)
			publish(out, next, logger)
			state = next
			if state.Terminal() {
				break
			}
		}
		policy.UpdateEpisode(eCtx)
		if s, ok := state.(*soccer.State); ok {
			logger.Info("episode finished",
				zap.Int("episode", s.Episode),
				zap.Int("steps", s.Step),
				zap.String("outcome", s.OutcomeName()),
				zap.Float64("reward", s.Cumulative),
			)
		}
	}
	return nil
}

func publish(out Broadcaster, state core.State, logger *zap.Logger) {
	s, ok := state.(*soccer.State)
	if !ok {
		return
	}
	if err := out.Broadcast(s.Frame()); err != nil {
		logger.Debug("broadcasting frame", zap.Error(err))
	}
}
