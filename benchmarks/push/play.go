package push

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/soccer"
)

// ResetLine restarts the episode in Play
const ResetLine = "!"

type PlayConfig struct {
	Scene soccer.SceneConfig
	Seed  int64
	// Repeat is the number of decision steps each input line is held for
	Repeat int
	Color  bool
}

// Play drives the agent from lines of WASDEQ keys read from in and draws
// the arena on out after every line. It returns nil once in is exhausted.
func Play(config PlayConfig, in io.Reader, out io.Writer) error {
	env, err := soccer.NewEnv(config.Scene, config.Seed)
	if err != nil {
		return err
	}
	if config.Repeat <= 0 {
		config.Repeat = 1
	}
	keys := policies.NewLineKeys(in)
	policy := policies.NewHeuristicPolicy(keys)
	space := env.ActionSpace()

	state, err := env.Reset(nil)
	if err != nil {
		return err
	}
	draw(out, env, config, state.(*soccer.State))

	for {
		line, err := keys.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		if line == ResetLine {
			if state, err = env.Reset(nil); err != nil {
				return err
			}
			draw(out, env, config, state.(*soccer.State))
			continue
		}

		for i := 0; i < config.Repeat; i++ {
			action := policy.PickAction(nil, state, space)
			next, err := env.Step(action, nil)
			if err != nil {
				return err
			}
			state = next
			if state.Terminal() {
				break
			}
		}
		s := state.(*soccer.State)
		draw(out, env, config, s)
		if s.Terminal() {
			fmt.Fprintf(out, "episode %d over: %s, reward %.2f\n", s.Episode, s.OutcomeName(), s.Cumulative)
			if state, err = env.Reset(nil); err != nil {
				return err
			}
			draw(out, env, config, state.(*soccer.State))
		}
	}
}

func draw(out io.Writer, env *soccer.Env, config PlayConfig, s *soccer.State) {
	fmt.Fprint(out, soccer.Render(env.Scene(), config.Scene.World, config.Color))
	fmt.Fprintf(out, "episode %d step %d reward %.2f total %.2f\n", s.Episode, s.Step, s.StepReward, s.Cumulative)
}
