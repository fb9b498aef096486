package soccer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeu5/soccer-push/core"
)

func newTestEnv(t *testing.T, seed int64) *Env {
	t.Helper()
	env, err := NewEnv(DefaultSceneConfig(), seed)
	require.NoError(t, err)
	return env
}

func TestEnvReset(t *testing.T) {
	env := newTestEnv(t, 1)
	s, err := env.Reset(core.NewEpisodeContext(context.Background()))
	require.NoError(t, err)

	state := s.(*State)
	assert.Len(t, state.Observation(), ObservationSize)
	assert.False(t, state.Terminal())
	assert.Zero(t, state.Reward())
	assert.Equal(t, 1, state.Episode)
	assert.Equal(t, []float64{0, SpawnHeight, 0}, state.Observation()[ObsBall:ObsBall+3])
	assert.Equal(t, core.UnitBox(ActionSize), env.ActionSpace())
}

func TestEnvStepValidation(t *testing.T) {
	env := newTestEnv(t, 1)
	_, err := env.Reset(nil)
	require.NoError(t, err)

	_, err = env.Step(core.NewContinuousAction(1, 0), nil)
	assert.ErrorIs(t, err, ErrInvalidAction)

	// out of range values are clipped
	before := env.Scene().Agent.Clone()
	_, err = env.Step(core.NewContinuousAction(5, 0, 0), nil)
	require.NoError(t, err)
	moved := env.Scene().Agent.Position.Sub(before.Position)
	assert.InDelta(t, DefaultDeltaTime*DefaultSpeedMultiplier, moved.Len(), 1e-9)
}

func TestEnvGoalEndsEpisode(t *testing.T) {
	env := newTestEnv(t, 2)
	_, err := env.Reset(nil)
	require.NoError(t, err)

	scene := env.Scene()
	scene.Ball.Position = scene.Target.Position.Add(mgl64.Vec3{0.5, 0, 0})

	s, err := env.Step(core.NewContinuousAction(0, 0, 0), nil)
	require.NoError(t, err)
	state := s.(*State)
	assert.True(t, state.Terminal())
	assert.Equal(t, GoalReward, state.Reward())
	assert.Equal(t, "goal", state.OutcomeName())
	assert.Equal(t, GoalReward, state.Cumulative)

	_, err = env.Step(core.NewContinuousAction(0, 0, 0), nil)
	assert.ErrorIs(t, err, core.ErrEpisodeOver)

	// a reset starts over
	s, err = env.Reset(nil)
	require.NoError(t, err)
	assert.False(t, s.Terminal())
	assert.Zero(t, s.(*State).Cumulative)
}

func TestEnvAgentFallsOffArena(t *testing.T) {
	env := newTestEnv(t, 3)
	_, err := env.Reset(nil)
	require.NoError(t, err)
	env.Scene().Agent.Position = mgl64.Vec3{15.5, SpawnHeight, 0}

	var state core.State
	for i := 0; i < 100; i++ {
		state, err = env.Step(core.NewContinuousAction(0, 0, 0), nil)
		require.NoError(t, err)
		if state.Terminal() {
			break
		}
	}
	require.True(t, state.Terminal())
	assert.Equal(t, OutcomeAgentFell, state.(*State).Outcome)
	assert.Zero(t, state.Reward())
}

func TestEnvConstructorSeeds(t *testing.T) {
	c, err := NewEnvConstructor(DefaultSceneConfig(), 10)
	require.NoError(t, err)

	reset := func(env core.Environment) []float64 {
		s, err := env.Reset(nil)
		require.NoError(t, err)
		return s.Observation()
	}
	a := reset(c.NewEnvironment(0))
	b := reset(c.NewEnvironment(0))
	other := reset(c.NewEnvironment(1))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)

	bad := DefaultSceneConfig()
	bad.DeltaTime = 0
	_, err = NewEnvConstructor(bad, 0)
	assert.Error(t, err)
	_, err = NewEnv(bad, 0)
	assert.Error(t, err)
}

func TestStateHash(t *testing.T) {
	base := &State{
		Agent:      mgl64.Vec3{8, SpawnHeight, 0},
		Ball:       BallOrigin,
		Target:     mgl64.Vec3{-8, SpawnHeight, 0},
		AgentYaw:   -90,
		hashCell:   2,
		yawBuckets: 8,
	}
	shifted := *base
	shifted.Agent = base.Agent.Add(mgl64.Vec3{0, 0, 0.5})
	shifted.Ball = base.Ball.Add(mgl64.Vec3{0, 0, 0.5})
	shifted.Target = base.Target.Add(mgl64.Vec3{0, 0, 0.5})
	assert.Equal(t, base.Hash(), shifted.Hash())

	turned := *base
	turned.AgentYaw = 90
	assert.NotEqual(t, base.Hash(), turned.Hash())

	done := *base
	done.Done = true
	assert.NotEqual(t, base.Hash(), done.Hash())
}

func TestYawBucket(t *testing.T) {
	assert.Equal(t, 0, YawBucket(-180, 4))
	assert.Equal(t, 2, YawBucket(0, 4))
	assert.Equal(t, 3, YawBucket(179, 4))
	assert.Equal(t, 0, YawBucket(180, 4))
	assert.Equal(t, 0, YawBucket(45, 0))
}

func TestStateFrame(t *testing.T) {
	s := &State{
		Episode: 2, Step: 5,
		Agent:   mgl64.Vec3{1, 2, 3},
		Outcome: OutcomeBallFell,
		Done:    true,
	}
	f := s.Frame()
	assert.Equal(t, [3]float64{1, 2, 3}, f.Agent)
	assert.Equal(t, "ball_fell", f.Outcome)
	assert.True(t, f.Done)
	assert.Contains(t, s.String(), "outcome ball_fell")
}

func TestLoadSceneConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speed_multiplier: 4\nworld:\n  friction: 0.5\n"), 0644))

	cfg, err := LoadSceneConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 4.0, cfg.SpeedMultiplier)
	assert.Equal(t, 0.5, cfg.World.Friction)
	assert.Equal(t, DefaultDeltaTime, cfg.DeltaTime)
	assert.Equal(t, 15.0, cfg.World.HalfWidth)

	require.NoError(t, os.WriteFile(path, []byte("world:\n  half_width: 5\n"), 0644))
	_, err = LoadSceneConfig(path)
	assert.ErrorContains(t, err, "spawn regions")

	require.NoError(t, os.WriteFile(path, []byte("speed_multiplier: [1"), 0644))
	_, err = LoadSceneConfig(path)
	assert.ErrorContains(t, err, "parsing scene config")

	_, err = LoadSceneConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	s := NewScene()
	s.Agent.LookAt(BallOrigin)
	out := Render(s, DefaultWorldConfig(), false)
	lines := strings.Split(out, "\n")

	assert.Len(t, lines[0], 31)
	center := lines[10]
	assert.Equal(t, byte('X'), center[7])
	assert.Equal(t, byte('o'), center[15])
	assert.Equal(t, byte('<'), center[23])
	assert.Contains(t, out, "agent (8.00, 0.50, 0.00)")
}
