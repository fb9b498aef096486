package soccer

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/zeu5/soccer-push/core"
)

// ErrInvalidAction is returned for actions of the wrong dimension
var ErrInvalidAction = errors.New("invalid action")

// ActionSize is the number of continuous action values
const ActionSize = 3

// Env runs the push agent in a World and exposes it as a core.Environment.
// Each Step is one decision: the agent acts and is rewarded, then the
// world advances by DeltaTime.
type Env struct {
	config  SceneConfig
	rng     *rand.Rand
	scene   *Scene
	agent   *PushAgent
	physics Physics
	sensor  *VectorSensor
	space   *core.ActionSpace

	over bool
}

var _ core.Environment = &Env{}

func NewEnv(config SceneConfig, seed int64) (*Env, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newEnv(config, seed), nil
}

func newEnv(config SceneConfig, seed int64) *Env {
	scene := NewScene()
	// the scene is always complete and the speed was validated with the config
	agent, _ := NewPushAgent(scene, WithSpeedMultiplier(config.SpeedMultiplier))
	return &Env{
		config:  config,
		rng:     rand.New(rand.NewSource(seed)),
		scene:   scene,
		agent:   agent,
		physics: NewWorld(config.World),
		sensor:  NewVectorSensor(),
		space:   core.UnitBox(ActionSize),
	}
}

func (e *Env) Reset(_ *core.EpisodeContext) (core.State, error) {
	e.agent.OnEpisodeBegin(e.rng)
	e.physics.Reset(e.scene)
	e.over = false
	return e.state(), nil
}

func (e *Env) Step(a core.Action, _ *core.StepContext) (core.State, error) {
	if e.over {
		return nil, core.ErrEpisodeOver
	}
	values := a.Values()
	if len(values) != ActionSize {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrInvalidAction, ActionSize, len(values))
	}
	values = e.space.Clip(values)

	e.agent.OnActionReceived(Actions{values[0], values[1], values[2]}, e.config.DeltaTime)
	if e.agent.episode.Done() {
		e.over = true
	} else {
		e.physics.Integrate(e.scene, e.config.DeltaTime)
	}
	return e.state(), nil
}

func (e *Env) ActionSpace() *core.ActionSpace {
	return e.space
}

// Scene exposes the live scene, for rendering
func (e *Env) Scene() *Scene {
	return e.scene
}

func (e *Env) Agent() *PushAgent {
	return e.agent
}

func (e *Env) state() *State {
	e.sensor.Reset()
	e.agent.CollectObservations(e.sensor)
	ep := e.agent.Episode()
	return &State{
		Obs:        e.sensor.Values(),
		StepReward: ep.Reward(),
		Cumulative: ep.CumulativeReward(),
		Done:       ep.Done(),
		Outcome:    ep.Outcome(),
		Episode:    ep.Number,
		Step:       ep.Steps,
		Agent:      e.scene.Agent.Position,
		Ball:       e.scene.Ball.Position,
		Target:     e.scene.Target.Position,
		AgentYaw:   e.scene.Agent.Yaw(),
		hashCell:   e.config.HashCell,
		yawBuckets: e.config.HashYawBuckets,
	}
}

// EnvConstructor builds one Env per worker, seeded with Seed plus the
// worker number.
type EnvConstructor struct {
	config SceneConfig
	seed   int64
}

var _ core.EnvironmentConstructor = &EnvConstructor{}

func NewEnvConstructor(config SceneConfig, seed int64) (*EnvConstructor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EnvConstructor{config: config, seed: seed}, nil
}

func (c *EnvConstructor) NewEnvironment(instance int) core.Environment {
	return newEnv(c.config, c.seed+int64(instance))
}
