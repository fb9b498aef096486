package soccer

import (
	"fmt"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Actions holds the three continuous control signals of a decision
type Actions [3]float64

// Indices into Actions
const (
	ActionMoveX  = 0
	ActionMoveZ  = 1
	ActionRotate = 2
)

// Episode keeps the reward bookkeeping of the current episode.
// SetReward replaces the reward of the current step, AddReward adds to it;
// both keep the cumulative reward in sync.
type Episode struct {
	Number int
	Steps  int

	reward     float64
	cumulative float64
	done       bool
	outcome    Outcome
}

func (e *Episode) SetReward(r float64) {
	e.cumulative += r - e.reward
	e.reward = r
}

func (e *Episode) AddReward(r float64) {
	e.reward += r
	e.cumulative += r
}

func (e *Episode) EndEpisode(o Outcome) {
	e.done = true
	e.outcome = o
}

// Reward of the last step
func (e Episode) Reward() float64 { return e.reward }

func (e Episode) CumulativeReward() float64 { return e.cumulative }

func (e Episode) Done() bool { return e.done }

func (e Episode) Outcome() Outcome { return e.outcome }

func (e *Episode) begin() {
	*e = Episode{Number: e.Number + 1}
}

func (e *Episode) beginStep() {
	e.reward = 0
	e.Steps++
}

// PushAgent is the behaviour driving the agent body of a scene. The host
// loop calls OnEpisodeBegin, then alternates CollectObservations and
// OnActionReceived until the episode is done.
type PushAgent struct {
	SpeedMultiplier float64

	scene   *Scene
	episode Episode
}

type Option func(*PushAgent)

func WithSpeedMultiplier(m float64) Option {
	return func(a *PushAgent) {
		a.SpeedMultiplier = m
	}
}

func NewPushAgent(scene *Scene, opts ...Option) (*PushAgent, error) {
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	a := &PushAgent{
		SpeedMultiplier: DefaultSpeedMultiplier,
		scene:           scene,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.SpeedMultiplier <= 0 {
		return nil, fmt.Errorf("speed multiplier must be positive, got %f", a.SpeedMultiplier)
	}
	return a, nil
}

func (a *PushAgent) Scene() *Scene {
	return a.scene
}

// Episode returns a snapshot of the episode bookkeeping
func (a *PushAgent) Episode() Episode {
	return a.episode
}

// OnEpisodeBegin places the bodies for a new episode. When the agent or the
// ball fell, both are stopped and the agent is relocated first; the agent
// is then relocated again unconditionally, so only the second spawn point
// survives. The agent faces the ball before the ball is moved back to
// BallOrigin.
func (a *PushAgent) OnEpisodeBegin(rng *rand.Rand) {
	a.episode.begin()
	agent, ball, target := a.scene.Agent, a.scene.Ball, a.scene.Target

	if agent.Fallen() || ball.Fallen() {
		agent.Stop()
		agent.Position = SpawnAgent(rng)
		agent.LookAt(ball.Position)
		ball.Stop()
	}

	agent.Position = SpawnAgent(rng)
	agent.LookAt(ball.Position)
	target.Position = SpawnTarget(rng)
	ball.Position = BallOrigin
}

// CollectObservations appends target, ball and agent positions followed by
// the agent's x and z velocity.
func (a *PushAgent) CollectObservations(sensor *VectorSensor) {
	sensor.AddVec3(a.scene.Target.Position)
	sensor.AddVec3(a.scene.Ball.Position)
	sensor.AddVec3(a.scene.Agent.Position)

	sensor.AddObservation(a.scene.Agent.Velocity.X())
	sensor.AddObservation(a.scene.Agent.Velocity.Z())
}

// OnActionReceived moves and turns the agent, then applies the reward
// rules. dt is the simulated time since the previous decision.
func (a *PushAgent) OnActionReceived(actions Actions, dt float64) Evaluation {
	a.episode.beginStep()
	agent := a.scene.Agent

	move := mgl64.Vec3{actions[ActionMoveX], 0, actions[ActionMoveZ]}
	agent.Translate(move.Mul(dt * a.SpeedMultiplier))
	agent.Rotate(up, actions[ActionRotate]*dt*RotationSpeed)

	eval := Evaluate(agent.Position, a.scene.Ball.Position, a.scene.Target.Position)
	if eval.NearBall {
		a.episode.SetReward(ProximityReward)
	}
	if eval.Outcome == OutcomeGoal {
		a.episode.SetReward(GoalReward)
	}
	if eval.Outcome.Terminal() {
		a.episode.EndEpisode(eval.Outcome)
	}
	return eval
}

// Heuristic fills out from the pressed keys, for manual control
func (a *PushAgent) Heuristic(keys KeySource, out *Actions) {
	Heuristic(keys, out)
}

// SpawnAgent draws an agent spawn point
func SpawnAgent(rng *rand.Rand) mgl64.Vec3 {
	return mgl64.Vec3{sample(rng, AgentSpawnX), SpawnHeight, sample(rng, AgentSpawnZ)}
}

// SpawnTarget draws a target spawn point
func SpawnTarget(rng *rand.Rand) mgl64.Vec3 {
	return mgl64.Vec3{sample(rng, TargetSpawnX), SpawnHeight, sample(rng, TargetSpawnZ)}
}

// unitSteps splits [0, 1] into equally spaced points, both ends included
const unitSteps = 1 << 53

func sample(rng *rand.Rand, r Range) float64 {
	u := float64(rng.Int63n(unitSteps+1)) / unitSteps
	return r.Min + u*(r.Max-r.Min)
}
