package soccer

import "github.com/go-gl/mathgl/mgl64"

// Outcome describes why an episode ended, if it did
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeGoal
	OutcomeAgentFell
	OutcomeBallFell
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGoal:
		return "goal"
	case OutcomeAgentFell:
		return "agent_fell"
	case OutcomeBallFell:
		return "ball_fell"
	default:
		return "none"
	}
}

// Terminal is true for every outcome that ends the episode
func (o Outcome) Terminal() bool {
	return o != OutcomeNone
}

// Evaluation is the result of the reward rules for one decision step
type Evaluation struct {
	DistanceToBall   float64
	DistanceToTarget float64
	// NearBall is set when the agent is within ProximityRadius of the ball
	NearBall bool
	Outcome  Outcome
}

// Reward is the step reward the evaluation sets. The goal reward replaces
// the proximity reward when both apply.
func (e Evaluation) Reward() float64 {
	switch {
	case e.Outcome == OutcomeGoal:
		return GoalReward
	case e.NearBall:
		return ProximityReward
	default:
		return 0
	}
}

// Evaluate applies the reward rules to the given positions without
// touching the scene. A goal takes precedence over an agent fall, which
// takes precedence over a ball fall.
func Evaluate(agent, ball, target mgl64.Vec3) Evaluation {
	e := Evaluation{
		DistanceToBall:   Distance(ball, agent),
		DistanceToTarget: Distance(ball, target),
	}
	e.NearBall = e.DistanceToBall < ProximityRadius

	switch {
	case e.DistanceToTarget < ProximityRadius:
		e.Outcome = OutcomeGoal
	case agent.Y() < FallHeight:
		e.Outcome = OutcomeAgentFell
	case ball.Y() < FallHeight:
		e.Outcome = OutcomeBallFell
	}
	return e
}
