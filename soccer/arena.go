// Package soccer implements the push-the-ball-to-the-target task: an agent
// translates and rotates on a rectangular arena floor and is rewarded for
// staying close to the ball and for bringing the ball onto the target.
//
// The package exposes the agent behaviour (reset, observe, act and reward,
// heuristic control) on a plain Scene, a minimal kinematic World that
// advances the scene between decisions, and Env, the core.Environment
// adapter that drives both.
package soccer

const (
	// ProximityRadius is the distance under which the ball counts as
	// touched by the agent, and as reaching the target.
	ProximityRadius = 1.42
	ProximityReward = 0.05
	GoalReward      = 1.0

	// Bodies are (re)spawned at this height
	SpawnHeight = 0.5
	// A body below this height has fallen off the arena
	FallHeight = 0.0

	// RotationSpeed is the yaw rate in degrees per second at full action
	RotationSpeed = 100.0

	DefaultSpeedMultiplier = 10.0
	// DefaultDeltaTime is the simulated time between two decisions
	DefaultDeltaTime = 0.02
)

// Range is a closed interval [Min, Max]
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Spawn regions
var (
	AgentSpawnX  = Range{Min: 3, Max: 13}
	AgentSpawnZ  = Range{Min: -8, Max: 8}
	TargetSpawnX = Range{Min: -13, Max: -3}
	TargetSpawnZ = Range{Min: -8, Max: 8}
)
