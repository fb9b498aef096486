package soccer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/util"
)

// State is what the environment reports after a reset or a step
type State struct {
	Obs        []float64
	StepReward float64
	Cumulative float64
	Done       bool
	Outcome    Outcome
	Episode    int
	Step       int

	Agent    mgl64.Vec3
	Ball     mgl64.Vec3
	Target   mgl64.Vec3
	AgentYaw float64

	hashCell   float64
	yawBuckets int
}

var _ core.State = &State{}

type stateKey struct {
	BallX   int  `json:"bx"`
	BallZ   int  `json:"bz"`
	TargetX int  `json:"tx"`
	TargetZ int  `json:"tz"`
	Yaw     int  `json:"yaw"`
	Done    bool `json:"done"`
}

// Hash discretizes the ball relative to the agent, the target relative to
// the ball and the agent heading. Absolute positions are left out so that
// tabular policies generalize over spawn points.
func (s *State) Hash() string {
	return util.JsonHash(s.key())
}

func (s *State) key() stateKey {
	cell := s.hashCell
	if cell <= 0 {
		cell = 1
	}
	return stateKey{
		BallX:   util.Bucket(s.Ball.X()-s.Agent.X(), cell),
		BallZ:   util.Bucket(s.Ball.Z()-s.Agent.Z(), cell),
		TargetX: util.Bucket(s.Target.X()-s.Ball.X(), cell),
		TargetZ: util.Bucket(s.Target.Z()-s.Ball.Z(), cell),
		Yaw:     YawBucket(s.AgentYaw, s.yawBuckets),
		Done:    s.Done,
	}
}

func (s *State) Observation() []float64 {
	return util.CopyFloatSlice(s.Obs)
}

func (s *State) Reward() float64 {
	return s.StepReward
}

func (s *State) Terminal() bool {
	return s.Done
}

// OutcomeName is used by analyzers that do not import this package
func (s *State) OutcomeName() string {
	return s.Outcome.String()
}

func (s *State) String() string {
	return fmt.Sprintf("episode %d step %d agent (%.2f, %.2f) ball (%.2f, %.2f) target (%.2f, %.2f) reward %.2f outcome %s",
		s.Episode, s.Step,
		s.Agent.X(), s.Agent.Z(), s.Ball.X(), s.Ball.Z(), s.Target.X(), s.Target.Z(),
		s.StepReward, s.Outcome,
	)
}

// Frame is the JSON view of a state streamed to viewers
type Frame struct {
	Episode    int        `json:"episode"`
	Step       int        `json:"step"`
	Agent      [3]float64 `json:"agent"`
	Ball       [3]float64 `json:"ball"`
	Target     [3]float64 `json:"target"`
	AgentYaw   float64    `json:"agent_yaw"`
	Reward     float64    `json:"reward"`
	Cumulative float64    `json:"cumulative"`
	Outcome    string     `json:"outcome"`
	Done       bool       `json:"done"`
}

func (s *State) Frame() Frame {
	return Frame{
		Episode:    s.Episode,
		Step:       s.Step,
		Agent:      s.Agent,
		Ball:       s.Ball,
		Target:     s.Target,
		AgentYaw:   s.AgentYaw,
		Reward:     s.StepReward,
		Cumulative: s.Cumulative,
		Outcome:    s.Outcome.String(),
		Done:       s.Done,
	}
}

// YawBucket maps a heading in degrees onto one of n equal sectors
func YawBucket(yaw float64, n int) int {
	if n <= 0 {
		return 0
	}
	yaw = math.Mod(yaw+180, 360)
	if yaw < 0 {
		yaw += 360
	}
	return int(yaw/360*float64(n)) % n
}
