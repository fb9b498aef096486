package policies

import (
	"bufio"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/soccer"
)

// HeuristicPolicy turns the keys held on a KeySource into actions, for
// manual control. Action slots start at zero every step.
type HeuristicPolicy struct {
	keys soccer.KeySource
}

var _ core.Policy = &HeuristicPolicy{}

func NewHeuristicPolicy(keys soccer.KeySource) *HeuristicPolicy {
	return &HeuristicPolicy{keys: keys}
}

func (p *HeuristicPolicy) Reset() {}

func (p *HeuristicPolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (p *HeuristicPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (p *HeuristicPolicy) PickAction(_ *core.StepContext, _ core.State, _ *core.ActionSpace) core.Action {
	var out soccer.Actions
	soccer.Heuristic(p.keys, &out)
	return core.NewContinuousAction(out[:]...)
}

func (p *HeuristicPolicy) UpdateStep(_ *core.StepContext, _ core.State, _ core.Action, _ core.State) {}

// LineKeys is a KeySource fed one line of text at a time, every letter of
// the line counting as a held key
type LineKeys struct {
	mtx     sync.Mutex
	scanner *bufio.Scanner
	keys    soccer.KeySet
}

var _ soccer.KeySource = &LineKeys{}

func NewLineKeys(r io.Reader) *LineKeys {
	return &LineKeys{
		scanner: bufio.NewScanner(r),
		keys:    soccer.KeySet{},
	}
}

// Next reads the next line and returns it trimmed. It returns io.EOF when
// the input is exhausted.
func (l *LineKeys) Next() (string, error) {
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.TrimSpace(l.scanner.Text())
	l.mtx.Lock()
	l.keys = soccer.ParseKeys(line)
	l.mtx.Unlock()
	return line, nil
}

func (l *LineKeys) Pressed(k soccer.Key) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.keys.Pressed(k)
}

// ChasePolicy is a scripted baseline: walk to a point behind the ball on
// the line from the target through the ball, then push along that line.
type ChasePolicy struct {
	// Offset is how far behind the ball the agent lines up
	Offset float64
	// Tolerance is how close to the line up point counts as lined up
	Tolerance float64
}

var _ core.Policy = &ChasePolicy{}

func NewChasePolicy() *ChasePolicy {
	return &ChasePolicy{Offset: 1.5, Tolerance: 0.5}
}

func (p *ChasePolicy) Reset() {}

func (p *ChasePolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (p *ChasePolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (p *ChasePolicy) UpdateStep(_ *core.StepContext, _ core.State, _ core.Action, _ core.State) {}

func (p *ChasePolicy) PickAction(_ *core.StepContext, state core.State, _ *core.ActionSpace) core.Action {
	obs := state.Observation()
	if len(obs) < soccer.ObservationSize {
		return nil
	}
	target := flat(obs[soccer.ObsTarget:])
	ball := flat(obs[soccer.ObsBall:])
	agent := flat(obs[soccer.ObsAgent:])
	// heading is not part of the observation
	yaw := 0.0
	if s, ok := state.(*soccer.State); ok {
		yaw = s.AgentYaw
	}

	push := target.Sub(ball)
	if push.Len() < 1e-9 {
		return core.NewContinuousAction(0, 0, 0)
	}
	push = push.Normalize()
	lineUp := ball.Sub(push.Mul(p.Offset))

	var move mgl64.Vec2
	toLineUp := lineUp.Sub(agent)
	toBall := ball.Sub(agent)
	switch {
	case toLineUp.Len() > p.Tolerance && toBall.Dot(push) < 0:
		// agent is on the target side of the ball: go around it
		side := mgl64.Vec2{-push.Y(), push.X()}
		if side.Dot(toBall) > 0 {
			side = side.Mul(-1)
		}
		move = toLineUp.Normalize().Add(side)
	case toLineUp.Len() > p.Tolerance && toBall.Len() > p.Offset+p.Tolerance:
		move = toLineUp
	default:
		move = push
	}
	return core.NewContinuousAction(localMove(move, yaw)...)
}

func flat(v []float64) mgl64.Vec2 {
	return mgl64.Vec2{v[0], v[2]}
}

// localMove expresses a desired arena xz direction in the agent frame and
// scales it so the larger component is one
func localMove(world mgl64.Vec2, yawDegrees float64) []float64 {
	theta := mgl64.DegToRad(yawDegrees)
	sin, cos := math.Sin(theta), math.Cos(theta)
	x := world.X()*cos - world.Y()*sin
	z := world.X()*sin + world.Y()*cos
	scale := math.Max(math.Abs(x), math.Abs(z))
	if scale < 1e-9 {
		return []float64{0, 0, 0}
	}
	return []float64{x / scale, z / scale, 0}
}

type HeuristicPolicyConstructor struct {
	keys soccer.KeySource
}

var _ core.PolicyConstructor = &HeuristicPolicyConstructor{}

func NewHeuristicPolicyConstructor(keys soccer.KeySource) *HeuristicPolicyConstructor {
	return &HeuristicPolicyConstructor{keys: keys}
}

func (h *HeuristicPolicyConstructor) NewPolicy() core.Policy {
	return NewHeuristicPolicy(h.keys)
}

type ChasePolicyConstructor struct{}

var _ core.PolicyConstructor = &ChasePolicyConstructor{}

func (c *ChasePolicyConstructor) NewPolicy() core.Policy {
	return NewChasePolicy()
}
