package soccer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// A body resting on the floor may sink this much before it counts as falling
const floorTolerance = 0.05

// Physics advances the scene between two decisions
type Physics interface {
	// Reset is called after the bodies were placed for a new episode
	Reset(*Scene)
	Integrate(*Scene, float64)
}

// World is a kinematic stand-in for a physics engine: a rectangular floor,
// gravity for bodies that leave it, and an agent that shoves the ball.
type World struct {
	config WorldConfig

	lastAgent mgl64.Vec3
	tracking  bool
}

var _ Physics = &World{}

func NewWorld(config WorldConfig) *World {
	return &World{config: config}
}

// OnFloor reports whether p lies above the arena floor
func (w *World) OnFloor(p mgl64.Vec3) bool {
	return math.Abs(p.X()) <= w.config.HalfWidth && math.Abs(p.Z()) <= w.config.HalfDepth
}

func (w *World) Reset(s *Scene) {
	w.lastAgent = s.Agent.Position
	w.tracking = true
}

func (w *World) Integrate(s *Scene, dt float64) {
	if dt <= 0 {
		return
	}
	agent, ball := s.Agent, s.Ball

	// the agent is moved kinematically, its velocity follows its displacement
	if w.tracking {
		d := agent.Position.Sub(w.lastAgent)
		agent.Velocity = mgl64.Vec3{d.X() / dt, agent.Velocity.Y(), d.Z() / dt}
	}

	w.push(agent, ball)

	ball.Position = ball.Position.Add(mgl64.Vec3{ball.Velocity.X() * dt, 0, ball.Velocity.Z() * dt})
	decay := math.Max(0, 1-w.config.Friction*dt)
	ball.Velocity = mgl64.Vec3{ball.Velocity.X() * decay, ball.Velocity.Y(), ball.Velocity.Z() * decay}
	// rolling without slipping
	ball.AngularVelocity = mgl64.Vec3{ball.Velocity.Z(), 0, -ball.Velocity.X()}.Mul(1 / SpawnHeight)

	w.fall(agent, dt)
	w.fall(ball, dt)

	w.lastAgent = agent.Position
	w.tracking = true
}

// push separates the ball from the agent and hands it the agent's speed
// along the contact normal
func (w *World) push(agent, ball *Body) {
	d := ball.Position.Sub(agent.Position)
	d[1] = 0
	dist := d.Len()
	if dist >= w.config.ContactRadius {
		return
	}

	var dir mgl64.Vec3
	if dist < 1e-9 {
		dir = agent.Forward()
		dir[1] = 0
		if dir.Len() < 1e-9 {
			dir = forward
		}
		dir = dir.Normalize()
	} else {
		dir = d.Mul(1 / dist)
	}

	ball.Position = ball.Position.Add(dir.Mul(w.config.ContactRadius - dist))

	along := agent.Velocity.Dot(dir)
	ballAlong := ball.Velocity.Dot(dir)
	if target := along * w.config.PushFactor; target > ballAlong {
		ball.Velocity = ball.Velocity.Add(dir.Mul(target - ballAlong))
	}
}

func (w *World) fall(b *Body, dt float64) {
	vy := b.Velocity.Y() - w.config.Gravity*dt
	y := b.Position.Y() + vy*dt
	if w.OnFloor(b.Position) && b.Position.Y() >= SpawnHeight-floorTolerance && y <= SpawnHeight {
		y, vy = SpawnHeight, 0
	}
	b.Position[1] = y
	b.Velocity[1] = vy
}
