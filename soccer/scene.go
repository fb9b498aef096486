package soccer

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrMissingBody is returned when a scene lacks the agent, ball or target
var ErrMissingBody = errors.New("scene is missing a body")

// BallOrigin is where the ball is placed at the start of every episode
var BallOrigin = mgl64.Vec3{0, SpawnHeight, 0}

// Scene holds the three bodies the task acts on
type Scene struct {
	Agent  *Body
	Ball   *Body
	Target *Body
}

// NewScene places the agent, ball and target on the arena center line
func NewScene() *Scene {
	return &Scene{
		Agent:  NewBody(mgl64.Vec3{8, SpawnHeight, 0}),
		Ball:   NewBody(BallOrigin),
		Target: NewBody(mgl64.Vec3{-8, SpawnHeight, 0}),
	}
}

func (s *Scene) Validate() error {
	if s == nil || s.Agent == nil || s.Ball == nil || s.Target == nil {
		return ErrMissingBody
	}
	return nil
}

func (s *Scene) Clone() *Scene {
	return &Scene{
		Agent:  s.Agent.Clone(),
		Ball:   s.Ball.Clone(),
		Target: s.Target.Clone(),
	}
}
