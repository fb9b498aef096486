package soccer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	up      = mgl64.Vec3{0, 1, 0}
	right   = mgl64.Vec3{1, 0, 0}
	forward = mgl64.Vec3{0, 0, 1}
)

// Body is a rigid object of the scene: pose plus velocities.
// Positions are local to the arena.
type Body struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

func NewBody(position mgl64.Vec3) *Body {
	return &Body{
		Position: position,
		Rotation: mgl64.QuatIdent(),
	}
}

func (b *Body) Clone() *Body {
	c := *b
	return &c
}

// Translate moves the body by delta expressed in its own frame
func (b *Body) Translate(delta mgl64.Vec3) {
	b.Position = b.Position.Add(b.Rotation.Rotate(delta))
}

// Rotate turns the body by degrees around axis expressed in its own frame
func (b *Body) Rotate(axis mgl64.Vec3, degrees float64) {
	if axis.Len() == 0 || degrees == 0 {
		return
	}
	turn := mgl64.QuatRotate(mgl64.DegToRad(degrees), axis.Normalize())
	b.Rotation = b.Rotation.Mul(turn).Normalize()
}

// LookAt orients the body so its forward axis points at target, keeping
// the world up axis. The pose is unchanged when target is the body position.
func (b *Body) LookAt(target mgl64.Vec3) {
	dir := target.Sub(b.Position)
	if dir.Len() < 1e-9 {
		return
	}
	yaw := math.Atan2(dir.X(), dir.Z())
	pitch := -math.Atan2(dir.Y(), math.Hypot(dir.X(), dir.Z()))
	b.Rotation = mgl64.QuatRotate(yaw, up).Mul(mgl64.QuatRotate(pitch, right)).Normalize()
}

// Forward is the body's forward axis in arena coordinates
func (b *Body) Forward() mgl64.Vec3 {
	return b.Rotation.Rotate(forward)
}

// Yaw is the heading in degrees, measured from +z toward +x
func (b *Body) Yaw() float64 {
	f := b.Forward()
	return mgl64.RadToDeg(math.Atan2(f.X(), f.Z()))
}

// Stop zeroes linear and angular velocity
func (b *Body) Stop() {
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
}

// Fallen reports whether the body dropped below the arena floor
func (b *Body) Fallen() bool {
	return b.Position.Y() < FallHeight
}

// Distance between two points
func Distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}
