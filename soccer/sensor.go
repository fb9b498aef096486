package soccer

import (
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// ObservationSize is the length of the vector CollectObservations fills
const ObservationSize = 11

// Offsets into the observation vector
const (
	ObsTarget        = 0
	ObsBall          = 3
	ObsAgent         = 6
	ObsAgentVelocity = 9
)

// VectorSensor accumulates observations in the order they are added
type VectorSensor struct {
	obs []float64
}

func NewVectorSensor() *VectorSensor {
	return &VectorSensor{obs: make([]float64, 0, ObservationSize)}
}

func (s *VectorSensor) AddObservation(v float64) {
	s.obs = append(s.obs, v)
}

func (s *VectorSensor) AddVec3(v mgl64.Vec3) {
	s.obs = append(s.obs, v.X(), v.Y(), v.Z())
}

func (s *VectorSensor) Reset() {
	s.obs = s.obs[:0]
}

func (s *VectorSensor) Len() int {
	return len(s.obs)
}

// Values returns a copy of the collected observations
func (s *VectorSensor) Values() []float64 {
	return append([]float64{}, s.obs...)
}

// Vector returns the observations as a gonum vector, nil when empty
func (s *VectorSensor) Vector() *mat.VecDense {
	if len(s.obs) == 0 {
		return nil
	}
	return mat.NewVecDense(len(s.obs), s.Values())
}
