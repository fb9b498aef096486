package core

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
)

// ActionSpace is a continuous box: every action has one value per
// dimension bounded by Low[i] and High[i].
type ActionSpace struct {
	Low  []float64
	High []float64
}

func NewBoxSpace(low, high []float64) (*ActionSpace, error) {
	if len(low) != len(high) {
		return nil, fmt.Errorf("box bounds mismatch: %d low values, %d high values", len(low), len(high))
	}
	for i := range low {
		if low[i] > high[i] {
			return nil, fmt.Errorf("box dimension %d: low %f greater than high %f", i, low[i], high[i])
		}
	}
	return &ActionSpace{
		Low:  append([]float64{}, low...),
		High: append([]float64{}, high...),
	}, nil
}

// UnitBox returns the [-1, 1]^dim space
func UnitBox(dim int) *ActionSpace {
	low := make([]float64, dim)
	high := make([]float64, dim)
	for i := range low {
		low[i] = -1
		high[i] = 1
	}
	return &ActionSpace{Low: low, High: high}
}

func (s *ActionSpace) Dim() int {
	return len(s.Low)
}

// Contains checks the dimension and bounds of values
func (s *ActionSpace) Contains(values []float64) bool {
	if len(values) != s.Dim() {
		return false
	}
	for i, v := range values {
		if math.IsNaN(v) || v < s.Low[i] || v > s.High[i] {
			return false
		}
	}
	return true
}

// Clip returns a copy of values bounded to the box. NaN maps to zero.
func (s *ActionSpace) Clip(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if i >= s.Dim() {
			break
		}
		if math.IsNaN(v) {
			v = 0
		}
		out[i] = math.Max(s.Low[i], math.Min(s.High[i], v))
	}
	return out
}

// Sample draws a uniform point from the box
func (s *ActionSpace) Sample(r *rand.Rand) []float64 {
	out := make([]float64, s.Dim())
	for i := range out {
		out[i] = s.Low[i] + r.Float64()*(s.High[i]-s.Low[i])
	}
	return out
}

// Grid discretizes the box into n evenly spaced values per dimension
// (bounds included) and returns every combination.
func (s *ActionSpace) Grid(n int) []Action {
	if n < 2 {
		n = 2
	}
	axes := make([][]float64, s.Dim())
	for i := range axes {
		axes[i] = make([]float64, n)
		step := (s.High[i] - s.Low[i]) / float64(n-1)
		for j := 0; j < n; j++ {
			axes[i][j] = s.Low[i] + float64(j)*step
		}
	}

	out := make([]Action, 0)
	cur := make([]float64, s.Dim())
	var enumerate func(int)
	enumerate = func(dim int) {
		if dim == len(axes) {
			out = append(out, NewContinuousAction(cur...))
			return
		}
		for _, v := range axes[dim] {
			cur[dim] = v
			enumerate(dim + 1)
		}
	}
	enumerate(0)
	return out
}

// ContinuousAction is a real valued action vector
type ContinuousAction []float64

var _ Action = ContinuousAction{}

func NewContinuousAction(values ...float64) ContinuousAction {
	return ContinuousAction(append([]float64{}, values...))
}

func (c ContinuousAction) Hash() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = strconv.FormatFloat(v, 'f', 3, 64)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (c ContinuousAction) Values() []float64 {
	return append([]float64{}, c...)
}
