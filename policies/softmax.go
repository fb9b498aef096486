package policies

import (
	"math"

	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/zeu5/soccer-push/core"
)

type SoftMaxParams struct {
	Alpha       float64
	Gamma       float64
	Temperature float64
	// CountPenalty is subtracted from the reward once per earlier visit of
	// the next state, pushing the policy toward unseen states
	CountPenalty float64
	Resolution   int
	Seed         int64
}

// SoftMaxPolicy learns Q values like QLearningPolicy and samples the next
// action from the softmax of the values of the current state
type SoftMaxPolicy struct {
	QTable map[string]map[string]float64
	Freq   map[string]int

	params SoftMaxParams
	grid   *actionGrid
	rand   erand.Source
}

func NewSoftMaxPolicy(params SoftMaxParams) *SoftMaxPolicy {
	if params.Temperature <= 0 {
		params.Temperature = 1
	}
	return &SoftMaxPolicy{
		QTable: make(map[string]map[string]float64),
		Freq:   make(map[string]int),
		params: params,
		grid:   newActionGrid(params.Resolution),
		rand:   erand.NewSource(uint64(params.Seed)),
	}
}

var _ core.Policy = &SoftMaxPolicy{}

func (s *SoftMaxPolicy) Reset() {
	s.QTable = make(map[string]map[string]float64)
	s.Freq = make(map[string]int)
	s.rand = erand.NewSource(uint64(s.params.Seed))
}

func (s *SoftMaxPolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (s *SoftMaxPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (s *SoftMaxPolicy) PickAction(_ *core.StepContext, state core.State, space *core.ActionSpace) core.Action {
	actions, hashes := s.grid.get(space)
	if len(actions) == 0 {
		return nil
	}
	stateHash := state.Hash()
	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[string]float64)
	}

	vals := make([]float64, len(actions))
	largestValue := math.Inf(-1)
	for i, aName := range hashes {
		if _, ok := s.QTable[stateHash][aName]; !ok {
			s.QTable[stateHash][aName] = 0
		}
		vals[i] = s.QTable[stateHash][aName]
		if vals[i] > largestValue {
			largestValue = vals[i]
		}
	}

	weights := Softmax(vals, largestValue, s.params.Temperature)
	i, ok := sampleuv.NewWeighted(weights, s.rand).Take()
	if !ok {
		return nil
	}
	return actions[i]
}

// Softmax turns values into probabilities. Subtracting the largest value
// keeps the exponentials bounded.
func Softmax(vals []float64, largest, temperature float64) []float64 {
	weights := make([]float64, len(vals))
	sum := 0.0
	for i, v := range vals {
		weights[i] = math.Exp((v - largest) / temperature)
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights
}

func (s *SoftMaxPolicy) UpdateStep(_ *core.StepContext, state core.State, action core.Action, nextState core.State) {
	stateHash := state.Hash()
	nextStateHash := nextState.Hash()
	actionKey := action.Hash()
	if _, ok := s.QTable[stateHash]; !ok {
		s.QTable[stateHash] = make(map[string]float64)
	}
	curVal := s.QTable[stateHash][actionKey]

	max := 0.0
	if values, ok := s.QTable[nextStateHash]; ok && !nextState.Terminal() {
		max = math.Inf(-1)
		for _, val := range values {
			if val > max {
				max = val
			}
		}
		if math.IsInf(max, -1) {
			max = 0
		}
	}

	reward := nextState.Reward()
	if s.params.CountPenalty > 0 {
		reward -= s.params.CountPenalty * float64(s.Freq[nextStateHash])
	}
	s.Freq[nextStateHash]++

	s.QTable[stateHash][actionKey] = (1-s.params.Alpha)*curVal + s.params.Alpha*(reward+s.params.Gamma*max)
}

type SoftMaxPolicyConstructor struct {
	params SoftMaxParams
	seeds  *seedSequence
}

var _ core.PolicyConstructor = &SoftMaxPolicyConstructor{}

func NewSoftMaxPolicyConstructor(params SoftMaxParams) *SoftMaxPolicyConstructor {
	return &SoftMaxPolicyConstructor{
		params: params,
		seeds:  newSeedSequence(params.Seed),
	}
}

func (s *SoftMaxPolicyConstructor) NewPolicy() core.Policy {
	params := s.params
	params.Seed = s.seeds.next()
	return NewSoftMaxPolicy(params)
}
