package policies

import (
	"math"
	"math/rand"

	"github.com/zeu5/soccer-push/core"
)

type QLearningParams struct {
	Alpha    float64
	Discount float64
	Epsilon  float64
	// Bonus adds Bonus/sqrt(visits) to the reward of a state action pair,
	// zero disables it
	Bonus float64
	// Values per action dimension, see core.ActionSpace.Grid
	Resolution int
	Seed       int64
}

// QLearningPolicy is epsilon-greedy tabular Q-learning over the hashed
// state and a grid of the action box
type QLearningPolicy struct {
	params QLearningParams
	qTable *QTable
	visits *QTable
	grid   *actionGrid
	rand   *rand.Rand
}

var _ core.Policy = &QLearningPolicy{}

func NewQLearningPolicy(params QLearningParams) *QLearningPolicy {
	return &QLearningPolicy{
		params: params,
		qTable: NewQTable(params.Seed),
		visits: NewQTable(params.Seed),
		grid:   newActionGrid(params.Resolution),
		rand:   rand.New(rand.NewSource(params.Seed)),
	}
}

// Record writes the Q table as JSON lines
func (b *QLearningPolicy) Record(path string) error {
	return b.qTable.Record(path)
}

func (b *QLearningPolicy) Table() *QTable {
	return b.qTable
}

func (b *QLearningPolicy) Reset() {
	b.qTable = NewQTable(b.params.Seed)
	b.visits = NewQTable(b.params.Seed)
}

func (b *QLearningPolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (b *QLearningPolicy) PickAction(_ *core.StepContext, state core.State, space *core.ActionSpace) core.Action {
	actions, hashes := b.grid.get(space)
	if len(actions) == 0 {
		return nil
	}
	if b.rand.Float64() < b.params.Epsilon {
		return actions[b.rand.Intn(len(actions))]
	}

	maxAction, _ := b.qTable.MaxAmong(state.Hash(), hashes, 0)
	if maxAction == "" {
		return nil
	}
	return b.grid.lookup(maxAction)
}

func (b *QLearningPolicy) UpdateStep(_ *core.StepContext, state core.State, action core.Action, nextState core.State) {
	stateHash := state.Hash()
	actionHash := action.Hash()
	t := b.visits.Get(stateHash, actionHash, 0) + 1
	b.visits.Set(stateHash, actionHash, t)

	reward := nextState.Reward()
	if b.params.Bonus > 0 {
		reward += b.params.Bonus / math.Sqrt(t)
	}
	nextStateVal := 0.0
	if !nextState.Terminal() {
		_, nextStateVal = b.qTable.Max(nextState.Hash(), 0)
	}
	curVal := b.qTable.Get(stateHash, actionHash, 0)

	newVal := (1-b.params.Alpha)*curVal + b.params.Alpha*(reward+b.params.Discount*nextStateVal)
	b.qTable.Set(stateHash, actionHash, newVal)
}

func (b *QLearningPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

type QLearningPolicyConstructor struct {
	params QLearningParams
	seeds  *seedSequence
}

var _ core.PolicyConstructor = &QLearningPolicyConstructor{}

func NewQLearningPolicyConstructor(params QLearningParams) *QLearningPolicyConstructor {
	return &QLearningPolicyConstructor{
		params: params,
		seeds:  newSeedSequence(params.Seed),
	}
}

func (b *QLearningPolicyConstructor) NewPolicy() core.Policy {
	params := b.params
	params.Seed = b.seeds.next()
	return NewQLearningPolicy(params)
}
