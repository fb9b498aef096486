package policies

import (
	"math"

	erand "golang.org/x/exp/rand"

	"github.com/zeu5/soccer-push/core"
)

type UCBParams struct {
	StateSize int
	Horizon   int
	Episodes  int
	Constant  float64
	Epsilon   float64
	// MaxReturn bounds the value of any state and seeds unseen entries
	MaxReturn  float64
	Resolution int
	Seed       int64
}

// UCBPolicy is optimistic Q-learning with an upper confidence bonus that
// shrinks with the number of visits of each state action pair
type UCBPolicy struct {
	qTable *QTable
	visits *QTable
	grid   *actionGrid
	rand   *erand.Rand
	params UCBParams

	eta float64
}

var _ core.Policy = &UCBPolicy{}

func NewUCBPolicy(params UCBParams) *UCBPolicy {
	if params.Horizon < 1 {
		params.Horizon = 1
	}
	return &UCBPolicy{
		qTable: NewQTable(params.Seed),
		visits: NewQTable(params.Seed),
		grid:   newActionGrid(params.Resolution),
		rand:   erand.New(erand.NewSource(uint64(params.Seed))),
		params: params,
	}
}

func (b *UCBPolicy) ResetEpisode(_ *core.EpisodeContext) {}

func (b *UCBPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (b *UCBPolicy) PickAction(_ *core.StepContext, state core.State, space *core.ActionSpace) core.Action {
	actions, hashes := b.grid.get(space)
	if len(actions) == 0 {
		return nil
	}
	if b.eta == 0 {
		b.eta = math.Log(math.Max(2,
			float64(b.params.Horizon)*float64(len(actions))*float64(b.params.Episodes)*float64(b.params.StateSize),
		))
	}
	if b.rand.Float64() < b.params.Epsilon {
		return actions[b.rand.Intn(len(actions))]
	}

	maxAction, _ := b.qTable.MaxAmong(state.Hash(), hashes, b.params.MaxReturn)
	if maxAction == "" {
		return nil
	}
	return b.grid.lookup(maxAction)
}

func (b *UCBPolicy) UpdateStep(_ *core.StepContext, state core.State, action core.Action, nextState core.State) {
	stateHash := state.Hash()
	actionHash := action.Hash()
	t := b.visits.Get(stateHash, actionHash, 0) + 1
	b.visits.Set(stateHash, actionHash, t)

	nextStateVal := 0.0
	if !nextState.Terminal() {
		_, nextStateVal = b.qTable.Max(nextState.Hash(), b.params.MaxReturn)
		nextStateVal = math.Min(nextStateVal, b.params.MaxReturn)
	}

	h := float64(b.params.Horizon)
	bonus := b.params.Constant * math.Sqrt((math.Pow(h, 3)+b.eta)/t)
	alphaT := (h + 1) / (h + t)
	curVal := b.qTable.Get(stateHash, actionHash, b.params.MaxReturn)

	newVal := (1-alphaT)*curVal + alphaT*(nextState.Reward()+nextStateVal+2*bonus)
	b.qTable.Set(stateHash, actionHash, newVal)
}

func (b *UCBPolicy) Reset() {
	b.qTable = NewQTable(b.params.Seed)
	b.visits = NewQTable(b.params.Seed)
	b.rand = erand.New(erand.NewSource(uint64(b.params.Seed)))
}

type UCBPolicyConstructor struct {
	params UCBParams
	seeds  *seedSequence
}

var _ core.PolicyConstructor = &UCBPolicyConstructor{}

func NewUCBPolicyConstructor(params UCBParams) *UCBPolicyConstructor {
	return &UCBPolicyConstructor{
		params: params,
		seeds:  newSeedSequence(params.Seed),
	}
}

func (b *UCBPolicyConstructor) NewPolicy() core.Policy {
	params := b.params
	params.Seed = b.seeds.next()
	return NewUCBPolicy(params)
}
