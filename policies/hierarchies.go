package policies

import (
	"math/rand"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/util"
)

type PredicateFunc func(core.State) bool

type Predicate struct {
	Name  string
	Check PredicateFunc
}

// Init holds in every state
var Init = Predicate{
	Name:  "Init",
	Check: func(core.State) bool { return true },
}

type hierarchyStep struct {
	state      core.State
	action     core.Action
	envReward  float64
	progress   bool
	outOfSpace bool
	nextState  core.State
}

// HierarchyPolicy keeps one Q table per predicate of an ordered list of
// subgoals. The active table is the one of the last predicate the state
// satisfies; moving up the list is rewarded on top of the environment
// reward.
type HierarchyPolicy struct {
	predicates []Predicate

	qTables map[int]*QTable
	visits  map[int]*QTable

	alpha    float64
	discount float64
	epsilon  float64
	oneTime  bool
	seed     int64
	grid     *actionGrid
	rand     *rand.Rand

	curPredicate  int
	traceSegments map[int][]*hierarchyStep
	targetReached bool
}

var _ core.Policy = &HierarchyPolicy{}

// ProgressReward is added whenever a step reaches a later predicate
const ProgressReward = 2.0

type HierarchyParams struct {
	Alpha    float64
	Discount float64
	Epsilon  float64
	// OneTime stops tracking predicates once the last one was reached
	OneTime    bool
	Resolution int
	Seed       int64
}

func NewHierarchyPolicy(params HierarchyParams, predicates ...Predicate) *HierarchyPolicy {
	h := &HierarchyPolicy{
		predicates: predicates,

		alpha:    params.Alpha,
		discount: params.Discount,
		epsilon:  params.Epsilon,
		oneTime:  params.OneTime,
		seed:     params.Seed,
		grid:     newActionGrid(params.Resolution),
		rand:     rand.New(rand.NewSource(params.Seed)),
	}
	h.Reset()
	h.ResetEpisode(nil)
	return h
}

func (h *HierarchyPolicy) Reset() {
	h.qTables = make(map[int]*QTable)
	h.visits = make(map[int]*QTable)
	for i := range h.predicates {
		h.qTables[i] = NewQTable(h.seed + int64(i))
		h.visits[i] = NewQTable(h.seed + int64(i))
	}
}

func (h *HierarchyPolicy) ResetEpisode(_ *core.EpisodeContext) {
	h.traceSegments = make(map[int][]*hierarchyStep)
	h.curPredicate = 0
	h.targetReached = false
}

// Current is the index of the active predicate
func (h *HierarchyPolicy) Current() int {
	return h.curPredicate
}

func (h *HierarchyPolicy) UpdateStep(_ *core.StepContext, state core.State, action core.Action, nextState core.State) {
	progress := false
	outOfSpace := false
	curPredicate := h.curPredicate
	if !h.targetReached {
		nextPredicate := 0
		for i := len(h.predicates) - 1; i >= 0; i-- {
			if h.predicates[i].Check(nextState) {
				nextPredicate = i
				break
			}
		}
		if nextPredicate != h.curPredicate {
			outOfSpace = true
		}
		if nextPredicate > h.curPredicate {
			progress = true
		}

		if h.oneTime && nextPredicate == len(h.predicates)-1 {
			h.targetReached = true
		}
		h.curPredicate = nextPredicate
	}
	h.traceSegments[curPredicate] = append(h.traceSegments[curPredicate], &hierarchyStep{
		state:      state,
		action:     action,
		envReward:  nextState.Reward(),
		progress:   progress,
		outOfSpace: outOfSpace,
		nextState:  nextState,
	})
}

func (h *HierarchyPolicy) PickAction(_ *core.StepContext, state core.State, space *core.ActionSpace) core.Action {
	actions, hashes := h.grid.get(space)
	if len(actions) == 0 {
		return nil
	}
	if h.rand.Float64() < h.epsilon {
		return actions[h.rand.Intn(len(actions))]
	}
	qTable, ok := h.qTables[h.curPredicate]
	if !ok {
		return actions[h.rand.Intn(len(actions))]
	}

	maxAction, _ := qTable.MaxAmong(state.Hash(), hashes, 1)
	if maxAction == "" {
		return nil
	}
	return h.grid.lookup(maxAction)
}

// UpdateEpisode replays the segment of each predicate. A segment ends when
// the agent leaves the predicate, where the next value is not bootstrapped.
func (h *HierarchyPolicy) UpdateEpisode(_ *core.EpisodeContext) {
	for i := range h.predicates {
		segment, ok := h.traceSegments[i]
		if !ok {
			continue
		}
		for j, step := range segment {
			stateHash := step.state.Hash()
			actionHash := step.action.Hash()

			t := h.visits[i].Get(stateHash, actionHash, 0) + 1
			h.visits[i].Set(stateHash, actionHash, t)
			q := h.qTables[i].Get(stateHash, actionHash, 0)

			nextMaxVal := 0.0
			if !step.outOfSpace && j != len(segment)-1 && !step.nextState.Terminal() {
				_, nextMaxVal = h.qTables[i].Max(step.nextState.Hash(), 0)
			}

			reward := step.envReward + 1/t
			if step.progress {
				reward += ProgressReward
			}

			q = (1-h.alpha)*q + h.alpha*util.MaxFloat(reward, h.discount*nextMaxVal)
			h.qTables[i].Set(stateHash, actionHash, q)
		}
	}
}

type HierarchyPolicyConstructor struct {
	Params     HierarchyParams
	Predicates []Predicate

	seeds *seedSequence
}

var _ core.PolicyConstructor = &HierarchyPolicyConstructor{}

func NewHierarchyPolicyConstructor(params HierarchyParams, predicates ...Predicate) *HierarchyPolicyConstructor {
	return &HierarchyPolicyConstructor{
		Params:     params,
		Predicates: predicates,
		seeds:      newSeedSequence(params.Seed),
	}
}

func (h *HierarchyPolicyConstructor) NewPolicy() core.Policy {
	params := h.Params
	params.Seed = h.seeds.next()
	return NewHierarchyPolicy(params, h.Predicates...)
}
