package policies

import (
	"math/rand"

	"github.com/zeu5/soccer-push/core"
)

// RandomPolicy samples actions uniformly from the action box
type RandomPolicy struct {
	rand *rand.Rand
}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Reset() {}

func (r *RandomPolicy) UpdateEpisode(_ *core.EpisodeContext) {}

func (r *RandomPolicy) PickAction(_ *core.StepContext, _ core.State, space *core.ActionSpace) core.Action {
	return core.NewContinuousAction(space.Sample(r.rand)...)
}

func (r *RandomPolicy) UpdateStep(_ *core.StepContext, _ core.State, _ core.Action, _ core.State) {}

func (r *RandomPolicy) ResetEpisode(_ *core.EpisodeContext) {}

type RandomPolicyConstructor struct {
	seeds *seedSequence
}

var _ core.PolicyConstructor = &RandomPolicyConstructor{}

func NewRandomPolicyConstructor(seed int64) *RandomPolicyConstructor {
	return &RandomPolicyConstructor{seeds: newSeedSequence(seed)}
}

func (r *RandomPolicyConstructor) NewPolicy() core.Policy {
	return NewRandomPolicy(r.seeds.next())
}
