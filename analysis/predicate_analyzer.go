package analysis

import (
	"path"
	"strconv"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/util"
)

type predicateDataset struct {
	FirstTimeStepToFinal int `json:"first_timestep_to_final"`
	FirstEpisodeToFinal  int `json:"first_episode_to_final"`

	FinalPredicateStates    []int `json:"final_predicate_states"`
	FinalPredicateTimesteps []int `json:"final_predicate_timesteps"`

	PredicateEpisodes  map[string]int `json:"predicate_episodes"`
	PredicateTimesteps map[string]int `json:"predicate_timesteps"`
}

func newPredicateDataset(predicates []policies.Predicate) *predicateDataset {
	d := &predicateDataset{
		PredicateEpisodes:       make(map[string]int),
		PredicateTimesteps:      make(map[string]int),
		FinalPredicateStates:    make([]int, 0),
		FinalPredicateTimesteps: make([]int, 0),
		FirstTimeStepToFinal:    -1,
		FirstEpisodeToFinal:     -1,
	}
	for _, pred := range predicates {
		d.PredicateEpisodes[pred.Name] = 0
		d.PredicateTimesteps[pred.Name] = 0
	}
	return d
}

func (p *predicateDataset) Copy() *predicateDataset {
	return &predicateDataset{
		FirstTimeStepToFinal: p.FirstTimeStepToFinal,
		FirstEpisodeToFinal:  p.FirstEpisodeToFinal,

		FinalPredicateStates:    util.CopyIntSlice(p.FinalPredicateStates),
		FinalPredicateTimesteps: util.CopyIntSlice(p.FinalPredicateTimesteps),

		PredicateEpisodes:  util.CopyStringIntMap(p.PredicateEpisodes),
		PredicateTimesteps: util.CopyStringIntMap(p.PredicateTimesteps),
	}
}

// PredicateAnalyzer measures how far along an ordered list of subgoals the
// episodes get: time spent under each predicate, when the last one was
// first reached and how many distinct states satisfy it.
type PredicateAnalyzer struct {
	predicates []policies.Predicate

	dataset      *predicateDataset
	finalStates  map[string]bool
	lastTimeStep int
}

var _ core.Analyzer = &PredicateAnalyzer{}

func NewPredicateAnalyzer(predicates ...policies.Predicate) *PredicateAnalyzer {
	out := &PredicateAnalyzer{
		predicates: append([]policies.Predicate{policies.Init}, predicates...),
	}
	out.Reset()
	return out
}

func (p *PredicateAnalyzer) Reset() {
	p.dataset = newPredicateDataset(p.predicates)
	p.finalStates = make(map[string]bool)
	p.lastTimeStep = 0
}

func (p *PredicateAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	curPredicate := 0
	targetReached := false
	// timesteps spent under each predicate
	predicateTimesteps := make(map[int]int)
	for i := 0; i < trace.Len(); i++ {
		state := trace.Step(i).NextState
		nextPredicate := curPredicate

		if !targetReached {
			for j, predicate := range p.predicates {
				if predicate.Check(state) {
					nextPredicate = j
				}
			}
		}

		if nextPredicate == len(p.predicates)-1 {
			targetReached = true
			if p.dataset.FirstTimeStepToFinal == -1 {
				p.dataset.FirstTimeStepToFinal = p.lastTimeStep + i
			}
			if p.dataset.FirstEpisodeToFinal == -1 {
				p.dataset.FirstEpisodeToFinal = eCtx.Episode
			}
			p.finalStates[state.Hash()] = true
		}

		predicateTimesteps[curPredicate]++
		curPredicate = nextPredicate
	}

	for predIndex, timesteps := range predicateTimesteps {
		pred := p.predicates[predIndex]

		p.dataset.PredicateEpisodes[pred.Name]++
		p.dataset.PredicateTimesteps[pred.Name] += timesteps
	}

	p.lastTimeStep += trace.Len()
	p.dataset.FinalPredicateStates = append(p.dataset.FinalPredicateStates, len(p.finalStates))
	p.dataset.FinalPredicateTimesteps = append(p.dataset.FinalPredicateTimesteps, p.lastTimeStep)
}

func (p *PredicateAnalyzer) DataSet() core.DataSet {
	return p.dataset.Copy()
}

type PredicateAnalyzerConstructor struct {
	Predicates []policies.Predicate
}

var _ core.AnalyzerConstructor = &PredicateAnalyzerConstructor{}

func (p *PredicateAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewPredicateAnalyzer(p.Predicates...)
}

func NewPredicateAnalyzerConstructor(predicates []policies.Predicate) *PredicateAnalyzerConstructor {
	return &PredicateAnalyzerConstructor{
		Predicates: predicates,
	}
}

type PredicateComparator struct {
	savePath string
}

var _ core.Comparator = &PredicateComparator{}

func NewPredicateComparator(savePath string, hierarchyName string) *PredicateComparator {
	return &PredicateComparator{
		savePath: path.Join(savePath, "predicate_comparison_"+hierarchyName+".json"),
	}
}

func (p *PredicateComparator) Compare(experiments []string, datasets []core.DataSet) {
	out := make(map[string]*predicateDataset)
	for i, name := range experiments {
		if ds, ok := datasets[i].(*predicateDataset); ok {
			out[name] = ds
		}
	}

	util.SaveJson(p.savePath, out)
}

type PredicateComparatorConstructor struct {
	savePath      string
	hierarchyName string
}

var _ core.ComparatorConstructor = &PredicateComparatorConstructor{}

func (p *PredicateComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewPredicateComparator(path.Join(p.savePath, strconv.Itoa(run)), p.hierarchyName)
}

func NewPredicateComparatorConstructor(hierarchyName string, savePath string) *PredicateComparatorConstructor {
	return &PredicateComparatorConstructor{
		savePath:      savePath,
		hierarchyName: hierarchyName,
	}
}
