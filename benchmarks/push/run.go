package push

import (
	"errors"

	"go.uber.org/zap"

	"github.com/zeu5/soccer-push/analysis"
	"github.com/zeu5/soccer-push/benchmarks/common"
	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/replay"
	"github.com/zeu5/soccer-push/soccer"
)

// ucbStateSize is a rough count of the hashed states an episode can visit
const ucbStateSize = 50000

func addCommonAnalyses(cmp *core.ParallelComparison, flags *common.Flags, logger *zap.Logger) {
	cmp.AddAnalysis("Reward", analysis.NewRewardAnalyzerConstructor(), analysis.NewRewardComparatorConstructor(flags.SavePath, flags.RewardWindow).WithLogger(logger))
	cmp.AddAnalysis("Coverage", analysis.NewCoverageAnalyzerConstructor(), analysis.NewCoverageComparatorConstructor(flags.SavePath))

	limit := 0
	if flags.RecordEventTraces {
		limit = 10
	}
	cmp.AddAnalysis("Events", analysis.NewEventAnalyzerConstructor(flags.SavePath, limit, Events()...), analysis.NewEventComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Errors", analysis.NewErrorAnalyzerConstructor(flags.SavePath), analysis.NewNoOpComparatorConstructor())

	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewPrintDebugAnalyzerConstructor(flags.SavePath, 0), analysis.NewNoOpComparatorConstructor())
	}
	if flags.RecordReplay {
		buffer := replay.NewBuffer(flags.ReplaySize, uint64(flags.Seed))
		cmp.AddAnalysis("Replay", analysis.NewReplayAnalyzerConstructor(buffer), analysis.NewReplayComparatorConstructor(buffer, flags.SavePath))
	}
}

// PrepareComparison pits the baselines against the learning policies on
// the push task. A nil logger discards comparator errors.
func PrepareComparison(flags *common.Flags, config soccer.SceneConfig, logger *zap.Logger) (*core.ParallelComparison, error) {
	envConstructor, err := soccer.NewEnvConstructor(config, flags.Seed)
	if err != nil {
		return nil, err
	}

	cmp := core.NewParallelComparison()
	addCommonAnalyses(cmp, flags, logger)

	push := GetHierarchy("Push")
	cmp.AddAnalysis(
		"HierarchyCoverage_Push",
		analysis.NewPredicateAnalyzerConstructor(push),
		analysis.NewPredicateComparatorConstructor("Push", flags.SavePath),
	)

	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Random",
		Environment: envConstructor,
		Policy:      policies.NewRandomPolicyConstructor(flags.Seed),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Chase",
		Environment: envConstructor,
		Policy:      &policies.ChasePolicyConstructor{},
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "QLearning",
		Environment: envConstructor,
		Policy: policies.NewQLearningPolicyConstructor(policies.QLearningParams{
			Alpha:      0.1,
			Discount:   0.99,
			Epsilon:    0.1,
			Resolution: policies.DefaultResolution,
			Seed:       flags.Seed,
		}),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "BonusMax",
		Environment: envConstructor,
		Policy: policies.NewQLearningPolicyConstructor(policies.QLearningParams{
			Alpha:      0.1,
			Discount:   0.99,
			Epsilon:    0.05,
			Bonus:      0.05,
			Resolution: policies.DefaultResolution,
			Seed:       flags.Seed,
		}),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "UCB",
		Environment: envConstructor,
		Policy: policies.NewUCBPolicyConstructor(policies.UCBParams{
			StateSize:  ucbStateSize,
			Horizon:    flags.Horizon,
			Episodes:   flags.Episodes,
			Constant:   0.02,
			Epsilon:    0.05,
			MaxReturn:  soccer.GoalReward + float64(flags.Horizon)*soccer.ProximityReward,
			Resolution: policies.DefaultResolution,
			Seed:       flags.Seed,
		}),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "SoftMax",
		Environment: envConstructor,
		Policy: policies.NewSoftMaxPolicyConstructor(policies.SoftMaxParams{
			Alpha:       0.3,
			Gamma:       0.7,
			Temperature: 1,
			Resolution:  policies.DefaultResolution,
			Seed:        flags.Seed,
		}),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "NegVisits",
		Environment: envConstructor,
		Policy: policies.NewSoftMaxPolicyConstructor(policies.SoftMaxParams{
			Alpha:        0.3,
			Gamma:        0.7,
			Temperature:  1,
			CountPenalty: 0.01,
			Resolution:   policies.DefaultResolution,
			Seed:         flags.Seed,
		}),
	})
	return cmp, nil
}

// PrepareHierarchyComparison runs one hierarchy policy per hierarchy of
// the set next to the Random and QLearning baselines
func PrepareHierarchyComparison(flags *common.Flags, config soccer.SceneConfig, hSet string, logger *zap.Logger) (*core.ParallelComparison, error) {
	hierarchies := getHierarchySet(hSet)
	if len(hierarchies) == 0 || len(hierarchies[0].Predicates) == 0 {
		return nil, errors.New("no hierarchies that match the criterion")
	}

	envConstructor, err := soccer.NewEnvConstructor(config, flags.Seed)
	if err != nil {
		return nil, err
	}

	cmp := core.NewParallelComparison()
	addCommonAnalyses(cmp, flags, logger)

	for _, h := range hierarchies {
		cmp.AddAnalysis(
			"HierarchyCoverage_"+h.Name,
			analysis.NewPredicateAnalyzerConstructor(h.Predicates),
			analysis.NewPredicateComparatorConstructor(h.Name, flags.SavePath),
		)
		cmp.AddExperiment(&core.ParallelExperiment{
			Name:        "PredHRL_" + h.Name,
			Environment: envConstructor,
			Policy: policies.NewHierarchyPolicyConstructor(policies.HierarchyParams{
				Alpha:      0.1,
				Discount:   0.99,
				Epsilon:    0.05,
				OneTime:    true,
				Resolution: policies.DefaultResolution,
				Seed:       flags.Seed,
			}, h.Predicates...),
		})
	}

	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Random",
		Environment: envConstructor,
		Policy:      policies.NewRandomPolicyConstructor(flags.Seed),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "QLearning",
		Environment: envConstructor,
		Policy: policies.NewQLearningPolicyConstructor(policies.QLearningParams{
			Alpha:      0.1,
			Discount:   0.99,
			Epsilon:    0.1,
			Resolution: policies.DefaultResolution,
			Seed:       flags.Seed,
		}),
	})
	return cmp, nil
}
