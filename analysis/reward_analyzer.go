package analysis

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/util"
)

// outcomeNamer is implemented by states that know why the episode ended
type outcomeNamer interface {
	OutcomeName() string
}

// OutcomeTruncated is recorded for episodes that hit the horizon
const OutcomeTruncated = "truncated"

type rewardDataset struct {
	Rewards   []float64      `json:"rewards"`
	Lengths   []int          `json:"lengths"`
	Timesteps []int          `json:"timesteps"`
	Outcomes  map[string]int `json:"outcomes"`
}

func (r *rewardDataset) Copy() *rewardDataset {
	outcomes := make(map[string]int, len(r.Outcomes))
	for k, v := range r.Outcomes {
		outcomes[k] = v
	}
	return &rewardDataset{
		Rewards:   util.CopyFloatSlice(r.Rewards),
		Lengths:   util.CopyIntSlice(r.Lengths),
		Timesteps: util.CopyIntSlice(r.Timesteps),
		Outcomes:  outcomes,
	}
}

// RewardAnalyzer records the cumulative reward, length and outcome of
// every successful episode
type RewardAnalyzer struct {
	dataset *rewardDataset
}

var _ core.Analyzer = &RewardAnalyzer{}

func NewRewardAnalyzer() *RewardAnalyzer {
	r := &RewardAnalyzer{}
	r.Reset()
	return r
}

func (r *RewardAnalyzer) Reset() {
	r.dataset = &rewardDataset{
		Rewards:   make([]float64, 0),
		Lengths:   make([]int, 0),
		Timesteps: make([]int, 0),
		Outcomes:  make(map[string]int),
	}
}

func (r *RewardAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if eCtx.IsError() || eCtx.IsTimeout() {
		return
	}
	lastTimeStep := 0
	if n := len(r.dataset.Timesteps); n > 0 {
		lastTimeStep = r.dataset.Timesteps[n-1]
	}
	r.dataset.Rewards = append(r.dataset.Rewards, trace.TotalReward())
	r.dataset.Lengths = append(r.dataset.Lengths, trace.Len())
	r.dataset.Timesteps = append(r.dataset.Timesteps, lastTimeStep+trace.Len())

	outcome := OutcomeTruncated
	if last := trace.Last(); last != nil && last.NextState != nil && last.NextState.Terminal() {
		outcome = "terminal"
		if namer, ok := last.NextState.(outcomeNamer); ok {
			outcome = namer.OutcomeName()
		}
	}
	r.dataset.Outcomes[outcome]++
}

func (r *RewardAnalyzer) DataSet() core.DataSet {
	return r.dataset.Copy()
}

type RewardAnalyzerConstructor struct{}

var _ core.AnalyzerConstructor = &RewardAnalyzerConstructor{}

func NewRewardAnalyzerConstructor() *RewardAnalyzerConstructor {
	return &RewardAnalyzerConstructor{}
}

func (r *RewardAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewRewardAnalyzer()
}

// RewardSummary is the per experiment entry of reward_analyzer.json
type RewardSummary struct {
	Episodes   int            `json:"episodes"`
	MeanReward float64        `json:"mean_reward"`
	StdReward  float64        `json:"std_reward"`
	MeanLength float64        `json:"mean_length"`
	Outcomes   map[string]int `json:"outcomes"`
	Data       *rewardDataset `json:"data"`
}

func summarize(d *rewardDataset) *RewardSummary {
	s := &RewardSummary{
		Episodes: len(d.Rewards),
		Outcomes: d.Outcomes,
		Data:     d,
	}
	if len(d.Rewards) == 0 {
		return s
	}
	s.MeanReward, s.StdReward = stat.MeanStdDev(d.Rewards, nil)
	if len(d.Rewards) == 1 {
		s.StdReward = 0
	}
	lengths := make([]float64, len(d.Lengths))
	for i, l := range d.Lengths {
		lengths[i] = float64(l)
	}
	s.MeanLength = stat.Mean(lengths, nil)
	return s
}

// RewardComparator writes reward_analyzer.json and a reward curve chart
// (rewards.html) of the episode rewards averaged over a trailing window
type RewardComparator struct {
	savePath string
	window   int
	run      int
	logger   *zap.Logger
}

var _ core.Comparator = &RewardComparator{}

func NewRewardComparator(savePath string, window int) *RewardComparator {
	return &RewardComparator{
		savePath: savePath,
		window:   window,
		logger:   zap.NewNop(),
	}
}

func (c *RewardComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	summaries := make(map[string]*RewardSummary)
	names := make([]string, 0, len(experimentNames))
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*rewardDataset)
		if !ok {
			continue
		}
		summaries[name] = summarize(ds)
		names = append(names, name)
	}
	if err := util.SaveJson(path.Join(c.savePath, "reward_analyzer.json"), summaries); err != nil {
		c.logger.Error("saving reward summary", zap.Int("run", c.run), zap.Error(err))
	}
	if err := c.plot(names, summaries); err != nil {
		c.logger.Error("rendering reward chart", zap.Int("run", c.run), zap.Error(err))
	}
}

func (c *RewardComparator) plot(names []string, summaries map[string]*RewardSummary) error {
	numEpisodes := 0
	for _, s := range summaries {
		numEpisodes = max(numEpisodes, s.Episodes)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Episode reward",
			Subtitle: fmt.Sprintf("run %d, moving average over %d episodes", c.run, c.window),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "reward"}),
	)

	episodes := make([]string, numEpisodes)
	for i := range episodes {
		episodes[i] = strconv.Itoa(i)
	}
	line.SetXAxis(episodes)
	for _, name := range names {
		avg := util.MovingAverage(summaries[name].Data.Rewards, c.window)
		items := make([]opts.LineData, len(avg))
		for i, v := range avg {
			items[i] = opts.LineData{Value: v}
		}
		line.AddSeries(name, items)
	}

	page := components.NewPage()
	page.AddCharts(line)

	if err := util.EnsureDir(c.savePath); err != nil {
		return err
	}
	f, err := os.Create(path.Join(c.savePath, "rewards.html"))
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

type RewardComparatorConstructor struct {
	savePath string
	window   int
	logger   *zap.Logger
}

var _ core.ComparatorConstructor = &RewardComparatorConstructor{}

func NewRewardComparatorConstructor(savePath string, window int) *RewardComparatorConstructor {
	return &RewardComparatorConstructor{
		savePath: savePath,
		window:   window,
	}
}

// WithLogger reports write failures of the comparators to logger
func (c *RewardComparatorConstructor) WithLogger(logger *zap.Logger) *RewardComparatorConstructor {
	c.logger = logger
	return c
}

func (c *RewardComparatorConstructor) NewComparator(run int) core.Comparator {
	cmp := NewRewardComparator(path.Join(c.savePath, strconv.Itoa(run)), c.window)
	cmp.run = run
	if c.logger != nil {
		cmp.logger = c.logger
	}
	return cmp
}
