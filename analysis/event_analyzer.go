package analysis

import (
	"fmt"
	"os"
	"path"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/util"
)

// EventSpec names a property of a whole episode worth keeping a trace of
type EventSpec struct {
	Name  string
	Check func(*core.Trace) bool
}

// EventAnalyzer counts the episodes matching each event and writes their
// traces under events/
type EventAnalyzer struct {
	events   []EventSpec
	savePath string
	exp      string
	counts   map[string]int
	// traces are only written while fewer than limit were written per event
	limit int
}

var _ core.Analyzer = &EventAnalyzer{}

func NewEventAnalyzer(savePath string, limit int, events ...EventSpec) *EventAnalyzer {
	return &EventAnalyzer{
		events:   events,
		savePath: path.Join(savePath, "events"),
		counts:   make(map[string]int),
		limit:    limit,
	}
}

func (ea *EventAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	for _, event := range ea.events {
		if !event.Check(trace) {
			continue
		}
		ea.counts[event.Name]++
		if ea.counts[event.Name] > ea.limit {
			continue
		}
		if err := util.EnsureDir(ea.savePath); err != nil {
			continue
		}
		fileName := path.Join(ea.savePath, fmt.Sprintf("%d_%s_event_%d.txt", eCtx.Run, event.Name, eCtx.Episode))
		if ea.exp != "" {
			fileName = path.Join(ea.savePath, fmt.Sprintf("%d_%s_%s_event_%d.txt", eCtx.Run, ea.exp, event.Name, eCtx.Episode))
		}
		os.WriteFile(fileName, []byte(traceToString(trace)), 0644)
	}
}

// DataSet is the number of matching episodes per event
func (ea *EventAnalyzer) DataSet() core.DataSet {
	return util.CopyStringIntMap(ea.counts)
}

func (ea *EventAnalyzer) Reset() {
	ea.counts = make(map[string]int)
}

type EventAnalyzerConstructor struct {
	SavePath string
	Limit    int
	Events   []EventSpec
}

var _ core.AnalyzerConstructor = &EventAnalyzerConstructor{}

func NewEventAnalyzerConstructor(savePath string, limit int, events ...EventSpec) *EventAnalyzerConstructor {
	return &EventAnalyzerConstructor{
		SavePath: savePath,
		Limit:    limit,
		Events:   events,
	}
}

func (e *EventAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewEventAnalyzer(e.SavePath, e.Limit, e.Events...)
	a.exp = exp
	return a
}

// EventComparator writes the event counts of every experiment to events.json
type EventComparator struct {
	savePath string
}

var _ core.Comparator = &EventComparator{}

func NewEventComparator(savePath string) *EventComparator {
	return &EventComparator{savePath: path.Join(savePath, "events.json")}
}

func (c *EventComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	out := make(map[string]map[string]int)
	for i, name := range experimentNames {
		if counts, ok := datasets[i].(map[string]int); ok {
			out[name] = counts
		}
	}
	util.SaveJson(c.savePath, out)
}

type EventComparatorConstructor struct {
	savePath string
}

var _ core.ComparatorConstructor = &EventComparatorConstructor{}

func NewEventComparatorConstructor(savePath string) *EventComparatorConstructor {
	return &EventComparatorConstructor{savePath: savePath}
}

func (c *EventComparatorConstructor) NewComparator(run int) core.Comparator {
	return NewEventComparator(path.Join(c.savePath, fmt.Sprint(run)))
}
