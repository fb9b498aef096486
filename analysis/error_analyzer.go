package analysis

import (
	"bytes"
	"fmt"
	"os"
	"path"

	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/util"
)

// ErrorAnalyzer writes the partial trace of every failed episode
type ErrorAnalyzer struct {
	savePath string
	exp      string
	count    int
}

var _ core.Analyzer = &ErrorAnalyzer{}

func NewErrorAnalyzer(savePath string) *ErrorAnalyzer {
	return &ErrorAnalyzer{
		savePath: path.Join(savePath, "errors"),
	}
}

func (a *ErrorAnalyzer) Analyze(ctx *core.EpisodeContext, trace *core.Trace) {
	err := trace.Error()
	if err == nil {
		return
	}
	a.count++
	if err := util.EnsureDir(a.savePath); err != nil {
		return
	}

	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "Error: %s\n", err)
	buf.WriteString(traceToString(trace))

	fileName := fmt.Sprintf("%d_error_%d.txt", ctx.Run, ctx.Episode)
	if a.exp != "" {
		fileName = fmt.Sprintf("%d_%s_error_%d.txt", ctx.Run, a.exp, ctx.Episode)
	}
	os.WriteFile(path.Join(a.savePath, fileName), buf.Bytes(), 0644)
}

// DataSet is the number of failed episodes seen
func (a *ErrorAnalyzer) DataSet() core.DataSet {
	return a.count
}

func (a *ErrorAnalyzer) Reset() {
	a.count = 0
}

type ErrorAnalyzerConstructor struct {
	SavePath string
}

var _ core.AnalyzerConstructor = &ErrorAnalyzerConstructor{}

func NewErrorAnalyzerConstructor(savePath string) *ErrorAnalyzerConstructor {
	return &ErrorAnalyzerConstructor{
		SavePath: savePath,
	}
}

func (e *ErrorAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewErrorAnalyzer(e.SavePath)
	a.exp = exp
	return a
}
