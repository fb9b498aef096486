package core

import "sync"

type Step struct {
	State     State
	Action    Action
	NextState State
	Reward    float64

	Misc map[string]interface{}
}

type Trace struct {
	mtx   *sync.Mutex
	steps []*Step
	err   error
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]*Step, 0),
		mtx:   &sync.Mutex{},
	}
}

func (t *Trace) AddStep(s *Step) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.steps[i]
}

func (t *Trace) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.steps)
}

// Last returns the final step or nil for an empty trace
func (t *Trace) Last() *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// TotalReward sums the rewards of all steps
func (t *Trace) TotalReward() float64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	total := 0.0
	for _, s := range t.steps {
		total += s.Reward
	}
	return total
}

// Terminated is true if the last recorded state is terminal
func (t *Trace) Terminated() bool {
	last := t.Last()
	return last != nil && last.NextState != nil && last.NextState.Terminal()
}

func (t *Trace) SetError(err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.err = err
}

func (t *Trace) Error() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.err
}
