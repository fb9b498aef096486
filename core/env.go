package core

import (
	"context"
	"errors"
)

var (
	// ErrEpisodeOver is returned by Step once the environment reached a terminal state
	ErrEpisodeOver = errors.New("episode is over")
	// ErrNoAction is reported when a policy fails to pick an action
	ErrNoAction = errors.New("policy returned no action")
)

type Environment interface {
	Reset(*EpisodeContext) (State, error)
	Step(Action, *StepContext) (State, error)
	ActionSpace() *ActionSpace
}

type State interface {
	Hash() string
	// Observation returns the feature vector the policy acts on
	Observation() []float64
	// Reward obtained on the transition into this state
	Reward() float64
	// Terminal is true when the episode ended in this state
	Terminal() bool
}

type Action interface {
	Hash() string
	Values() []float64
}

type EpisodeContext struct {
	Context       context.Context
	Episode       int
	Horizon       int
	Run           int
	StartTimeStep int

	Trace *Trace

	err     error
	timeout bool
	doneCh  chan struct{}
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Trace:   NewTrace(),
		doneCh:  make(chan struct{}),
	}
}

func (e *EpisodeContext) Error(err error) {
	e.err = err
	e.Trace.SetError(err)
	close(e.doneCh)
}

func (e *EpisodeContext) Timeout() {
	e.timeout = true
	close(e.doneCh)
}

func (e *EpisodeContext) Finish() {
	close(e.doneCh)
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

func (e *EpisodeContext) Err() error {
	return e.err
}

func (e *EpisodeContext) IsTimeout() bool {
	return e.timeout
}

func (e *EpisodeContext) Done() <-chan struct{} {
	return e.doneCh
}

type StepContext struct {
	Step int
	*EpisodeContext
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given instance number.
	NewEnvironment(int) Environment
}
