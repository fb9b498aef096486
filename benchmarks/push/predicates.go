package push

import (
	"github.com/zeu5/soccer-push/analysis"
	"github.com/zeu5/soccer-push/core"
	"github.com/zeu5/soccer-push/policies"
	"github.com/zeu5/soccer-push/soccer"
)

// Wraps the predicate that works only on soccer.State and returns a policies.PredicateFunc
func wrapPredicate(pred func(*soccer.State) bool) policies.PredicateFunc {
	return func(s core.State) bool {
		sS, ok := s.(*soccer.State)
		if !ok {
			return false
		}
		return pred(sS)
	}
}

// NearBall holds while the agent is close enough to the ball to be rewarded
func NearBall() policies.PredicateFunc {
	return wrapPredicate(func(s *soccer.State) bool {
		return soccer.Distance(s.Ball, s.Agent) < soccer.ProximityRadius
	})
}

// BallAdvanced holds once the ball covered at least frac of the way from
// the center of the arena to the target
func BallAdvanced(frac float64) policies.PredicateFunc {
	return wrapPredicate(func(s *soccer.State) bool {
		start := soccer.Distance(soccer.BallOrigin, s.Target)
		if start == 0 {
			return true
		}
		return soccer.Distance(s.Ball, s.Target) <= (1-frac)*start
	})
}

// BallWithin holds when the ball is at most dist away from the target
func BallWithin(dist float64) policies.PredicateFunc {
	return wrapPredicate(func(s *soccer.State) bool {
		return soccer.Distance(s.Ball, s.Target) <= dist
	})
}

func Goal() policies.PredicateFunc {
	return wrapPredicate(func(s *soccer.State) bool {
		return s.Outcome == soccer.OutcomeGoal
	})
}

// outcomeIs checks how the episode of the trace ended
func outcomeIs(o soccer.Outcome) func(*core.Trace) bool {
	return func(t *core.Trace) bool {
		last := t.Last()
		if last == nil {
			return false
		}
		s, ok := last.NextState.(*soccer.State)
		return ok && s.Outcome == o
	}
}

// neverTouched is true for episodes where the agent never got near the ball
func neverTouched(t *core.Trace) bool {
	near := NearBall()
	for i := 0; i < t.Len(); i++ {
		if near(t.Step(i).NextState) {
			return false
		}
	}
	return t.Len() > 0
}

// Events lists the episode properties whose traces are worth keeping
func Events() []analysis.EventSpec {
	return []analysis.EventSpec{
		{Name: "goal", Check: outcomeIs(soccer.OutcomeGoal)},
		{Name: "agent_fell", Check: outcomeIs(soccer.OutcomeAgentFell)},
		{Name: "ball_fell", Check: outcomeIs(soccer.OutcomeBallFell)},
		{Name: "never_touched", Check: neverTouched},
	}
}
