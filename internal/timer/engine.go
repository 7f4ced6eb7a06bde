package timer

import "time"

// Engine is the study/rest state machine. It never reads the clock; every
// time value comes from the caller. The zero value is a ready Engine in
// Standby.
type Engine struct {
	state State
}

// NewEngine returns an Engine in Standby.
func NewEngine() *Engine {
	return &Engine{}
}

// Start begins or resumes studying. Calling it while already studying is a
// no-op. It reports whether a transition happened.
func (e *Engine) Start(now time.Time) bool {
	switch e.state.Mode {
	case Studying:
		return false
	case Standby:
		e.state.SessionStart = now
	case Resting:
		e.state.RestAccumulated += since(e.state.PhaseStart, now)
	}

	e.state.Mode = Studying
	e.state.PhaseStart = now
	return true
}

// Pause switches from studying to resting. It is a no-op in any other mode.
func (e *Engine) Pause(now time.Time) bool {
	if e.state.Mode != Studying {
		return false
	}

	e.state.StudyAccumulated += since(e.state.PhaseStart, now)
	e.state.Mode = Resting
	e.state.PhaseStart = now
	return true
}

// Reset returns to Standby and clears accumulators and timestamps.
func (e *Engine) Reset() {
	e.state = State{}
}

// Snapshot returns study and rest totals as of now without changing state.
func (e *Engine) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Study: e.state.StudyAccumulated,
		Rest:  e.state.RestAccumulated,
	}

	switch e.state.Mode {
	case Studying:
		snap.Study += since(e.state.PhaseStart, now)
	case Resting:
		snap.Rest += since(e.state.PhaseStart, now)
	}

	return snap
}

// Finalize computes the values committed into a saved session. EndedAt is
// now and the durations are Snapshot(now), so both come from one instant.
func (e *Engine) Finalize(now time.Time) (Summary, error) {
	if e.state.Mode == Standby {
		return Summary{}, ErrNoSession
	}

	snap := e.Snapshot(now)
	return Summary{
		StartedAt: e.state.SessionStart,
		EndedAt:   now,
		Study:     snap.Study,
		Rest:      snap.Rest,
	}, nil
}

// PhaseElapsed is the time spent in the current phase. Zero in Standby.
func (e *Engine) PhaseElapsed(now time.Time) time.Duration {
	if e.state.Mode == Standby {
		return 0
	}
	return since(e.state.PhaseStart, now)
}

func (e *Engine) Mode() Mode {
	return e.state.Mode
}

// State returns a copy of the live state.
func (e *Engine) State() State {
	return e.state
}

// since clamps negative deltas (clock skew) to zero.
func since(start, now time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
