package timer

import (
	"errors"
	"time"
)

// ErrNoSession is returned when a session is finalized before it was started.
var ErrNoSession = errors.New("no session started")

// Mode is the phase the timer is currently in.
type Mode int

const (
	Standby Mode = iota
	Studying
	Resting
)

func (m Mode) String() string {
	switch m {
	case Studying:
		return "studying"
	case Resting:
		return "resting"
	default:
		return "standby"
	}
}

// ParseMode is the inverse of Mode.String. Unknown values map to Standby.
func ParseMode(s string) Mode {
	switch s {
	case "studying":
		return Studying
	case "resting":
		return Resting
	default:
		return Standby
	}
}

// State is a copy of the engine's live bookkeeping.
type State struct {
	Mode             Mode
	SessionStart     time.Time
	PhaseStart       time.Time
	StudyAccumulated time.Duration
	RestAccumulated  time.Duration
}

// Snapshot holds total study and rest time including the phase in progress.
type Snapshot struct {
	Study time.Duration
	Rest  time.Duration
}

// Summary is the authoritative result of a session at save time.
type Summary struct {
	StartedAt time.Time
	EndedAt   time.Time
	Study     time.Duration
	Rest      time.Duration
}
