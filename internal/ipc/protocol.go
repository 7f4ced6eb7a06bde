package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/timer"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

const (
	ObjectPath    = "/io/github/soarinferret/studytimer"
	InterfaceName = "io.github.soarinferret.studytimer.Timer"
	ServiceName   = "io.github.soarinferret.studytimer"

	TickSignal = InterfaceName + ".Tick"

	ErrNameNoSession          = InterfaceName + ".NoSession"
	ErrNameStorageUnavailable = InterfaceName + ".StorageUnavailable"
	ErrNameFailed             = InterfaceName + ".Failed"
)

// StatusMessage is the JSON form of tracker.Status sent over the bus.
type StatusMessage struct {
	Mode         string `json:"mode"`
	SessionStart string `json:"session_start,omitempty"`
	StudyMs      int64  `json:"study_ms"`
	RestMs       int64  `json:"rest_ms"`
	PhaseMs      int64  `json:"phase_ms"`
	At           string `json:"at"`
}

func encodeStatus(st tracker.Status) string {
	msg := StatusMessage{
		Mode:    st.Mode.String(),
		StudyMs: st.Study.Milliseconds(),
		RestMs:  st.Rest.Milliseconds(),
		PhaseMs: st.Phase.Milliseconds(),
		At:      st.At.UTC().Format(time.RFC3339Nano),
	}
	if !st.SessionStart.IsZero() {
		msg.SessionStart = st.SessionStart.UTC().Format(time.RFC3339Nano)
	}

	data, _ := json.Marshal(msg)
	return string(data)
}

func decodeStatus(data string) (tracker.Status, error) {
	var msg StatusMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return tracker.Status{}, fmt.Errorf("failed to parse status: %w", err)
	}

	st := tracker.Status{
		Mode:  timer.ParseMode(msg.Mode),
		Study: time.Duration(msg.StudyMs) * time.Millisecond,
		Rest:  time.Duration(msg.RestMs) * time.Millisecond,
		Phase: time.Duration(msg.PhaseMs) * time.Millisecond,
	}
	if msg.SessionStart != "" {
		t, err := time.Parse(time.RFC3339Nano, msg.SessionStart)
		if err != nil {
			return tracker.Status{}, fmt.Errorf("failed to parse session_start: %w", err)
		}
		st.SessionStart = t
	}
	if msg.At != "" {
		t, err := time.Parse(time.RFC3339Nano, msg.At)
		if err != nil {
			return tracker.Status{}, fmt.Errorf("failed to parse at: %w", err)
		}
		st.At = t
	}
	return st, nil
}

// toDBusError names the error so the client can map it back.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}

	name := ErrNameFailed
	switch {
	case errors.Is(err, timer.ErrNoSession):
		name = ErrNameNoSession
	case errors.Is(err, history.ErrStorageUnavailable):
		name = ErrNameStorageUnavailable
	}
	return dbus.NewError(name, []interface{}{err.Error()})
}

// fromDBusError maps a named D-Bus error back onto the sentinel errors.
func fromDBusError(err error) error {
	if err == nil {
		return nil
	}

	var name, msg string
	var valErr dbus.Error
	var ptrErr *dbus.Error
	switch {
	case errors.As(err, &valErr):
		name, msg = valErr.Name, valErr.Error()
	case errors.As(err, &ptrErr):
		name, msg = ptrErr.Name, ptrErr.Error()
	default:
		return err
	}

	switch name {
	case ErrNameNoSession:
		return timer.ErrNoSession
	case ErrNameStorageUnavailable:
		return fmt.Errorf("%w: %s", history.ErrStorageUnavailable, msg)
	default:
		return errors.New(msg)
	}
}
