package tui

import (
	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

// Backend is what the UI drives. ipc.Client talks to the daemon; Local wraps
// an in-process tracker.
type Backend interface {
	Start() (tracker.Status, error)
	Pause() (tracker.Status, error)
	Reset() (tracker.Status, error)
	Status() (tracker.Status, error)
	Preview(topic string) (history.Record, error)
	Save(topic string) (history.Record, error)
	History() ([]history.Record, error)
	Delete(id string) error
}

type localBackend struct {
	tr *tracker.Tracker
}

// Local runs the UI against tr directly, without a daemon.
func Local(tr *tracker.Tracker) Backend {
	return localBackend{tr: tr}
}

func (b localBackend) Start() (tracker.Status, error) { return b.tr.Start(), nil }
func (b localBackend) Pause() (tracker.Status, error) { return b.tr.Pause(), nil }
func (b localBackend) Reset() (tracker.Status, error) { return b.tr.Reset(), nil }
func (b localBackend) Status() (tracker.Status, error) { return b.tr.Status(), nil }

func (b localBackend) Preview(topic string) (history.Record, error) {
	return b.tr.Preview(topic)
}

func (b localBackend) Save(topic string) (history.Record, error) {
	return b.tr.Save(topic)
}

func (b localBackend) History() ([]history.Record, error) {
	return b.tr.History(), nil
}

func (b localBackend) Delete(id string) error {
	return b.tr.Delete(id)
}
