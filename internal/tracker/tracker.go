// Package tracker ties one timer engine to the session history. Every
// operation reads the clock once and runs to completion under a lock, so the
// engine is never observed half-updated.
package tracker

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/timer"
)

const DefaultTopic = "Programming"

// Status is a point-in-time view of the timer for display.
type Status struct {
	Mode         timer.Mode
	SessionStart time.Time
	Study        time.Duration
	Rest         time.Duration
	Phase        time.Duration
	At           time.Time
}

type Tracker struct {
	mu           sync.Mutex
	engine       *timer.Engine
	store        *history.Store
	now          func() time.Time
	newID        func() history.ID
	defaultTopic string
}

type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDFunc replaces the random record id generator.
func WithIDFunc(fn func() history.ID) Option {
	return func(t *Tracker) { t.newID = fn }
}

// WithDefaultTopic sets the topic used when Save is given an empty one.
func WithDefaultTopic(topic string) Option {
	return func(t *Tracker) {
		if topic = strings.TrimSpace(topic); topic != "" {
			t.defaultTopic = topic
		}
	}
}

func New(store *history.Store, opts ...Option) *Tracker {
	t := &Tracker{
		engine:       timer.NewEngine(),
		store:        store,
		now:          time.Now,
		newID:        func() history.ID { return history.StringID(uuid.NewString()) },
		defaultTopic: DefaultTopic,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins or resumes studying.
func (t *Tracker) Start() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.engine.Start(now)
	return t.status(now)
}

// Pause switches to resting.
func (t *Tracker) Pause() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.engine.Pause(now)
	return t.status(now)
}

// Reset discards the running session.
func (t *Tracker) Reset() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.engine.Reset()
	return t.status(t.now())
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.status(t.now())
}

// State returns the raw engine state.
func (t *Tracker) State() timer.State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.engine.State()
}

// Preview builds the record Save would write right now without writing it.
func (t *Tracker) Preview(topic string) (history.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.build(t.now(), topic)
}

// Save finalizes the running session, appends it to the history and resets
// the timer. If the history cannot be written the timer is left untouched so
// the session can be saved again.
func (t *Tracker) Save(topic string) (history.Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, err := t.build(t.now(), topic)
	if err != nil {
		return history.Record{}, err
	}

	if err := t.store.Append(rec); err != nil {
		return history.Record{}, fmt.Errorf("save session: %w", err)
	}

	t.engine.Reset()
	return rec, nil
}

// History lists saved sessions, oldest first.
func (t *Tracker) History() []history.Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.store.List()
}

// Delete removes a saved session. It never touches the running timer.
func (t *Tracker) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Remove(id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (t *Tracker) build(now time.Time, topic string) (history.Record, error) {
	// persisted timestamps carry millisecond precision
	now = now.Truncate(time.Millisecond)

	sum, err := t.engine.Finalize(now)
	if err != nil {
		return history.Record{}, err
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = t.defaultTopic
	}

	return history.Record{
		ID:            t.newID(),
		Topic:         topic,
		CreatedAt:     sum.StartedAt,
		EndedAt:       sum.EndedAt,
		StudyDuration: sum.Study,
		RestDuration:  sum.Rest,
	}.Normalize(), nil
}

func (t *Tracker) status(now time.Time) Status {
	st := t.engine.State()
	snap := t.engine.Snapshot(now)
	return Status{
		Mode:         st.Mode,
		SessionStart: st.SessionStart,
		Study:        snap.Study,
		Rest:         snap.Rest,
		Phase:        t.engine.PhaseElapsed(now),
		At:           now,
	}
}
