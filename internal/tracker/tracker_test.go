package tracker

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/StudyTimer/internal/history"
	"github.com/SoarinFerret/StudyTimer/internal/kv"
	"github.com/SoarinFerret/StudyTimer/internal/timer"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Set(ms int64) {
	c.t = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC).Add(time.Duration(ms) * time.Millisecond)
}

type failingKV struct {
	kv.Memory
	fail bool
}

func (f *failingKV) Set(key, value string) error {
	if f.fail {
		return errors.New("quota exceeded")
	}
	return f.Memory.Set(key, value)
}

func newTestTracker(t *testing.T, store history.KV) (*Tracker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	clock.Set(0)
	n := 0
	tr := New(history.NewStore(store, ""),
		WithClock(clock.Now),
		WithIDFunc(func() history.ID {
			n++
			return history.StringID(fmt.Sprintf("id-%d", n))
		}),
	)
	return tr, clock
}

// runScenario: start 0, pause 5000, start 8000, pause 10000.
func runScenario(tr *Tracker, clock *fakeClock) {
	clock.Set(0)
	tr.Start()
	clock.Set(5000)
	tr.Pause()
	clock.Set(8000)
	tr.Start()
	clock.Set(10000)
	tr.Pause()
}

func TestTracker_SaveCommitsFinalizedSession(t *testing.T) {
	tr, clock := newTestTracker(t, kv.NewMemory())
	runScenario(tr, clock)

	clock.Set(10000)
	rec, err := tr.Save("Algorithms")
	require.NoError(t, err)

	assert.Equal(t, "id-1", rec.ID.String())
	assert.Equal(t, "Algorithms", rec.Topic)
	assert.Equal(t, 7*time.Second, rec.StudyDuration)
	assert.Equal(t, 3*time.Second, rec.RestDuration)
	assert.Equal(t, clock.Now(), rec.EndedAt)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), rec.CreatedAt)

	assert.Equal(t, []history.Record{rec}, tr.History())
	assert.Equal(t, timer.Standby, tr.Status().Mode, "save resets the timer")
	assert.Equal(t, time.Duration(0), tr.Status().Study)
}

func TestTracker_SaveIncludesPhaseInProgress(t *testing.T) {
	tr, clock := newTestTracker(t, kv.NewMemory())
	runScenario(tr, clock)

	clock.Set(12500)
	rec, err := tr.Save("")
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, rec.StudyDuration)
	assert.Equal(t, 5500*time.Millisecond, rec.RestDuration)
	assert.Equal(t, DefaultTopic, rec.Topic)
}

func TestTracker_SaveWithoutSession(t *testing.T) {
	mem := kv.NewMemory()
	tr, _ := newTestTracker(t, mem)

	_, err := tr.Save("x")
	assert.ErrorIs(t, err, timer.ErrNoSession)

	_, ok, _ := mem.Get(history.DefaultKey)
	assert.False(t, ok, "nothing written")
	assert.Equal(t, timer.Standby, tr.Status().Mode)
}

func TestTracker_FailedSaveKeepsTimer(t *testing.T) {
	store := &failingKV{}
	tr, clock := newTestTracker(t, store)
	runScenario(tr, clock)
	before := tr.State()

	store.fail = true
	clock.Set(11000)
	_, err := tr.Save("x")
	require.ErrorIs(t, err, history.ErrStorageUnavailable)
	assert.Equal(t, before, tr.State())

	store.fail = false
	rec, err := tr.Save("x")
	require.NoError(t, err)
	assert.Equal(t, 4*time.Second, rec.RestDuration)
}

func TestTracker_DeleteLeavesTimerAlone(t *testing.T) {
	tr, clock := newTestTracker(t, kv.NewMemory())
	runScenario(tr, clock)
	first, err := tr.Save("first")
	require.NoError(t, err)

	clock.Set(20000)
	tr.Start()
	before := tr.State()

	require.NoError(t, tr.Delete(first.ID.String()))
	assert.Empty(t, tr.History())
	assert.Equal(t, before, tr.State())

	require.NoError(t, tr.Delete("unknown"))
}

func TestTracker_AppendThenRemoveUnknown(t *testing.T) {
	tr, clock := newTestTracker(t, kv.NewMemory())
	runScenario(tr, clock)
	rec, err := tr.Save("keep")
	require.NoError(t, err)

	require.NoError(t, tr.Delete("missing"))
	assert.Equal(t, []history.Record{rec}, tr.History())
}

func TestTracker_Preview(t *testing.T) {
	tr, clock := newTestTracker(t, kv.NewMemory())
	_, err := tr.Preview("x")
	assert.ErrorIs(t, err, timer.ErrNoSession)

	runScenario(tr, clock)
	clock.Set(10000)
	rec, err := tr.Preview("  Math  ")
	require.NoError(t, err)
	assert.Equal(t, "Math", rec.Topic)
	assert.Equal(t, 7*time.Second, rec.StudyDuration)
	assert.Empty(t, tr.History(), "preview writes nothing")
	assert.Equal(t, timer.Resting, tr.Status().Mode)
}

func TestTracker_StatusAndReset(t *testing.T) {
	tr, clock := newTestTracker(t, kv.NewMemory())
	clock.Set(1000)
	st := tr.Start()
	assert.Equal(t, timer.Studying, st.Mode)

	clock.Set(4000)
	st = tr.Status()
	assert.Equal(t, 3*time.Second, st.Study)
	assert.Equal(t, 3*time.Second, st.Phase)

	st = tr.Pause()
	assert.Equal(t, timer.Resting, st.Mode)
	assert.Equal(t, time.Duration(0), st.Phase)

	st = tr.Reset()
	assert.Equal(t, timer.Standby, st.Mode)
	assert.Equal(t, time.Duration(0), st.Study+st.Rest)
	assert.True(t, st.SessionStart.IsZero())
}

func TestTracker_MillisecondPrecision(t *testing.T) {
	tr, clock := newTestTracker(t, kv.NewMemory())
	clock.t = clock.t.Add(123456789 * time.Nanosecond)
	tr.Start()
	clock.t = clock.t.Add(2*time.Second + 999999*time.Nanosecond)

	rec, err := tr.Save("x")
	require.NoError(t, err)
	assert.Equal(t, rec.EndedAt, rec.EndedAt.Truncate(time.Millisecond))
	assert.Equal(t, rec.CreatedAt, rec.CreatedAt.Truncate(time.Millisecond))
	assert.Equal(t, rec, tr.History()[0], "persisted record round-trips exactly")
}

func TestWithDefaultTopic(t *testing.T) {
	clock := &fakeClock{}
	clock.Set(0)
	tr := New(history.NewStore(kv.NewMemory(), ""), WithClock(clock.Now), WithDefaultTopic("Reading"))
	tr.Start()
	rec, err := tr.Preview("")
	require.NoError(t, err)
	assert.Equal(t, "Reading", rec.Topic)
	assert.NotEmpty(t, rec.ID.String(), "default id generator")
}
