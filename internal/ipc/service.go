package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/StudyTimer/internal/notify"
	"github.com/SoarinFerret/StudyTimer/internal/reminder"
	"github.com/SoarinFerret/StudyTimer/internal/ticker"
	"github.com/SoarinFerret/StudyTimer/internal/tracker"
)

// Emitter sends a signal on the bus. *dbus.Conn satisfies it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

type ServiceConfig struct {
	Refresh       time.Duration
	StudyReminder time.Duration
	// Notifier is optional; reminders are skipped without one.
	Notifier notify.Sender
}

// Service is the object exported on the bus. Every exported method is a
// D-Bus method.
type Service struct {
	ctx     context.Context
	tracker *tracker.Tracker
	emitter Emitter
	ticker  *ticker.Ticker
	cfg     ServiceConfig

	// ctl keeps a tracker transition and the matching ticker start or stop
	// together.
	ctl sync.Mutex

	mu           sync.Mutex
	lastReminder time.Time
}

func NewService(ctx context.Context, tr *tracker.Tracker, emitter Emitter, cfg ServiceConfig) *Service {
	s := &Service{
		ctx:     ctx,
		tracker: tr,
		emitter: emitter,
		cfg:     cfg,
	}
	s.ticker = ticker.New(cfg.Refresh, s.tick)
	return s
}

// Serve claims the service name and exports the object on conn until ctx is
// done.
func Serve(ctx context.Context, conn *dbus.Conn, svc *Service) error {
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", ServiceName)
	}

	if err := conn.Export(svc, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}

	<-ctx.Done()
	svc.ticker.Stop()
	return nil
}

func (s *Service) Start() (string, *dbus.Error) {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	st := s.tracker.Start()
	s.ticker.Start(s.ctx)
	log.Println("Start requested, now", st.Mode)
	return encodeStatus(st), nil
}

func (s *Service) Pause() (string, *dbus.Error) {
	st := s.tracker.Pause()
	log.Println("Pause requested, now", st.Mode)
	return encodeStatus(st), nil
}

func (s *Service) Reset() (string, *dbus.Error) {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	st := s.tracker.Reset()
	s.ticker.Stop()
	log.Println("Timer reset")
	return encodeStatus(st), nil
}

func (s *Service) Status() (string, *dbus.Error) {
	return encodeStatus(s.tracker.Status()), nil
}

func (s *Service) Preview(topic string) (string, *dbus.Error) {
	rec, err := s.tracker.Preview(topic)
	if err != nil {
		return "", toDBusError(err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

func (s *Service) Save(topic string) (string, *dbus.Error) {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	rec, err := s.tracker.Save(topic)
	if err != nil {
		log.Println("Failed to save session:", err)
		return "", toDBusError(err)
	}
	s.ticker.Stop()

	log.Printf("Saved session %s (%s): study %s, rest %s", rec.ID, rec.Topic, rec.StudyDuration, rec.RestDuration)
	data, err := json.Marshal(rec)
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

func (s *Service) History() (string, *dbus.Error) {
	data, err := json.Marshal(s.tracker.History())
	if err != nil {
		return "", toDBusError(err)
	}
	return string(data), nil
}

func (s *Service) Delete(id string) *dbus.Error {
	if err := s.tracker.Delete(id); err != nil {
		log.Println("Failed to delete session:", err)
		return toDBusError(err)
	}
	log.Println("Deleted session", id)
	return nil
}

// tick refreshes listeners and fires break reminders.
func (s *Service) tick(time.Time) {
	st := s.tracker.Status()
	if s.emitter != nil {
		if err := s.emitter.Emit(dbus.ObjectPath(ObjectPath), TickSignal, encodeStatus(st)); err != nil {
			log.Println("Failed to emit tick:", err)
		}
	}

	if s.cfg.Notifier == nil {
		return
	}

	state := s.tracker.State()
	s.mu.Lock()
	due := reminder.Due(state, st.At, s.cfg.StudyReminder, s.lastReminder)
	if due {
		s.lastReminder = st.At
	}
	s.mu.Unlock()

	if due {
		if err := s.cfg.Notifier.Notify("Time for a break", reminder.Message(st.Phase)); err != nil {
			log.Println("Failed to send reminder:", err)
		}
	}
}
