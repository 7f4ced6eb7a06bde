package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	appName       = "StudyTimer"
	notifyDest    = "org.freedesktop.Notifications"
	notifyPath    = "/org/freedesktop/Notifications"
	notifyMethod  = "org.freedesktop.Notifications.Notify"
	expireTimeout = int32(10000)
)

// Sender delivers a desktop notification.
type Sender interface {
	Notify(summary, body string) error
}

// Notifier sends notifications on the session bus the daemon runs on.
type Notifier struct {
	conn *dbus.Conn
	// id of the last notification, so a new one replaces it
	lastID uint32
}

func New(conn *dbus.Conn) *Notifier {
	return &Notifier{conn: conn}
}

func (n *Notifier) Notify(summary, body string) error {
	obj := n.conn.Object(notifyDest, notifyPath)
	call := obj.Call(notifyMethod, 0,
		appName,
		n.lastID, // replaces_id
		"appointment-soon",
		summary,
		body,
		[]string{},
		map[string]dbus.Variant{
			"urgency": dbus.MakeVariant(byte(1)), // normal urgency
		},
		expireTimeout,
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err == nil {
		n.lastID = id
	}
	return nil
}
