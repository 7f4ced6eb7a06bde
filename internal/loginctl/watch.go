// Package loginctl listens to systemd-logind on the system bus and reports
// when the study timer should pause by itself.
package loginctl

import (
	"context"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
)

const (
	login1Dest      = "org.freedesktop.login1"
	login1Path      = "/org/freedesktop/login1"
	managerIface    = "org.freedesktop.login1.Manager"
	sessionIface    = "org.freedesktop.login1.Session"
	propertiesIface = "org.freedesktop.DBus.Properties"

	prepareForSleep   = managerIface + ".PrepareForSleep"
	propertiesChanged = propertiesIface + ".PropertiesChanged"
)

const (
	ReasonSleep = "system is going to sleep"
	ReasonLock  = "session locked"
)

// Trigger is what a logind signal asks of the timer.
type Trigger struct {
	Reason string
	// Session is set when the trigger only applies to the owner of that
	// session.
	Session dbus.ObjectPath
}

// Classify decides whether sig should pause the timer. Waking up and
// unlocking never resume it.
func Classify(sig *dbus.Signal) (Trigger, bool) {
	if sig == nil {
		return Trigger{}, false
	}

	switch sig.Name {
	case prepareForSleep:
		if len(sig.Body) == 0 {
			return Trigger{}, false
		}
		sleeping, _ := sig.Body[0].(bool)
		if !sleeping {
			return Trigger{}, false
		}
		return Trigger{Reason: ReasonSleep}, true

	case propertiesChanged:
		if len(sig.Body) < 2 {
			return Trigger{}, false
		}
		iface, ok := sig.Body[0].(string)
		if !ok || iface != sessionIface {
			return Trigger{}, false
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return Trigger{}, false
		}
		val, exists := changed["LockedHint"]
		if !exists {
			return Trigger{}, false
		}
		if locked, _ := val.Value().(bool); !locked {
			return Trigger{}, false
		}
		return Trigger{Reason: ReasonLock, Session: sig.Path}, true
	}

	return Trigger{}, false
}

// Watch calls onPause whenever the machine is about to sleep or one of
// username's sessions gets locked. It returns when ctx is done.
func Watch(ctx context.Context, conn *dbus.Conn, username string, onPause func(reason string)) error {
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface(managerIface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}

	// watch for property changes (session locked)
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	defer conn.RemoveSignal(c)

	for {
		select {
		case sig := <-c:
			trig, ok := Classify(sig)
			if !ok {
				break
			}

			if trig.Session != "" {
				owner, err := getUsernameFromSession(conn, trig.Session)
				if err != nil {
					log.Println("LockedHint: failed to get username:", err)
					break
				}
				if owner != username {
					break
				}
			}

			log.Println("Auto-pause:", trig.Reason)
			onPause(trig.Reason)
		case <-ctx.Done():
			return nil
		}
	}
}

func getUsernameFromSession(conn *dbus.Conn, sessionPath dbus.ObjectPath) (string, error) {
	sessionObj := conn.Object(login1Dest, sessionPath)

	var userInfo []interface{}
	err := sessionObj.Call(propertiesIface+".Get", 0, sessionIface, "User").Store(&userInfo)
	if err != nil || len(userInfo) < 2 {
		return "", fmt.Errorf("failed to get user info: %w", err)
	}
	userPath, ok := userInfo[1].(dbus.ObjectPath)
	if !ok {
		return "", fmt.Errorf("failed to get user object path")
	}

	userObj := conn.Object(login1Dest, userPath)
	var username dbus.Variant
	err = userObj.Call(propertiesIface+".Get", 0, "org.freedesktop.login1.User", "Name").Store(&username)
	if err != nil {
		return "", fmt.Errorf("failed to get username: %w", err)
	}
	name, ok := username.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected type for user name")
	}
	return name, nil
}
