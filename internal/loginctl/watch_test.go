package loginctl

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	session := dbus.ObjectPath("/org/freedesktop/login1/session/_32")

	lockedChange := func(locked bool) []interface{} {
		return []interface{}{
			sessionIface,
			map[string]dbus.Variant{"LockedHint": dbus.MakeVariant(locked)},
			[]string{},
		}
	}

	tests := []struct {
		name    string
		sig     *dbus.Signal
		want    Trigger
		wantHit bool
	}{
		{
			name:    "going to sleep",
			sig:     &dbus.Signal{Name: prepareForSleep, Body: []interface{}{true}},
			want:    Trigger{Reason: ReasonSleep},
			wantHit: true,
		},
		{
			name: "waking up",
			sig:  &dbus.Signal{Name: prepareForSleep, Body: []interface{}{false}},
		},
		{
			name: "sleep without body",
			sig:  &dbus.Signal{Name: prepareForSleep},
		},
		{
			name:    "session locked",
			sig:     &dbus.Signal{Name: propertiesChanged, Path: session, Body: lockedChange(true)},
			want:    Trigger{Reason: ReasonLock, Session: session},
			wantHit: true,
		},
		{
			name: "session unlocked",
			sig:  &dbus.Signal{Name: propertiesChanged, Path: session, Body: lockedChange(false)},
		},
		{
			name: "other property",
			sig: &dbus.Signal{Name: propertiesChanged, Path: session, Body: []interface{}{
				sessionIface,
				map[string]dbus.Variant{"IdleHint": dbus.MakeVariant(true)},
			}},
		},
		{
			name: "other interface",
			sig: &dbus.Signal{Name: propertiesChanged, Body: []interface{}{
				"org.freedesktop.NetworkManager",
				map[string]dbus.Variant{"LockedHint": dbus.MakeVariant(true)},
			}},
		},
		{
			name: "unrelated signal",
			sig:  &dbus.Signal{Name: managerIface + ".SessionNew", Body: []interface{}{"2", session}},
		},
		{
			name: "nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := Classify(tt.sig)
			assert.Equal(t, tt.wantHit, hit)
			assert.Equal(t, tt.want, got)
		})
	}
}
