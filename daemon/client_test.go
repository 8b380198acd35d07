package daemon

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestActivationMessage(t *testing.T) {
	tests := []struct {
		reply uint32
		want  string
	}{
		{startReplySuccess, "playerctld successfully started with DBus service activation"},
		{startReplyAlreadyRunning, "playerctld DBus service is already running"},
		{7, "playerctld DBus service activation returned an unknown result"},
	}
	for _, tt := range tests {
		if got := activationMessage(tt.reply); got != tt.want {
			t.Errorf("activationMessage(%d) = %q, want %q", tt.reply, got, tt.want)
		}
	}
}

func TestDBusErrorRoundTrip(t *testing.T) {
	dErr := toDBusError(&NoActivePlayerError{})
	if dErr.Name != ERR_NO_ACTIVE_PLAYER {
		t.Fatalf("name = %s", dErr.Name)
	}

	var noActive *NoActivePlayerError
	if !errors.As(fromDBusError(*dErr), &noActive) {
		t.Errorf("fromDBusError(value) = %v, want NoActivePlayerError", fromDBusError(*dErr))
	}
	if !errors.As(fromDBusError(dErr), &noActive) {
		t.Errorf("fromDBusError(pointer) = %v, want NoActivePlayerError", fromDBusError(dErr))
	}

	other := dbus.Error{Name: "org.freedesktop.DBus.Error.ServiceUnknown"}
	if got := fromDBusError(other); !errors.Is(got, other) {
		t.Errorf("fromDBusError(other) = %v, want it unchanged", got)
	}

	if got := toDBusError(errors.New("boom")); got.Name != "org.freedesktop.DBus.Error.Failed" {
		t.Errorf("toDBusError(plain) name = %s", got.Name)
	}
	if toDBusError(nil) != nil {
		t.Error("toDBusError(nil) should be nil")
	}
}
