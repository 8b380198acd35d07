package daemon

import (
	"errors"

	"github.com/godbus/dbus/v5"
)

// ErrAlreadyRunning is returned by Acquire when another process owns BusName.
var ErrAlreadyRunning = errors.New("playerctld is already running")

// NoActivePlayerError indicates that the daemon manages no player.
type NoActivePlayerError struct{}

func (e *NoActivePlayerError) Error() string {
	return "No player is being controlled by playerctld"
}

// toDBusError converts err into the reply error of an exported method.
func toDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	var noActive *NoActivePlayerError
	if errors.As(err, &noActive) {
		return dbus.NewError(ERR_NO_ACTIVE_PLAYER, []interface{}{noActive.Error()})
	}
	var dErr dbus.Error
	if errors.As(err, &dErr) {
		return &dErr
	}
	var pErr *dbus.Error
	if errors.As(err, &pErr) && pErr != nil {
		return pErr
	}
	return dbus.MakeFailedError(err)
}

// fromDBusError turns the daemon's own error names back into typed errors.
func fromDBusError(err error) error {
	var dErr dbus.Error
	if errors.As(err, &dErr) && dErr.Name == ERR_NO_ACTIVE_PLAYER {
		return &NoActivePlayerError{}
	}
	var pErr *dbus.Error
	if errors.As(err, &pErr) && pErr != nil && pErr.Name == ERR_NO_ACTIVE_PLAYER {
		return &NoActivePlayerError{}
	}
	return err
}
