package dbus

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// TimeoutError is returned when a D-Bus call exceeds its deadline.
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return "dbus: call timed out" }

// SignalError is returned when a D-Bus signal body is malformed.
type SignalError struct {
	Reason string
}

func (e *SignalError) Error() string { return fmt.Sprintf("dbus: signal error: %s", e.Reason) }

// ErrorName returns the D-Bus error name carried by err, or "".
func ErrorName(err error) string {
	var dErr dbus.Error
	if errors.As(err, &dErr) {
		return dErr.Name
	}
	var pErr *dbus.Error
	if errors.As(err, &pErr) && pErr != nil {
		return pErr.Name
	}
	return ""
}

// IsPeerGone reports whether err means the remote peer left the bus or never answered.
func IsPeerGone(err error) bool {
	var timeout *TimeoutError
	if errors.As(err, &timeout) {
		return true
	}
	switch ErrorName(err) {
	case ERR_SERVICE_UNKNOWN, ERR_NAME_HAS_NO_OWNER, ERR_NO_REPLY:
		return true
	}
	return false
}
