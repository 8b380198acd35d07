package mpris

import (
	"errors"
	"fmt"

	idbus "github.com/b0bbywan/go-playerctl/backend/internal/dbus"
)

// CapabilityError indicates that the player does not advertise the
// capability an action needs
type CapabilityError struct {
	Player   string
	Required string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: action not allowed (requires %s)", e.Player, e.Required)
}

// PlayerNotFoundError indicates that a player doesn't exist
type PlayerNotFoundError struct {
	BusName string
}

func (e *PlayerNotFoundError) Error() string {
	return "player not found: " + e.BusName
}

// InvalidBusNameError indicates that a busName is not an MPRIS name
type InvalidBusNameError struct {
	BusName string
	Reason  string
}

func (e *InvalidBusNameError) Error() string {
	return fmt.Sprintf("invalid player name %q: %s", e.BusName, e.Reason)
}

// ValidationError indicates that a parameter is invalid
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// IsUnavailable reports whether err means the player left the bus or stopped
// answering.
func IsUnavailable(err error) bool {
	var notFound *PlayerNotFoundError
	return errors.As(err, &notFound) || idbus.IsPeerGone(err)
}
