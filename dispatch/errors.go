package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPlayersFound is returned when no player matches the selection.
	ErrNoPlayersFound = errors.New("No players found")
	// ErrNoPlayerCanHandle is returned when players matched but none of them
	// could run the command.
	ErrNoPlayerCanHandle = errors.New("No player could handle this command")
	// ErrOutputClosed ends follow mode when stdout goes away.
	ErrOutputClosed = errors.New("output closed")
)

// PlayerUnavailableError is returned when a player left the bus or stopped
// answering while a command was sent to it.
type PlayerUnavailableError struct {
	Instance string
	Err      error
}

func (e *PlayerUnavailableError) Error() string {
	return fmt.Sprintf("player %s is unavailable: %v", e.Instance, e.Err)
}

func (e *PlayerUnavailableError) Unwrap() error { return e.Err }

// InvalidArgumentError reports a malformed command line.
type InvalidArgumentError struct {
	Arg    string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	if e.Arg == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Arg
}

// IsNoPlayer reports whether err belongs to the "nothing to act on" class
// that --no-messages silences.
func IsNoPlayer(err error) bool {
	return errors.Is(err, ErrNoPlayersFound) || errors.Is(err, ErrNoPlayerCanHandle)
}
