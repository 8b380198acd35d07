package cli

import "errors"

// errSilent ends a run with exit status 1 without printing anything more.
var errSilent = errors.New("silent failure")

// commandError is a failure while preparing or running a player command.
type commandError struct {
	err error
}

func (e *commandError) Error() string {
	return "Could not execute command: " + e.err.Error()
}

func (e *commandError) Unwrap() error { return e.err }

// prefixError prints as "prefix: err" while keeping err reachable.
type prefixError struct {
	prefix string
	err    error
}

func (e *prefixError) Error() string {
	return e.prefix + ": " + e.err.Error()
}

func (e *prefixError) Unwrap() error { return e.err }
