package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/format"
	"github.com/b0bbywan/go-playerctl/logger"
	"github.com/b0bbywan/go-playerctl/registry"
)

// follower writes follow output, skipping lines equal to the previous one.
type follower struct {
	w    io.Writer
	last string
}

func (f *follower) print(out string) error {
	if out == f.last {
		return nil
	}
	if _, err := io.WriteString(f.w, out); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputClosed, err)
	}
	f.last = out
	return nil
}

// clear prints an empty line once the last answering player is gone.
func (f *follower) clear() error {
	if f.last == "" {
		return nil
	}
	return f.print("\n")
}

// Follow renders cmd for the initial snapshot, then again on every registry
// notification, until ctx is done or updates is closed.
func (d *Dispatcher) Follow(ctx context.Context, initial registry.Snapshot, updates <-chan events.Event, cmd *Command, args []string) error {
	if !cmd.Follow {
		return &InvalidArgumentError{Arg: cmd.Name, Reason: "follow is not supported on command"}
	}
	if cmd.Setter && len(args) > 0 {
		return &InvalidArgumentError{Arg: cmd.Name, Reason: "follow is not supported when setting a value on command"}
	}
	if err := cmd.Check(args, d.tmpl != nil); err != nil {
		return err
	}

	f := &follower{w: d.out}
	if err := d.followOnce(ctx, f, initial, cmd, args); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-updates:
			if !ok {
				return nil
			}
			if e.Type != events.TypeStackChanged && e.Type != events.TypePlayerUpdated {
				continue
			}
			n, ok := e.Data.(registry.Notification)
			if !ok {
				logger.Warn("[dispatch] unexpected %s payload %T", e.Type, e.Data)
				continue
			}
			if err := d.followOnce(ctx, f, n.Snapshot, cmd, args); err != nil {
				return err
			}
		}
	}
}

// followOnce prints the output of the first candidate that answers.
func (d *Dispatcher) followOnce(ctx context.Context, f *follower, snap registry.Snapshot, cmd *Command, args []string) error {
	for _, p := range d.followCandidates(snap) {
		out, ok, err := d.runOne(ctx, p, cmd, args)
		if err != nil {
			if isFormatError(err) {
				return err
			}
			logger.Warn("[dispatch] %s: %v", p.Instance, err)
			continue
		}
		if ok {
			return f.print(out)
		}
	}
	return f.clear()
}

func isFormatError(err error) bool {
	var (
		parseErr *format.ParseError
		fnErr    *format.UnknownFunctionError
		arityErr *format.ArityError
		emojiErr *format.InvalidEmojiArgumentError
		evalErr  *format.EvalError
	)
	return errors.As(err, &parseErr) || errors.As(err, &fnErr) || errors.As(err, &arityErr) ||
		errors.As(err, &emojiErr) || errors.As(err, &evalErr)
}
