// Package dispatch runs playerctl commands against an ordered list of
// candidate players.
package dispatch

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
	"github.com/b0bbywan/go-playerctl/format"
	"github.com/b0bbywan/go-playerctl/logger"
	"github.com/b0bbywan/go-playerctl/registry"
	"github.com/b0bbywan/go-playerctl/selection"
)

// Controller sends commands to players on the bus. *mpris.MPRISBackend
// implements it.
type Controller interface {
	Play(ctx context.Context, p *mpris.Player) error
	Pause(ctx context.Context, p *mpris.Player) error
	PlayPause(ctx context.Context, p *mpris.Player) error
	Stop(ctx context.Context, p *mpris.Player) error
	Next(ctx context.Context, p *mpris.Player) error
	Previous(ctx context.Context, p *mpris.Player) error
	Seek(ctx context.Context, p *mpris.Player, offset int64) error
	SetPosition(ctx context.Context, p *mpris.Player, position int64) error
	OpenUri(ctx context.Context, p *mpris.Player, uri string) error
	SetVolume(ctx context.Context, p *mpris.Player, volume float64) error
	SetLoopStatus(ctx context.Context, p *mpris.Player, status mpris.LoopStatus) error
	SetShuffle(ctx context.Context, p *mpris.Player, shuffle bool) error
}

var _ Controller = (*mpris.MPRISBackend)(nil)

// Dispatcher runs commands and writes their output.
type Dispatcher struct {
	ctrl Controller
	tmpl *format.Template
	sel  selection.Spec
	out  io.Writer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTemplate replaces the default query output with a format template.
func WithTemplate(t *format.Template) Option {
	return func(d *Dispatcher) {
		d.tmpl = t
	}
}

// WithSelection sets the players follow mode resolves from each snapshot.
// It also enables --all-players when spec.All is set.
func WithSelection(spec selection.Spec) Option {
	return func(d *Dispatcher) {
		d.sel = spec
	}
}

// WithOutput redirects command output, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(d *Dispatcher) {
		d.out = w
	}
}

// New creates a dispatcher.
func New(ctrl Controller, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ctrl: ctrl,
		out:  os.Stdout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) render(p *mpris.Player) (string, bool, error) {
	s, err := d.tmpl.Render(p)
	if err != nil {
		return "", false, err
	}
	return s + "\n", true, nil
}

// Candidates resolves the selection against a registry snapshot.
func (d *Dispatcher) Candidates(snap registry.Snapshot) []*mpris.Player {
	names := selection.Resolve(d.sel, snap.Instances())
	players := make([]*mpris.Player, 0, len(names))
	for _, name := range names {
		if p, ok := snap.Get(name); ok {
			players = append(players, p)
		}
	}
	return players
}

// followCandidates is Candidates for follow mode. With --all-players the
// pattern priority is dropped and the most recently active selected player
// comes first.
func (d *Dispatcher) followCandidates(snap registry.Snapshot) []*mpris.Player {
	if !d.sel.All {
		return d.Candidates(snap)
	}
	selected := make(map[string]bool)
	for _, name := range selection.Resolve(d.sel, snap.Instances()) {
		selected[name] = true
	}
	var players []*mpris.Player
	for _, name := range snap.Instances() {
		if !selected[name] {
			continue
		}
		if p, ok := snap.Get(name); ok {
			players = append(players, p)
		}
	}
	return players
}

// Run executes cmd on the candidates in order. A candidate that lacks the
// needed capability or property is skipped. The first success ends the run
// unless all players were selected.
func (d *Dispatcher) Run(ctx context.Context, candidates []*mpris.Player, cmd *Command, args []string) error {
	if err := cmd.Check(args, d.tmpl != nil); err != nil {
		return err
	}
	if len(candidates) == 0 {
		return ErrNoPlayersFound
	}

	handled := false
	for _, p := range candidates {
		out, ok, err := d.runOne(ctx, p, cmd, args)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		handled = true
		if out != "" {
			if _, err := io.WriteString(d.out, out); err != nil {
				return err
			}
		}
		if !d.sel.All {
			break
		}
	}

	if !handled {
		return ErrNoPlayerCanHandle
	}
	return nil
}

// runOne turns capability refusals into a skip and bus failures of a
// departed player into PlayerUnavailableError.
func (d *Dispatcher) runOne(ctx context.Context, p *mpris.Player, cmd *Command, args []string) (string, bool, error) {
	out, ok, err := cmd.run(ctx, d, p, args)
	if err == nil {
		return out, ok, nil
	}

	var capErr *mpris.CapabilityError
	if errors.As(err, &capErr) {
		logger.Debug("[dispatch] %s: %v, skipping", p.Instance, err)
		return "", false, nil
	}
	if mpris.IsUnavailable(err) {
		return "", false, &PlayerUnavailableError{Instance: p.Instance, Err: err}
	}
	return "", false, err
}
