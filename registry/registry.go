// Package registry keeps the ordered stack of players and decides which one
// is active. A single goroutine (Run) owns the stack; everything else talks
// to it through messages.
package registry

import (
	"context"
	"errors"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
	"github.com/b0bbywan/go-playerctl/selection"
)

// ErrStopped is returned by requests made after Run returned.
var ErrStopped = errors.New("registry is not running")

// Notification is the payload of TypeStackChanged and TypePlayerUpdated.
type Notification struct {
	Snapshot Snapshot
	// Instance is the player the event was about, empty for shift, unshift
	// and ignore list changes.
	Instance string
	// Keys lists the properties of Instance that changed.
	Keys []string
	// Seeked is set when the position moved because of a Seeked signal.
	Seeked bool
}

type appearMsg struct{ name mpris.PlayerName }
type loadMsg struct{ player *mpris.Player }
type vanishMsg struct{ busName string }
type changeMsg struct{ ev mpris.PropertiesEvent }
type positionMsg struct {
	ev     mpris.PositionEvent
	seeked bool
}
type ignoreMsg struct{ names []string }
type rotateMsg struct {
	forward bool
	reply   chan rotateResult
}
type snapshotMsg struct{ reply chan Snapshot }

type rotateResult struct {
	busName string
	err     error
}

// Registry is the reactor around a Stack.
type Registry struct {
	inbox  chan any
	notify chan events.Event
	done   chan struct{}

	// reactor state, only touched by Run
	stack *Stack
	// pending holds players between Appear and Load, with the change
	// batches that arrived meanwhile.
	pending map[string][]mpris.PropertiesEvent
	ignore  []string
}

// New creates a registry. ignore lists player names that are never managed.
func New(ignore []string) *Registry {
	return &Registry{
		inbox:   make(chan any, 64),
		notify:  make(chan events.Event, 64),
		done:    make(chan struct{}),
		stack:   NewStack(),
		pending: make(map[string][]mpris.PropertiesEvent),
		ignore:  ignore,
	}
}

// Notifications delivers one event per processed message that changed
// something, in processing order.
func (r *Registry) Notifications() <-chan events.Event {
	return r.notify
}

// Run processes messages until ctx is done. It closes the notification
// channel on return.
func (r *Registry) Run(ctx context.Context) {
	defer close(r.notify)
	defer close(r.done)

	logger.Debug("[registry] started")
	for {
		select {
		case <-ctx.Done():
			logger.Debug("[registry] stopped")
			return
		case msg := <-r.inbox:
			if e, ok := r.handle(msg); ok {
				select {
				case r.notify <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (r *Registry) send(ctx context.Context, msg any) error {
	select {
	case r.inbox <- msg:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Appear announces a player that showed up on the bus. It enters the stack
// once Load delivers its properties.
func (r *Registry) Appear(ctx context.Context, name mpris.PlayerName) error {
	return r.send(ctx, appearMsg{name: name})
}

// Load hands over a fully loaded player announced by Appear.
func (r *Registry) Load(ctx context.Context, p *mpris.Player) error {
	return r.send(ctx, loadMsg{player: p})
}

// Vanish removes a player that left the bus.
func (r *Registry) Vanish(ctx context.Context, busName string) error {
	return r.send(ctx, vanishMsg{busName: busName})
}

// Change applies a PropertiesChanged batch.
func (r *Registry) Change(ctx context.Context, ev mpris.PropertiesEvent) error {
	return r.send(ctx, changeMsg{ev: ev})
}

// Position records a position update. seeked tells a Seeked signal apart
// from a poll.
func (r *Registry) Position(ctx context.Context, ev mpris.PositionEvent, seeked bool) error {
	return r.send(ctx, positionMsg{ev: ev, seeked: seeked})
}

// SetIgnore replaces the ignore list and drops newly ignored players.
func (r *Registry) SetIgnore(ctx context.Context, names []string) error {
	return r.send(ctx, ignoreMsg{names: append([]string(nil), names...)})
}

// Shift makes the next player active and returns its bus name.
func (r *Registry) Shift(ctx context.Context) (string, error) {
	return r.rotate(ctx, true)
}

// Unshift makes the last player active and returns its bus name.
func (r *Registry) Unshift(ctx context.Context) (string, error) {
	return r.rotate(ctx, false)
}

func (r *Registry) rotate(ctx context.Context, forward bool) (string, error) {
	reply := make(chan rotateResult, 1)
	if err := r.send(ctx, rotateMsg{forward: forward, reply: reply}); err != nil {
		return "", err
	}
	select {
	case res := <-reply:
		return res.busName, res.err
	case <-r.done:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Snapshot returns a copy of the current stack.
func (r *Registry) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := r.send(ctx, snapshotMsg{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// handle applies one message to the stack and returns the notification it
// produced, if any.
func (r *Registry) handle(msg any) (events.Event, bool) {
	switch m := msg.(type) {
	case appearMsg:
		if selection.Ignored(r.ignore, m.name.Instance) {
			logger.Debug("[registry] ignoring %s", m.name.Instance)
			return events.Event{}, false
		}
		r.pending[m.name.BusName] = nil
		return events.Event{}, false

	case loadMsg:
		queued, ok := r.pending[m.player.BusName]
		if !ok {
			// vanished or ignored while loading
			return events.Event{}, false
		}
		delete(r.pending, m.player.BusName)
		for _, ev := range queued {
			m.player.Apply(ev.Interface, ev.Changed, ev.Invalidated)
		}
		r.stack.Push(m.player)
		logger.Debug("[registry] %s added, stack: %v", m.player.Instance, r.stack.order)
		return r.stackChanged(m.player.Instance, nil), true

	case vanishMsg:
		delete(r.pending, m.busName)
		p, ok := r.stack.GetByBusName(m.busName)
		if !ok || !r.stack.Remove(p.Instance) {
			return events.Event{}, false
		}
		logger.Debug("[registry] %s removed, stack: %v", p.Instance, r.stack.order)
		return r.stackChanged(p.Instance, nil), true

	case changeMsg:
		p, ok := r.stack.GetByBusName(m.ev.BusName)
		if !ok {
			if queued, loading := r.pending[m.ev.BusName]; loading {
				r.pending[m.ev.BusName] = append(queued, m.ev)
			}
			return events.Event{}, false
		}
		change := p.Apply(m.ev.Interface, m.ev.Changed, m.ev.Invalidated)
		if change.Promotes() && r.stack.Promote(p.Instance) {
			logger.Debug("[registry] %s promoted, stack: %v", p.Instance, r.stack.order)
			return r.stackChanged(p.Instance, change.Keys), true
		}
		if change.Observable() {
			return r.playerUpdated(p.Instance, change.Keys, false), true
		}
		return events.Event{}, false

	case positionMsg:
		p, ok := r.stack.GetByBusName(m.ev.BusName)
		if !ok || !p.SetPosition(m.ev.Position) {
			return events.Event{}, false
		}
		return r.playerUpdated(p.Instance, []string{mpris.PropPosition}, m.seeked), true

	case ignoreMsg:
		r.ignore = m.names
		removed := false
		for _, instance := range r.stack.Instances() {
			if selection.Ignored(r.ignore, instance) {
				r.stack.Remove(instance)
				removed = true
			}
		}
		if !removed {
			return events.Event{}, false
		}
		return r.stackChanged("", nil), true

	case rotateMsg:
		var instance string
		var err error
		if m.forward {
			instance, err = r.stack.Shift()
		} else {
			instance, err = r.stack.Unshift()
		}
		if err != nil {
			m.reply <- rotateResult{err: err}
			return events.Event{}, false
		}
		head, _ := r.stack.Get(instance)
		m.reply <- rotateResult{busName: head.BusName}
		if r.stack.Len() < 2 {
			return events.Event{}, false
		}
		return r.stackChanged("", nil), true

	case snapshotMsg:
		m.reply <- r.stack.Snapshot()
		return events.Event{}, false
	}

	logger.Warn("[registry] unexpected message %T", msg)
	return events.Event{}, false
}

func (r *Registry) stackChanged(instance string, keys []string) events.Event {
	return events.Event{
		Type: events.TypeStackChanged,
		Data: Notification{Snapshot: r.stack.Snapshot(), Instance: instance, Keys: keys},
	}
}

func (r *Registry) playerUpdated(instance string, keys []string, seeked bool) events.Event {
	return events.Event{
		Type: events.TypePlayerUpdated,
		Data: Notification{Snapshot: r.stack.Snapshot(), Instance: instance, Keys: keys, Seeked: seeked},
	}
}
