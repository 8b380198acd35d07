package mpris

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-playerctl/backend/internal/dbus"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
)

// NewListener creates a new MPRIS listener
func NewListener(backend *MPRISBackend) *Listener {
	ctx, cancel := context.WithCancel(backend.ctx)

	return &Listener{
		backend:   backend,
		ctx:       ctx,
		cancel:    cancel,
		lastState: make(map[string]PlaybackStatus),
	}
}

// Start starts listening to MPRIS D-Bus signals
func (l *Listener) Start() error {
	ch, err := l.backend.bus.Subscribe(l.ctx)
	if err != nil {
		return err
	}

	go l.listen(ch)

	logger.Info("[mpris] listener started (D-Bus signal-based)")
	return nil
}

// listen continuously listens to D-Bus signals
func (l *Listener) listen(ch <-chan *dbus.Signal) {
	for {
		select {
		case <-l.ctx.Done():
			return
		case sig, ok := <-ch:
			if !ok {
				return
			}
			logger.Debug("[mpris] received signal: %s from %s", sig.Name, sig.Sender)
			l.handleSignal(sig)
		}
	}
}

// handleSignal processes a D-Bus signal
func (l *Listener) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case DBUS_PROP_CHANGED_SIGNAL:
		l.handlePropertiesChanged(sig)
	case DBUS_NAME_OWNER_CHANGED:
		l.handleNameOwnerChanged(sig)
	case MPRIS_SEEKED_SIGNAL:
		l.handleSeeked(sig)
	default:
		logger.Debug("[mpris] unhandled signal: %s", sig.Name)
	}
}

// handlePropertiesChanged forwards property changes of the Player and root
// interfaces. The sender is a unique name; it is attributed to every
// well-known name that connection owns.
func (l *Listener) handlePropertiesChanged(sig *dbus.Signal) {
	if sig.Path != MPRIS_PATH {
		return
	}
	changed, iface, invalidated, err := idbus.FilterSignal(sig)
	if err != nil {
		logger.Debug("[mpris] ignoring malformed PropertiesChanged: %v", err)
		return
	}
	if iface != MPRIS_PLAYER_IFACE && iface != MPRIS_INTERFACE {
		return
	}

	busNames := l.backend.namesOwnedBy(sig.Sender)
	if len(busNames) == 0 {
		return
	}

	if iface == MPRIS_PLAYER_IFACE {
		if statusVar, ok := changed[PropPlaybackStatus]; ok {
			if status, ok := idbus.ExtractString(statusVar); ok {
				for _, busName := range busNames {
					l.setState(busName, PlaybackStatus(status))
				}
			}
		}
	}

	for _, busName := range busNames {
		logger.Debug("[mpris] %s changed %v", busName, idbus.Keys(changed))
		l.backend.emit(events.Event{
			Type: events.TypePlayerChanged,
			Data: PropertiesEvent{
				BusName:     busName,
				Interface:   iface,
				Changed:     changed,
				Invalidated: invalidated,
			},
		})
	}
}

// handleSeeked forwards the position carried by a Seeked signal
func (l *Listener) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}
	position, ok := idbus.ExtractInt64(dbus.MakeVariant(sig.Body[0]))
	if !ok {
		return
	}
	for _, busName := range l.backend.namesOwnedBy(sig.Sender) {
		l.backend.emit(events.Event{
			Type: events.TypePlayerSeeked,
			Data: PositionEvent{BusName: busName, Position: position},
		})
	}
}

// handleNameOwnerChanged detects when a player appears or disappears
func (l *Listener) handleNameOwnerChanged(sig *dbus.Signal) {
	// Body[0] = bus name
	// Body[1] = old owner
	// Body[2] = new owner

	if len(sig.Body) < 3 {
		return
	}

	busName, ok := sig.Body[0].(string)
	if !ok || !strings.HasPrefix(busName, MPRIS_PREFIX+".") {
		return
	}
	if isExcluded(busName, l.backend.exclude) || validateBusName(busName) != nil {
		return
	}

	oldOwner, _ := sig.Body[1].(string)
	newOwner, _ := sig.Body[2].(string)

	if oldOwner != "" {
		logger.Info("[mpris] player removed: %s", busName)
		l.backend.TrackOwner(busName, "")
		l.forget(busName)
		l.backend.emit(events.Event{
			Type: events.TypePlayerVanished,
			Data: NameEvent{BusName: busName, Owner: oldOwner},
		})
	}
	if newOwner != "" {
		logger.Info("[mpris] new player detected: %s", busName)
		l.backend.TrackOwner(busName, newOwner)
		l.backend.emit(events.Event{
			Type: events.TypePlayerAppeared,
			Data: NameEvent{BusName: busName, Owner: newOwner},
		})
	}
}

// setState remembers the last playback status of a player and wakes the
// heartbeat when it starts playing.
func (l *Listener) setState(busName string, status PlaybackStatus) {
	l.lastStateMu.Lock()
	last := l.lastState[busName]
	l.lastState[busName] = status
	l.lastStateMu.Unlock()

	if last == status {
		return
	}
	logger.Debug("[mpris] player %s changed status: %s -> %s", busName, last, status)
	if status == StatusPlaying && l.backend.heartbeat != nil {
		l.backend.heartbeat.Start()
	}
}

func (l *Listener) forget(busName string) {
	l.lastStateMu.Lock()
	delete(l.lastState, busName)
	l.lastStateMu.Unlock()
}

// playing lists the players last seen Playing.
func (l *Listener) playing() []string {
	l.lastStateMu.RLock()
	defer l.lastStateMu.RUnlock()

	var names []string
	for busName, status := range l.lastState {
		if status == StatusPlaying {
			names = append(names, busName)
		}
	}
	return names
}

// Stop stops the listener
func (l *Listener) Stop() {
	logger.Info("[mpris] stopping listener")
	l.cancel()
	logger.Debug("[mpris] listener stopped")
}
