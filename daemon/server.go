// Package daemon implements playerctld: a D-Bus service that tracks the
// player stack, proxies the MPRIS interfaces to the active player and
// exposes shift/unshift. It also holds the client side used by the CLI.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/multierr"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
	"github.com/b0bbywan/go-playerctl/registry"
)

// Conn is the part of a bus connection the server exports through.
// *dbus.Conn implements it.
type Conn interface {
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Players is the registry view the server needs.
type Players interface {
	Snapshot(ctx context.Context) (registry.Snapshot, error)
	Shift(ctx context.Context) (string, error)
	Unshift(ctx context.Context) (string, error)
}

var _ Players = (*registry.Registry)(nil)

type Server struct {
	ctx     context.Context
	conn    Conn
	bus     mpris.BusClient
	players Players
	timeout time.Duration

	mu sync.Mutex
	// last announced active player and stack, in bus names
	head  string
	names []string
}

// NewServer creates a server. bus carries the calls forwarded to players,
// conn is where the daemon's objects live; both may be the same connection.
func NewServer(ctx context.Context, conn Conn, bus mpris.BusClient, players Players, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Server{
		ctx:     ctx,
		conn:    conn,
		bus:     bus,
		players: players,
		timeout: timeout,
	}
}

// Export publishes every object and interface of the daemon.
func (s *Server) Export() error {
	exports := []struct {
		v     interface{}
		path  dbus.ObjectPath
		iface string
	}{
		{&rootObject{s}, MPRISPath, mpris.MPRIS_INTERFACE},
		{&playerObject{s}, MPRISPath, mpris.MPRIS_PLAYER_IFACE},
		{&propertiesObject{s}, MPRISPath, mpris.DBUS_PROP_IFACE},
		{&playerctldObject{s}, MPRISPath, Interface},
		{introspectable(MPRISPath), MPRISPath, INTROSPECTABLE_IFACE},
		{&playerctldObject{s}, ObjectPath, Interface},
		{&propertiesObject{s}, ObjectPath, mpris.DBUS_PROP_IFACE},
		{introspectable(ObjectPath), ObjectPath, INTROSPECTABLE_IFACE},
	}
	for _, e := range exports {
		if err := s.conn.Export(e.v, e.path, e.iface); err != nil {
			return fmt.Errorf("export %s on %s: %w", e.iface, e.path, err)
		}
	}
	return nil
}

// Acquire takes BusName. It fails with ErrAlreadyRunning when the name is
// owned by someone else.
func (s *Server) Acquire() error {
	reply, err := s.conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("could not acquire bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner && reply != dbus.RequestNameReplyAlreadyOwner {
		return fmt.Errorf("could not acquire bus name: %w", ErrAlreadyRunning)
	}
	logger.Info("[daemon] acquired %s", BusName)
	return nil
}

// Release gives BusName back.
func (s *Server) Release() error {
	_, err := s.conn.ReleaseName(BusName)
	return err
}

// Run re-emits registry notifications as the daemon's own signals until ctx
// is done or updates is closed. The current state is announced first.
func (s *Server) Run(ctx context.Context, updates <-chan events.Event) {
	if snap, err := s.players.Snapshot(ctx); err == nil {
		if err := s.Sync(snap); err != nil {
			logger.Warn("[daemon] could not announce active player: %v", err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-updates:
			if !ok {
				return
			}
			if err := s.Handle(e); err != nil {
				logger.Warn("[daemon] could not emit signals: %v", err)
			}
		}
	}
}

// Sync announces snap's active player unless it already was.
func (s *Server) Sync(snap registry.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sync(snap)
}

func (s *Server) sync(snap registry.Snapshot) error {
	head, _ := snap.Head()
	name := busNameOf(head)
	if name == s.head && s.names != nil {
		return nil
	}
	s.head = name
	s.names = busNames(snap)
	return s.emitActiveChanged(head)
}

// Handle emits the signals one registry notification implies.
func (s *Server) Handle(e events.Event) error {
	n, ok := e.Data.(registry.Notification)
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	head, hasHead := n.Snapshot.Head()
	if busNameOf(head) != s.head || s.names == nil {
		return s.sync(n.Snapshot)
	}

	var err error
	if names := busNames(n.Snapshot); !slices.Equal(names, s.names) {
		s.names = names
		err = multierr.Append(err, s.emitPlayerNames())
	}
	if !hasHead || n.Instance != head.Instance {
		return err
	}
	if n.Seeked {
		return multierr.Append(err, s.emitSeeked(head.Position))
	}
	return multierr.Append(err, s.emitChanged(head, n.Keys))
}

func (s *Server) emitActiveChanged(head *mpris.Player) error {
	name := busNameOf(head)
	logger.Debug("[daemon] active player is now %q", name)

	if err := s.conn.Emit(MPRISPath, SignalChangeBegin, name); err != nil {
		return err
	}

	var err error
	if head != nil {
		err = multierr.Combine(
			s.emitProperties(mpris.MPRIS_PLAYER_IFACE, head.Properties(mpris.MPRIS_PLAYER_IFACE), nil),
			s.emitProperties(mpris.MPRIS_INTERFACE, head.Properties(mpris.MPRIS_INTERFACE), nil),
			s.emitSeeked(s.position(head)),
		)
	} else {
		err = multierr.Combine(
			s.emitProperties(mpris.MPRIS_PLAYER_IFACE, nil, playerProperties),
			s.emitProperties(mpris.MPRIS_INTERFACE, nil, rootProperties),
		)
	}

	return multierr.Combine(
		err,
		s.emitPlayerNames(),
		s.conn.Emit(MPRISPath, SignalChangeEnd, name),
	)
}

// emitChanged re-emits the properties of the active player listed in keys,
// grouped by interface. Keys no longer cached are invalidated.
func (s *Server) emitChanged(head *mpris.Player, keys []string) error {
	player := head.Properties(mpris.MPRIS_PLAYER_IFACE)
	root := head.Properties(mpris.MPRIS_INTERFACE)

	playerChanged := make(map[string]dbus.Variant)
	rootChanged := make(map[string]dbus.Variant)
	var invalidated []string
	for _, key := range keys {
		if v, ok := player[key]; ok {
			playerChanged[key] = v
		} else if v, ok := root[key]; ok {
			rootChanged[key] = v
		} else {
			invalidated = append(invalidated, key)
		}
	}

	var err error
	if len(playerChanged) > 0 || len(invalidated) > 0 {
		err = multierr.Append(err, s.emitProperties(mpris.MPRIS_PLAYER_IFACE, playerChanged, invalidated))
	}
	if len(rootChanged) > 0 {
		err = multierr.Append(err, s.emitProperties(mpris.MPRIS_INTERFACE, rootChanged, nil))
	}
	return err
}

func (s *Server) emitProperties(iface string, changed map[string]dbus.Variant, invalidated []string) error {
	if changed == nil {
		changed = map[string]dbus.Variant{}
	}
	if invalidated == nil {
		invalidated = []string{}
	}
	return s.conn.Emit(MPRISPath, SIGNAL_PROPERTIES_CHANGED, iface, changed, invalidated)
}

func (s *Server) emitPlayerNames() error {
	return s.emitProperties(Interface, map[string]dbus.Variant{
		PropPlayerNames: dbus.MakeVariant(s.playerNames()),
	}, nil)
}

func (s *Server) emitSeeked(position int64) error {
	return s.conn.Emit(MPRISPath, SIGNAL_SEEKED, position)
}

func (s *Server) playerNames() []string {
	return append([]string{}, s.names...)
}

// position asks the new active player where it is, falling back to the
// cached value.
func (s *Server) position(head *mpris.Player) int64 {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	v, err := s.bus.Get(ctx, destination(head), mpris.MPRIS_PLAYER_IFACE, mpris.PropPosition)
	if err != nil {
		logger.Debug("[daemon] could not update position of %s: %v", head.BusName, err)
		return head.Position
	}
	if pos, ok := v.Value().(int64); ok {
		return pos
	}
	return head.Position
}

// active returns the player calls are forwarded to.
func (s *Server) active(ctx context.Context) (*mpris.Player, error) {
	snap, err := s.players.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	head, ok := snap.Head()
	if !ok {
		return nil, &NoActivePlayerError{}
	}
	return head, nil
}

func (s *Server) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, s.timeout)
}

// forward calls method on the active player.
func (s *Server) forward(method string, args ...interface{}) *dbus.Error {
	ctx, cancel := s.callCtx()
	defer cancel()

	head, err := s.active(ctx)
	if err != nil {
		return toDBusError(err)
	}
	logger.Debug("[daemon] forwarding %s to %s", method, head.BusName)
	return toDBusError(s.bus.Call(ctx, destination(head), method, args...))
}

func (s *Server) rotate(forward bool) (string, *dbus.Error) {
	ctx, cancel := s.callCtx()
	defer cancel()

	var name string
	var err error
	if forward {
		name, err = s.players.Shift(ctx)
	} else {
		name, err = s.players.Unshift(ctx)
	}
	if errors.Is(err, registry.ErrEmptyStack) {
		err = &NoActivePlayerError{}
	}
	if err != nil {
		return "", toDBusError(err)
	}
	return name, nil
}

func busNameOf(p *mpris.Player) string {
	if p == nil {
		return ""
	}
	return p.BusName
}

func busNames(snap registry.Snapshot) []string {
	names := make([]string, 0, len(snap.Players))
	for _, p := range snap.Players {
		names = append(names, p.BusName)
	}
	return names
}

// destination prefers the unique name so calls reach the connection that
// owned the name when the player was loaded.
func destination(p *mpris.Player) string {
	if p.UniqueName != "" {
		return p.UniqueName
	}
	return p.BusName
}
