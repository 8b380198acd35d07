package mpris

import (
	"context"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-playerctl/backend/internal/dbus"
	"github.com/b0bbywan/go-playerctl/cache"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
)

// Config tunes the backend.
type Config struct {
	// Timeout bounds every bus call. Zero means idbus.DefaultTimeout.
	Timeout time.Duration
	// Exclude lists bus name prefixes that are never reported as players.
	Exclude []string
	// Heartbeat is the position polling interval for playing players.
	// Zero disables polling.
	Heartbeat time.Duration
}

// New creates an MPRIS backend on top of a bus client. Nothing is sent on
// the bus until Start or an explicit call.
func New(ctx context.Context, bus BusClient, cfg Config) *MPRISBackend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = idbus.DefaultTimeout
	}
	m := &MPRISBackend{
		bus:     bus,
		ctx:     ctx,
		timeout: timeout,
		exclude: cfg.Exclude,
		owners:  cache.New[string](),
		events:  make(chan events.Event, 64),
	}
	m.listener = NewListener(m)
	if cfg.Heartbeat > 0 {
		m.heartbeat = NewHeartbeat(m, cfg.Heartbeat)
	}
	return m
}

// Start subscribes to player signals. Events are delivered on Events until
// the backend context is done.
func (m *MPRISBackend) Start() error {
	logger.Debug("[mpris] starting backend")
	if err := m.listener.Start(); err != nil {
		return err
	}
	logger.Info("[mpris] backend started")
	return nil
}

// Events returns the raw player event stream.
func (m *MPRISBackend) Events() <-chan events.Event {
	return m.events
}

func (m *MPRISBackend) emit(e events.Event) {
	select {
	case m.events <- e:
	case <-m.ctx.Done():
	}
}

func (m *MPRISBackend) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

// ListPlayerNames returns the MPRIS players currently on the bus, in bus order.
func (m *MPRISBackend) ListPlayerNames(ctx context.Context) ([]PlayerName, error) {
	start := time.Now()
	cctx, cancel := m.callCtx(ctx)
	defer cancel()

	names, err := m.bus.ListNames(cctx)
	if err != nil {
		return nil, err
	}

	players := make([]PlayerName, 0)
	for _, busName := range names {
		if !strings.HasPrefix(busName, MPRIS_PREFIX+".") || isExcluded(busName, m.exclude) {
			continue
		}
		name, err := ParseBusName(busName)
		if err != nil {
			logger.Debug("[mpris] skipping %s: %v", busName, err)
			continue
		}
		players = append(players, name)
	}
	logger.Debug("[mpris] listed %d players in %s", len(players), time.Since(start))
	return players, nil
}

// LoadPlayer fetches every property of a player and remembers its owner so
// signals from it can be attributed.
func (m *MPRISBackend) LoadPlayer(ctx context.Context, name PlayerName) (*Player, error) {
	cctx, cancel := m.callCtx(ctx)
	defer cancel()

	owner, err := m.bus.GetNameOwner(cctx, name.BusName)
	if err != nil {
		if idbus.IsPeerGone(err) {
			return nil, &PlayerNotFoundError{BusName: name.BusName}
		}
		return nil, err
	}

	props, err := m.bus.GetAll(cctx, name.BusName, MPRIS_PLAYER_IFACE)
	if err != nil {
		if idbus.IsPeerGone(err) {
			return nil, &PlayerNotFoundError{BusName: name.BusName}
		}
		return nil, err
	}

	player := NewPlayer(name)
	player.UniqueName = owner
	player.Apply(MPRIS_PLAYER_IFACE, props, nil)

	// the root interface only carries Identity and friends, a player
	// without it is still usable
	if root, err := m.bus.GetAll(cctx, name.BusName, MPRIS_INTERFACE); err == nil {
		player.Apply(MPRIS_INTERFACE, root, nil)
	} else {
		logger.Debug("[mpris] no root properties for %s: %v", name.BusName, err)
	}

	m.TrackOwner(name.BusName, owner)
	m.listener.setState(name.BusName, player.PlaybackStatus)
	return player, nil
}

// TrackOwner records which connection owns a bus name.
func (m *MPRISBackend) TrackOwner(busName, owner string) {
	if owner == "" {
		m.owners.Delete(busName)
		return
	}
	m.owners.Set(busName, owner)
}

// namesOwnedBy returns the well-known names held by a unique connection name.
func (m *MPRISBackend) namesOwnedBy(unique string) []string {
	return m.owners.Keys(func(owner string) bool { return owner == unique })
}

// GetPosition asks the player for its current position.
func (m *MPRISBackend) GetPosition(ctx context.Context, p *Player) (int64, error) {
	cctx, cancel := m.callCtx(ctx)
	defer cancel()

	v, err := m.bus.Get(cctx, p.BusName, MPRIS_PLAYER_IFACE, PropPosition)
	if err != nil {
		return 0, err
	}
	pos, ok := idbus.ExtractInt64(v)
	if !ok {
		return 0, &ValidationError{Field: PropPosition, Message: "unexpected type " + v.Signature().String()}
	}
	return pos, nil
}

func (m *MPRISBackend) call(ctx context.Context, p *Player, method string, args ...interface{}) error {
	cctx, cancel := m.callCtx(ctx)
	defer cancel()
	return m.bus.Call(cctx, p.BusName, method, args...)
}

func (m *MPRISBackend) set(ctx context.Context, p *Player, prop string, value interface{}) error {
	cctx, cancel := m.callCtx(ctx)
	defer cancel()
	return m.bus.Set(cctx, p.BusName, MPRIS_PLAYER_IFACE, prop, value)
}

func require(p *Player, ok bool, capability string) error {
	if !ok {
		return &CapabilityError{Player: p.Instance, Required: capability}
	}
	return nil
}

// Play starts playback
func (m *MPRISBackend) Play(ctx context.Context, p *Player) error {
	if err := require(p, p.CanPlay(), "CanPlay"); err != nil {
		return err
	}
	logger.Debug("[mpris] playing %s", p.BusName)
	return m.call(ctx, p, MPRIS_METHOD_PLAY)
}

// Pause pauses playback
func (m *MPRISBackend) Pause(ctx context.Context, p *Player) error {
	if err := require(p, p.CanPause(), "CanPause"); err != nil {
		return err
	}
	logger.Debug("[mpris] pausing %s", p.BusName)
	return m.call(ctx, p, MPRIS_METHOD_PAUSE)
}

// PlayPause toggles between playing and paused
func (m *MPRISBackend) PlayPause(ctx context.Context, p *Player) error {
	if err := require(p, p.CanPlay() || p.CanPause(), "CanPlay or CanPause"); err != nil {
		return err
	}
	logger.Debug("[mpris] toggling %s", p.BusName)
	return m.call(ctx, p, MPRIS_METHOD_PLAY_PAUSE)
}

// Stop stops playback
func (m *MPRISBackend) Stop(ctx context.Context, p *Player) error {
	if err := require(p, p.CanControl(), "CanControl"); err != nil {
		return err
	}
	logger.Debug("[mpris] stopping %s", p.BusName)
	return m.call(ctx, p, MPRIS_METHOD_STOP)
}

// Next skips to the next track
func (m *MPRISBackend) Next(ctx context.Context, p *Player) error {
	if err := require(p, p.CanGoNext(), "CanGoNext"); err != nil {
		return err
	}
	logger.Debug("[mpris] next track on %s", p.BusName)
	return m.call(ctx, p, MPRIS_METHOD_NEXT)
}

// Previous skips to the previous track
func (m *MPRISBackend) Previous(ctx context.Context, p *Player) error {
	if err := require(p, p.CanGoPrevious(), "CanGoPrevious"); err != nil {
		return err
	}
	logger.Debug("[mpris] previous track on %s", p.BusName)
	return m.call(ctx, p, MPRIS_METHOD_PREVIOUS)
}

// Seek moves the position by offset microseconds.
func (m *MPRISBackend) Seek(ctx context.Context, p *Player, offset int64) error {
	if err := require(p, p.CanSeek(), "CanSeek"); err != nil {
		return err
	}
	logger.Debug("[mpris] seeking %s by %d", p.BusName, offset)
	return m.call(ctx, p, MPRIS_METHOD_SEEK, offset)
}

// SetPosition moves to an absolute position in the current track. The
// player must expose a track id.
func (m *MPRISBackend) SetPosition(ctx context.Context, p *Player, position int64) error {
	if err := require(p, p.CanSeek(), "CanSeek"); err != nil {
		return err
	}
	trackID := p.Metadata.TrackID.String()
	if trackID == "" {
		return &ValidationError{Field: KeyTrackID, Message: "Could not get track id to set position"}
	}
	if trackID == MPRIS_NO_TRACK {
		// SetPosition is ignored for NoTrack, seek relative to where we are
		current, err := m.GetPosition(ctx, p)
		if err != nil {
			return err
		}
		return m.call(ctx, p, MPRIS_METHOD_SEEK, position-current)
	}
	logger.Debug("[mpris] setting position of %s to %d", p.BusName, position)
	return m.call(ctx, p, MPRIS_METHOD_SET_POSITION, dbus.ObjectPath(trackID), position)
}

// OpenUri asks the player to open a URI
func (m *MPRISBackend) OpenUri(ctx context.Context, p *Player, uri string) error {
	if err := require(p, p.CanControl(), "CanControl"); err != nil {
		return err
	}
	logger.Debug("[mpris] opening %s on %s", uri, p.BusName)
	return m.call(ctx, p, MPRIS_METHOD_OPEN_URI, uri)
}

// SetVolume sets the volume. Negative values are clamped to 0.
func (m *MPRISBackend) SetVolume(ctx context.Context, p *Player, volume float64) error {
	if err := require(p, p.CanControl(), "CanControl"); err != nil {
		return err
	}
	if volume < 0 {
		volume = 0
	}
	logger.Debug("[mpris] setting volume of %s to %f", p.BusName, volume)
	return m.set(ctx, p, PropVolume, volume)
}

// SetLoopStatus sets the loop mode
func (m *MPRISBackend) SetLoopStatus(ctx context.Context, p *Player, status LoopStatus) error {
	if err := require(p, p.CanControl(), "CanControl"); err != nil {
		return err
	}
	logger.Debug("[mpris] setting loop status of %s to %s", p.BusName, status)
	return m.set(ctx, p, PropLoopStatus, string(status))
}

// SetShuffle enables or disables shuffle
func (m *MPRISBackend) SetShuffle(ctx context.Context, p *Player, shuffle bool) error {
	if err := require(p, p.CanControl(), "CanControl"); err != nil {
		return err
	}
	logger.Debug("[mpris] setting shuffle of %s to %v", p.BusName, shuffle)
	return m.set(ctx, p, PropShuffle, shuffle)
}

// Close stops the listener and the heartbeat and releases the bus.
func (m *MPRISBackend) Close() error {
	if m.heartbeat != nil {
		m.heartbeat.Stop()
	}
	m.listener.Stop()
	return m.bus.Close()
}
