package mpris

import (
	"context"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-playerctl/cache"
	"github.com/b0bbywan/go-playerctl/events"
)

// PlaybackStatus represents the current playback state
type PlaybackStatus string

// LoopStatus represents the current loop/repeat state
type LoopStatus string

// MPRISBackend talks to media players through a BusClient
type MPRISBackend struct {
	bus     BusClient
	ctx     context.Context
	timeout time.Duration

	// well-known names skipped by the listener and by ListPlayerNames
	exclude []string

	// unique connection name (:1.107) -> well-known name, no expiration
	owners *cache.Cache[string]

	events chan events.Event

	// listener for MPRIS changes
	listener *Listener

	// heartbeat to update Position of playing players
	heartbeat *Heartbeat
}

// Listener listens to MPRIS changes via D-Bus signals
type Listener struct {
	backend *MPRISBackend
	ctx     context.Context
	cancel  context.CancelFunc

	// Deduplication: last known state per player
	lastState   map[string]PlaybackStatus
	lastStateMu sync.RWMutex
}

// Player is a typed snapshot of one player's identity and cached properties.
// It never references the collection that holds it.
type Player struct {
	BusName    string `json:"bus_name"`
	Name       string `json:"name"`
	Instance   string `json:"instance"`
	UniqueName string `json:"-"`

	Identity       string         `json:"identity" dbus:"Identity" iface:"org.mpris.MediaPlayer2"`
	PlaybackStatus PlaybackStatus `json:"playback_status" dbus:"PlaybackStatus" iface:"org.mpris.MediaPlayer2.Player"`
	LoopStatus     LoopStatus     `json:"loop_status,omitempty" dbus:"LoopStatus" iface:"org.mpris.MediaPlayer2.Player"`
	Shuffle        bool           `json:"shuffle,omitempty" dbus:"Shuffle" iface:"org.mpris.MediaPlayer2.Player"`
	Volume         float64        `json:"volume,omitempty" dbus:"Volume" iface:"org.mpris.MediaPlayer2.Player"`
	Position       int64          `json:"position,omitempty" dbus:"Position" iface:"org.mpris.MediaPlayer2.Player"`
	Rate           float64        `json:"rate,omitempty" dbus:"Rate" iface:"org.mpris.MediaPlayer2.Player"`
	Metadata       Metadata       `json:"metadata,omitempty" dbus:"Metadata" iface:"org.mpris.MediaPlayer2.Player"`
	Capabilities   Capabilities   `json:"capabilities"`

	// raw property cache per interface, as last reported by the player
	props map[string]map[string]dbus.Variant
}

// Capabilities represents the actions supported by a player
type Capabilities struct {
	CanPlay       bool `json:"can_play" dbus:"CanPlay"`
	CanPause      bool `json:"can_pause" dbus:"CanPause"`
	CanGoNext     bool `json:"can_go_next" dbus:"CanGoNext"`
	CanGoPrevious bool `json:"can_go_previous" dbus:"CanGoPrevious"`
	CanSeek       bool `json:"can_seek" dbus:"CanSeek"`
	CanControl    bool `json:"can_control" dbus:"CanControl"`
}

// PlayerName identifies a player on the bus before its properties are loaded.
type PlayerName struct {
	BusName  string
	Name     string
	Instance string
}

// Change describes what a batch of property updates did to a Player.
type Change struct {
	// Keys lists the properties whose cached value differs from before.
	Keys []string
	// Playing is set when PlaybackStatus moved to Playing.
	Playing bool
	// Track is set when the effective track identity changed.
	Track bool
}

// Observable reports whether anything a consumer can see has changed.
func (c Change) Observable() bool { return len(c.Keys) > 0 }

// Promotes reports whether the change should make the player the active one.
func (c Change) Promotes() bool { return c.Playing || c.Track }

// NameEvent is the payload of player appeared/vanished events.
type NameEvent struct {
	BusName string
	Owner   string
}

// PropertiesEvent is the payload of player changed events.
type PropertiesEvent struct {
	BusName     string
	Interface   string
	Changed     map[string]dbus.Variant
	Invalidated []string
}

// PositionEvent is the payload of seeked and heartbeat position events.
type PositionEvent struct {
	BusName  string
	Position int64
}
