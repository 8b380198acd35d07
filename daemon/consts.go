package daemon

import (
	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

const (
	// BusName is the well-known name playerctld owns. It is an MPRIS name,
	// so clients see the daemon as one more player.
	BusName = mpris.MPRIS_PREFIX + ".playerctld"

	Interface  = "com.github.altdesktop.playerctld"
	ObjectPath = dbus.ObjectPath("/com/github/altdesktop/playerctld")
	MPRISPath  = dbus.ObjectPath(mpris.MPRIS_PATH)

	PropPlayerNames = "PlayerNames"

	SignalChangeBegin = Interface + ".ActivePlayerChangeBegin"
	SignalChangeEnd   = Interface + ".ActivePlayerChangeEnd"

	METHOD_SHIFT   = Interface + ".Shift"
	METHOD_UNSHIFT = Interface + ".Unshift"

	ERR_NO_ACTIVE_PLAYER = Interface + ".NoActivePlayer"
	ERR_UNKNOWN_IFACE    = "org.freedesktop.DBus.Error.UnknownInterface"
	ERR_PROP_READ_ONLY   = "org.freedesktop.DBus.Error.PropertyReadOnly"

	SIGNAL_PROPERTIES_CHANGED = mpris.DBUS_PROP_CHANGED_SIGNAL
	SIGNAL_SEEKED             = mpris.MPRIS_SEEKED_SIGNAL

	INTROSPECTABLE_IFACE = "org.freedesktop.DBus.Introspectable"
	START_SERVICE        = mpris.DBUS_INTERFACE + ".StartServiceByName"
	NAME_HAS_OWNER       = mpris.DBUS_INTERFACE + ".NameHasOwner"
)

// StartServiceByName replies
const (
	startReplySuccess        uint32 = 1
	startReplyAlreadyRunning uint32 = 2
)

// invalidated when no player is left
var (
	playerProperties = []string{
		"CanControl", "CanGoNext", "CanGoPrevious", "CanPause", "CanPlay",
		"CanSeek", "Shuffle", "Metadata", "MaximumRate", "MinimumRate",
		"Rate", "Volume", "Position", "LoopStatus", "PlaybackStatus",
	}
	rootProperties = []string{
		"SupportedMimeTypes", "SupportedUriSchemes", "CanQuit", "CanRaise",
		"CanSetFullScreen", "HasTrackList", "DesktopEntry", "Identity",
	}
)
