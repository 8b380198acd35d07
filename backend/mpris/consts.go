package mpris

const (
	// MPRIS D-Bus constants
	MPRIS_PREFIX          = "org.mpris.MediaPlayer2"
	MPRIS_PATH            = "/org/mpris/MediaPlayer2"
	MPRIS_INTERFACE       = "org.mpris.MediaPlayer2"
	MPRIS_PLAYER_IFACE    = "org.mpris.MediaPlayer2.Player"
	MPRIS_TRACKLIST_IFACE = "org.mpris.MediaPlayer2.TrackList"
	MPRIS_PLAYLISTS_IFACE = "org.mpris.MediaPlayer2.Playlists"

	// D-Bus system constants
	DBUS_INTERFACE  = "org.freedesktop.DBus"
	DBUS_PROP_IFACE = "org.freedesktop.DBus.Properties"

	// D-Bus signal names
	DBUS_PROP_CHANGED_SIGNAL = DBUS_PROP_IFACE + ".PropertiesChanged"
	DBUS_NAME_OWNER_CHANGED  = DBUS_INTERFACE + ".NameOwnerChanged"
	MPRIS_SEEKED_SIGNAL      = MPRIS_PLAYER_IFACE + ".Seeked"

	// MPRIS Player methods
	MPRIS_METHOD_PLAY         = MPRIS_PLAYER_IFACE + ".Play"
	MPRIS_METHOD_PAUSE        = MPRIS_PLAYER_IFACE + ".Pause"
	MPRIS_METHOD_PLAY_PAUSE   = MPRIS_PLAYER_IFACE + ".PlayPause"
	MPRIS_METHOD_STOP         = MPRIS_PLAYER_IFACE + ".Stop"
	MPRIS_METHOD_NEXT         = MPRIS_PLAYER_IFACE + ".Next"
	MPRIS_METHOD_PREVIOUS     = MPRIS_PLAYER_IFACE + ".Previous"
	MPRIS_METHOD_SEEK         = MPRIS_PLAYER_IFACE + ".Seek"
	MPRIS_METHOD_SET_POSITION = MPRIS_PLAYER_IFACE + ".SetPosition"
	MPRIS_METHOD_OPEN_URI     = MPRIS_PLAYER_IFACE + ".OpenUri"
)

// MPRIS_NO_TRACK is the well-known track ID meaning "no current track".
// SetPosition is a no-op for this value, so we fall back to relative Seek.
const MPRIS_NO_TRACK = "/org/mpris/MediaPlayer2/TrackList/NoTrack"

// Well-known metadata keys
const (
	KeyTrackID     = "mpris:trackid"
	KeyLength      = "mpris:length"
	KeyArtURL      = "mpris:artUrl"
	KeyTitle       = "xesam:title"
	KeyArtist      = "xesam:artist"
	KeyAlbum       = "xesam:album"
	KeyAlbumArtist = "xesam:albumArtist"
	KeyURL         = "xesam:url"
)

// Player interface property names
const (
	PropPlaybackStatus = "PlaybackStatus"
	PropLoopStatus     = "LoopStatus"
	PropShuffle        = "Shuffle"
	PropVolume         = "Volume"
	PropPosition       = "Position"
	PropRate           = "Rate"
	PropMetadata       = "Metadata"
	PropIdentity       = "Identity"
)

const (
	StatusPlaying PlaybackStatus = "Playing"
	StatusPaused  PlaybackStatus = "Paused"
	StatusStopped PlaybackStatus = "Stopped"
)

const (
	LoopNone     LoopStatus = "None"
	LoopTrack    LoopStatus = "Track"
	LoopPlaylist LoopStatus = "Playlist"
)
