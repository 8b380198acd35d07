package mpris

import (
	"fmt"
	"strings"
)

// ParseLoopStatus accepts none, track and playlist in any case.
func ParseLoopStatus(s string) (LoopStatus, error) {
	switch strings.ToLower(s) {
	case "none":
		return LoopNone, nil
	case "track":
		return LoopTrack, nil
	case "playlist":
		return LoopPlaylist, nil
	}
	return "", &ValidationError{
		Field:   PropLoopStatus,
		Message: fmt.Sprintf("Got unknown loop status: '%s' (expected 'none', 'playlist', or 'track').", s),
	}
}

// ParsePlaybackStatus accepts playing, paused and stopped in any case.
func ParsePlaybackStatus(s string) (PlaybackStatus, error) {
	switch strings.ToLower(s) {
	case "playing":
		return StatusPlaying, nil
	case "paused":
		return StatusPaused, nil
	case "stopped":
		return StatusStopped, nil
	}
	return "", &ValidationError{Field: PropPlaybackStatus, Message: fmt.Sprintf("unknown playback status %q", s)}
}
