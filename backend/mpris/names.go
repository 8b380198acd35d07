package mpris

import "strings"

// ParseBusName splits an MPRIS bus name into player name and instance.
// "org.mpris.MediaPlayer2.vlc.instance42" gives name "vlc", instance "vlc.instance42".
func ParseBusName(busName string) (PlayerName, error) {
	if err := validateBusName(busName); err != nil {
		return PlayerName{}, err
	}
	instance := strings.TrimPrefix(busName, MPRIS_PREFIX+".")
	name, _, _ := strings.Cut(instance, ".")
	return PlayerName{BusName: busName, Name: name, Instance: instance}, nil
}

// BusNameFor returns the bus name a player instance is reachable at.
func BusNameFor(instance string) string {
	return MPRIS_PREFIX + "." + instance
}

// NameMatches reports whether the instance is selected by pattern: either the
// exact instance or any instance of that player name ("vlc" matches "vlc.instance42").
func NameMatches(pattern, instance string) bool {
	if pattern == instance {
		return true
	}
	return strings.HasPrefix(instance, pattern) && strings.HasPrefix(instance[len(pattern):], ".")
}

func isExcluded(busName string, exclude []string) bool {
	for _, prefix := range exclude {
		if strings.HasPrefix(busName, prefix) {
			return true
		}
	}
	return false
}
