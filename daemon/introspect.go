package daemon

import (
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

func readProps(access string, names map[string]string) []introspect.Property {
	props := make([]introspect.Property, 0, len(names))
	for _, name := range sortedKeys(names) {
		props = append(props, introspect.Property{Name: name, Type: names[name], Access: access})
	}
	return props
}

func nameArg() []introspect.Arg {
	return []introspect.Arg{{Name: "Name", Type: "s"}}
}

func playerctldInterface() introspect.Interface {
	return introspect.Interface{
		Name:       Interface,
		Methods:    introspect.Methods(&playerctldObject{}),
		Properties: []introspect.Property{{Name: PropPlayerNames, Type: "as", Access: "read"}},
		Signals: []introspect.Signal{
			{Name: "ActivePlayerChangeBegin", Args: nameArg()},
			{Name: "ActivePlayerChangeEnd", Args: nameArg()},
		},
	}
}

func rootInterface() introspect.Interface {
	props := readProps("read", map[string]string{
		"CanQuit":             "b",
		"CanSetFullscreen":    "b",
		"CanRaise":            "b",
		"HasTrackList":        "b",
		"Identity":            "s",
		"DesktopEntry":        "s",
		"SupportedUriSchemes": "as",
		"SupportedMimeTypes":  "as",
	})
	props = append(props, introspect.Property{Name: "Fullscreen", Type: "b", Access: "readwrite"})
	return introspect.Interface{
		Name:       mpris.MPRIS_INTERFACE,
		Methods:    introspect.Methods(&rootObject{}),
		Properties: props,
	}
}

func playerInterface() introspect.Interface {
	props := readProps("read", map[string]string{
		"PlaybackStatus": "s",
		"Metadata":       "a{sv}",
		"Position":       "x",
		"MinimumRate":    "d",
		"MaximumRate":    "d",
		"CanGoNext":      "b",
		"CanGoPrevious":  "b",
		"CanPlay":        "b",
		"CanPause":       "b",
		"CanSeek":        "b",
		"CanControl":     "b",
	})
	props = append(props, readProps("readwrite", map[string]string{
		"LoopStatus": "s",
		"Rate":       "d",
		"Shuffle":    "b",
		"Volume":     "d",
	})...)
	return introspect.Interface{
		Name:       mpris.MPRIS_PLAYER_IFACE,
		Methods:    introspect.Methods(&playerObject{}),
		Properties: props,
		Signals: []introspect.Signal{
			{Name: "Seeked", Args: []introspect.Arg{{Name: "Position", Type: "x"}}},
		},
	}
}

// introspectable describes the interfaces exported at path.
func introspectable(path dbus.ObjectPath) introspect.Introspectable {
	node := &introspect.Node{
		Name: string(path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			playerctldInterface(),
		},
	}
	if path == MPRISPath {
		node.Interfaces = append(node.Interfaces, rootInterface(), playerInterface())
	}
	return introspect.NewIntrospectable(node)
}
