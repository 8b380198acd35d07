package daemon

import (
	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

// rootObject is org.mpris.MediaPlayer2, forwarded to the active player.
type rootObject struct{ s *Server }

func (o *rootObject) Raise() *dbus.Error {
	return o.s.forward(mpris.MPRIS_INTERFACE + ".Raise")
}

func (o *rootObject) Quit() *dbus.Error {
	return o.s.forward(mpris.MPRIS_INTERFACE + ".Quit")
}

// playerObject is org.mpris.MediaPlayer2.Player, forwarded to the active
// player.
type playerObject struct{ s *Server }

func (o *playerObject) Next() *dbus.Error      { return o.s.forward(mpris.MPRIS_METHOD_NEXT) }
func (o *playerObject) Previous() *dbus.Error  { return o.s.forward(mpris.MPRIS_METHOD_PREVIOUS) }
func (o *playerObject) Pause() *dbus.Error     { return o.s.forward(mpris.MPRIS_METHOD_PAUSE) }
func (o *playerObject) PlayPause() *dbus.Error { return o.s.forward(mpris.MPRIS_METHOD_PLAY_PAUSE) }
func (o *playerObject) Stop() *dbus.Error      { return o.s.forward(mpris.MPRIS_METHOD_STOP) }
func (o *playerObject) Play() *dbus.Error      { return o.s.forward(mpris.MPRIS_METHOD_PLAY) }

func (o *playerObject) Seek(offset int64) *dbus.Error {
	return o.s.forward(mpris.MPRIS_METHOD_SEEK, offset)
}

func (o *playerObject) SetPosition(trackID dbus.ObjectPath, position int64) *dbus.Error {
	return o.s.forward(mpris.MPRIS_METHOD_SET_POSITION, trackID, position)
}

func (o *playerObject) OpenUri(uri string) *dbus.Error {
	return o.s.forward(mpris.MPRIS_METHOD_OPEN_URI, uri)
}

// playerctldObject is the private interface.
type playerctldObject struct{ s *Server }

// Shift makes the next player active and returns its bus name.
func (o *playerctldObject) Shift() (string, *dbus.Error) {
	return o.s.rotate(true)
}

// Unshift makes the previous player active and returns its bus name.
func (o *playerctldObject) Unshift() (string, *dbus.Error) {
	return o.s.rotate(false)
}

// propertiesObject serves PlayerNames itself and forwards the MPRIS
// interfaces to the active player.
type propertiesObject struct{ s *Server }

func (o *propertiesObject) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	if iface == Interface {
		if prop != PropPlayerNames {
			return dbus.Variant{}, dbus.NewError(ERR_UNKNOWN_IFACE, []interface{}{"unknown property " + prop})
		}
		return dbus.MakeVariant(o.s.currentNames()), nil
	}
	if !isMPRISInterface(iface) {
		return dbus.Variant{}, unknownInterface(iface)
	}

	ctx, cancel := o.s.callCtx()
	defer cancel()
	head, err := o.s.active(ctx)
	if err != nil {
		return dbus.Variant{}, toDBusError(err)
	}
	v, err := o.s.bus.Get(ctx, destination(head), iface, prop)
	if err != nil {
		return dbus.Variant{}, toDBusError(err)
	}
	return v, nil
}

func (o *propertiesObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface == Interface {
		return map[string]dbus.Variant{
			PropPlayerNames: dbus.MakeVariant(o.s.currentNames()),
		}, nil
	}
	if !isMPRISInterface(iface) {
		return nil, unknownInterface(iface)
	}

	ctx, cancel := o.s.callCtx()
	defer cancel()
	head, err := o.s.active(ctx)
	if err != nil {
		return nil, toDBusError(err)
	}
	props, err := o.s.bus.GetAll(ctx, destination(head), iface)
	if err != nil {
		return nil, toDBusError(err)
	}
	return props, nil
}

func (o *propertiesObject) Set(iface, prop string, value dbus.Variant) *dbus.Error {
	if iface == Interface {
		return dbus.NewError(ERR_PROP_READ_ONLY, []interface{}{prop + " is read-only"})
	}
	if !isMPRISInterface(iface) {
		return unknownInterface(iface)
	}

	ctx, cancel := o.s.callCtx()
	defer cancel()
	head, err := o.s.active(ctx)
	if err != nil {
		return toDBusError(err)
	}
	return toDBusError(o.s.bus.Set(ctx, destination(head), iface, prop, value))
}

func (s *Server) currentNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playerNames()
}

func isMPRISInterface(iface string) bool {
	switch iface {
	case mpris.MPRIS_INTERFACE, mpris.MPRIS_PLAYER_IFACE, mpris.MPRIS_TRACKLIST_IFACE, mpris.MPRIS_PLAYLISTS_IFACE:
		return true
	}
	return false
}

func unknownInterface(iface string) *dbus.Error {
	return dbus.NewError(ERR_UNKNOWN_IFACE, []interface{}{"unknown interface " + iface})
}
