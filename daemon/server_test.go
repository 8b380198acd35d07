package daemon

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/mock/gomock"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
	"github.com/b0bbywan/go-playerctl/backend/mpris/mocks"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/registry"
)

type emitted struct {
	Path   dbus.ObjectPath
	Name   string
	Values []interface{}
}

type fakeConn struct {
	mu      sync.Mutex
	reply   dbus.RequestNameReply
	exports []string
	signals []emitted
}

func (c *fakeConn) RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	return c.reply, nil
}

func (c *fakeConn) ReleaseName(name string) (dbus.ReleaseNameReply, error) {
	return dbus.ReleaseNameReplyReleased, nil
}

func (c *fakeConn) Export(v interface{}, path dbus.ObjectPath, iface string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exports = append(c.exports, string(path)+" "+iface)
	return nil
}

func (c *fakeConn) Emit(path dbus.ObjectPath, name string, values ...interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = append(c.signals, emitted{Path: path, Name: name, Values: values})
	return nil
}

func (c *fakeConn) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.signals))
	for _, s := range c.signals {
		name := s.Name
		if name == SIGNAL_PROPERTIES_CHANGED {
			name += " " + s.Values[0].(string)
		}
		out = append(out, name)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = nil
}

type fakePlayers struct {
	snap registry.Snapshot
	err  error
}

func (f *fakePlayers) Snapshot(ctx context.Context) (registry.Snapshot, error) {
	return f.snap, nil
}

func (f *fakePlayers) Shift(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.snap.Players[0].BusName, nil
}

func (f *fakePlayers) Unshift(ctx context.Context) (string, error) {
	return f.Shift(ctx)
}

func newPlayer(instance, owner string) *mpris.Player {
	name, err := mpris.ParseBusName(mpris.BusNameFor(instance))
	if err != nil {
		panic(err)
	}
	p := mpris.NewPlayer(name)
	p.UniqueName = owner
	p.Apply(mpris.MPRIS_PLAYER_IFACE, map[string]dbus.Variant{
		mpris.PropPlaybackStatus: dbus.MakeVariant("Playing"),
		mpris.PropVolume:         dbus.MakeVariant(0.5),
		mpris.PropPosition:       dbus.MakeVariant(int64(7)),
	}, nil)
	p.Apply(mpris.MPRIS_INTERFACE, map[string]dbus.Variant{
		mpris.PropIdentity: dbus.MakeVariant(instance),
	}, nil)
	return p
}

func snapshotOf(players ...*mpris.Player) registry.Snapshot {
	return registry.Snapshot{Players: players}
}

func stackChanged(snap registry.Snapshot, instance string) events.Event {
	return events.Event{Type: events.TypeStackChanged, Data: registry.Notification{Snapshot: snap, Instance: instance}}
}

func newServer(t *testing.T, players Players) (*Server, *fakeConn, *mocks.MockBusClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	bus := mocks.NewMockBusClient(ctrl)
	conn := &fakeConn{reply: dbus.RequestNameReplyPrimaryOwner}
	if players == nil {
		players = &fakePlayers{}
	}
	return NewServer(context.Background(), conn, bus, players, 0), conn, bus
}

func TestAcquire(t *testing.T) {
	tests := []struct {
		name    string
		reply   dbus.RequestNameReply
		wantErr bool
	}{
		{"primary owner", dbus.RequestNameReplyPrimaryOwner, false},
		{"already owner", dbus.RequestNameReplyAlreadyOwner, false},
		{"taken", dbus.RequestNameReplyExists, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, conn, _ := newServer(t, nil)
			conn.reply = tt.reply

			err := s.Acquire()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Acquire() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if !errors.Is(err, ErrAlreadyRunning) {
				t.Errorf("Acquire() error = %v, want ErrAlreadyRunning", err)
			}
			if got := err.Error(); got != "could not acquire bus name: playerctld is already running" {
				t.Errorf("Acquire() message = %q", got)
			}
		})
	}
}

func TestExport(t *testing.T) {
	s, conn, _ := newServer(t, nil)
	if err := s.Export(); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	want := []string{
		"/org/mpris/MediaPlayer2 org.mpris.MediaPlayer2",
		"/org/mpris/MediaPlayer2 org.mpris.MediaPlayer2.Player",
		"/org/mpris/MediaPlayer2 org.freedesktop.DBus.Properties",
		"/org/mpris/MediaPlayer2 com.github.altdesktop.playerctld",
		"/org/mpris/MediaPlayer2 org.freedesktop.DBus.Introspectable",
		"/com/github/altdesktop/playerctld com.github.altdesktop.playerctld",
		"/com/github/altdesktop/playerctld org.freedesktop.DBus.Properties",
		"/com/github/altdesktop/playerctld org.freedesktop.DBus.Introspectable",
	}
	if diff := cmp.Diff(want, conn.exports); diff != "" {
		t.Errorf("exports mismatch (-want +got):\n%s", diff)
	}
}

func TestIntrospection(t *testing.T) {
	xml, dErr := introspectable(MPRISPath).Introspect()
	if dErr != nil {
		t.Fatalf("Introspect() error: %v", dErr)
	}
	for _, want := range []string{
		`<interface name="com.github.altdesktop.playerctld">`,
		`<method name="Shift">`,
		`<signal name="ActivePlayerChangeBegin">`,
		`<interface name="org.mpris.MediaPlayer2.Player">`,
		`<method name="OpenUri">`,
		`<property name="PlayerNames" type="as" access="read">`,
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("introspection lacks %s", want)
		}
	}

	xml, _ = introspectable(ObjectPath).Introspect()
	if strings.Contains(xml, `"org.mpris.MediaPlayer2.Player"`) {
		t.Error("private object should not describe the player interface")
	}
}

func TestActivePlayerChange(t *testing.T) {
	s, conn, bus := newServer(t, nil)
	vlc := newPlayer("vlc", ":1.5")
	mpv := newPlayer("mpv", ":1.6")

	bus.EXPECT().Get(gomock.Any(), ":1.5", mpris.MPRIS_PLAYER_IFACE, mpris.PropPosition).
		Return(dbus.MakeVariant(int64(42)), nil)

	if err := s.Handle(stackChanged(snapshotOf(vlc, mpv), "vlc")); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	want := []string{
		SignalChangeBegin,
		SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_PLAYER_IFACE,
		SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_INTERFACE,
		SIGNAL_SEEKED,
		SIGNAL_PROPERTIES_CHANGED + " " + Interface,
		SignalChangeEnd,
	}
	if diff := cmp.Diff(want, conn.names()); diff != "" {
		t.Fatalf("signals mismatch (-want +got):\n%s", diff)
	}

	if got := conn.signals[0].Values[0]; got != "org.mpris.MediaPlayer2.vlc" {
		t.Errorf("ActivePlayerChangeBegin(%v), want vlc bus name", got)
	}
	if got := conn.signals[3].Values[0]; got != int64(42) {
		t.Errorf("Seeked(%v), want 42", got)
	}
	names := conn.signals[4].Values[1].(map[string]dbus.Variant)[PropPlayerNames].Value()
	if diff := cmp.Diff([]string{"org.mpris.MediaPlayer2.vlc", "org.mpris.MediaPlayer2.mpv"}, names); diff != "" {
		t.Errorf("PlayerNames mismatch (-want +got):\n%s", diff)
	}

	// the same head again only updates the names
	conn.reset()
	if err := s.Handle(stackChanged(snapshotOf(vlc), "mpv")); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if diff := cmp.Diff([]string{SIGNAL_PROPERTIES_CHANGED + " " + Interface}, conn.names()); diff != "" {
		t.Errorf("signals mismatch (-want +got):\n%s", diff)
	}
}

func TestLastPlayerGone(t *testing.T) {
	s, conn, bus := newServer(t, nil)
	bus.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(dbus.Variant{}, errors.New("gone"))

	if err := s.Handle(stackChanged(snapshotOf(newPlayer("vlc", ":1.5")), "vlc")); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	conn.reset()

	if err := s.Handle(stackChanged(snapshotOf(), "vlc")); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	want := []string{
		SignalChangeBegin,
		SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_PLAYER_IFACE,
		SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_INTERFACE,
		SIGNAL_PROPERTIES_CHANGED + " " + Interface,
		SignalChangeEnd,
	}
	if diff := cmp.Diff(want, conn.names()); diff != "" {
		t.Fatalf("signals mismatch (-want +got):\n%s", diff)
	}
	if got := conn.signals[0].Values[0]; got != "" {
		t.Errorf("ActivePlayerChangeBegin(%v), want empty name", got)
	}
	if diff := cmp.Diff(playerProperties, conn.signals[1].Values[2]); diff != "" {
		t.Errorf("invalidated mismatch (-want +got):\n%s", diff)
	}
}

func TestActivePlayerUpdates(t *testing.T) {
	s, conn, bus := newServer(t, nil)
	vlc := newPlayer("vlc", ":1.5")
	mpv := newPlayer("mpv", ":1.6")
	bus.EXPECT().Get(gomock.Any(), ":1.5", gomock.Any(), gomock.Any()).Return(dbus.MakeVariant(int64(7)), nil)
	if err := s.Sync(snapshotOf(vlc, mpv)); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	tests := []struct {
		name string
		n    registry.Notification
		want []string
	}{
		{
			name: "volume of the active player",
			n:    registry.Notification{Instance: "vlc", Keys: []string{mpris.PropVolume}},
			want: []string{SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_PLAYER_IFACE},
		},
		{
			name: "identity of the active player",
			n:    registry.Notification{Instance: "vlc", Keys: []string{mpris.PropIdentity}},
			want: []string{SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_INTERFACE},
		},
		{
			name: "seek of the active player",
			n:    registry.Notification{Instance: "vlc", Keys: []string{mpris.PropPosition}, Seeked: true},
			want: []string{SIGNAL_SEEKED},
		},
		{
			name: "another player",
			n:    registry.Notification{Instance: "mpv", Keys: []string{mpris.PropVolume}},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn.reset()
			tt.n.Snapshot = snapshotOf(vlc, mpv)
			if err := s.Handle(events.Event{Type: events.TypePlayerUpdated, Data: tt.n}); err != nil {
				t.Fatalf("Handle() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, conn.names()); diff != "" {
				t.Errorf("signals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestForward(t *testing.T) {
	players := &fakePlayers{snap: snapshotOf(newPlayer("vlc", ":1.5"))}
	s, _, bus := newServer(t, players)
	player := &playerObject{s}

	bus.EXPECT().Call(gomock.Any(), ":1.5", mpris.MPRIS_METHOD_PLAY).Return(nil)
	if err := player.Play(); err != nil {
		t.Errorf("Play() error: %v", err)
	}

	bus.EXPECT().Call(gomock.Any(), ":1.5", mpris.MPRIS_METHOD_SEEK, int64(-5)).Return(nil)
	if err := player.Seek(-5); err != nil {
		t.Errorf("Seek() error: %v", err)
	}

	bus.EXPECT().Call(gomock.Any(), ":1.5", mpris.MPRIS_METHOD_NEXT).
		Return(dbus.Error{Name: "org.mpris.MediaPlayer2.Error", Body: []interface{}{"nope"}})
	if err := player.Next(); err == nil || err.Name != "org.mpris.MediaPlayer2.Error" {
		t.Errorf("Next() error = %v, want the player's error", err)
	}
}

func TestForwardWithoutPlayer(t *testing.T) {
	s, _, _ := newServer(t, &fakePlayers{})

	err := (&playerObject{s}).Play()
	if err == nil {
		t.Fatal("Play() should fail without players")
	}
	if err.Name != ERR_NO_ACTIVE_PLAYER {
		t.Errorf("error name = %s, want %s", err.Name, ERR_NO_ACTIVE_PLAYER)
	}
	if got := err.Error(); got != "No player is being controlled by playerctld" {
		t.Errorf("error message = %q", got)
	}
}

func TestRotate(t *testing.T) {
	players := &fakePlayers{snap: snapshotOf(newPlayer("vlc", ":1.5"))}
	s, _, _ := newServer(t, players)
	obj := &playerctldObject{s}

	name, dErr := obj.Shift()
	if dErr != nil || name != "org.mpris.MediaPlayer2.vlc" {
		t.Errorf("Shift() = %q, %v", name, dErr)
	}

	players.err = registry.ErrEmptyStack
	if _, dErr := obj.Unshift(); dErr == nil || dErr.Name != ERR_NO_ACTIVE_PLAYER {
		t.Errorf("Unshift() error = %v, want %s", dErr, ERR_NO_ACTIVE_PLAYER)
	}
}

func TestProperties(t *testing.T) {
	players := &fakePlayers{snap: snapshotOf(newPlayer("vlc", ":1.5"))}
	s, _, bus := newServer(t, players)
	bus.EXPECT().Get(gomock.Any(), ":1.5", gomock.Any(), gomock.Any()).Return(dbus.MakeVariant(int64(0)), nil)
	if err := s.Sync(players.snap); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	props := &propertiesObject{s}

	v, dErr := props.Get(Interface, PropPlayerNames)
	if dErr != nil {
		t.Fatalf("Get(PlayerNames) error: %v", dErr)
	}
	if diff := cmp.Diff([]string{"org.mpris.MediaPlayer2.vlc"}, v.Value()); diff != "" {
		t.Errorf("PlayerNames mismatch (-want +got):\n%s", diff)
	}

	bus.EXPECT().Get(gomock.Any(), ":1.5", mpris.MPRIS_PLAYER_IFACE, mpris.PropVolume).Return(dbus.MakeVariant(0.3), nil)
	v, dErr = props.Get(mpris.MPRIS_PLAYER_IFACE, mpris.PropVolume)
	if dErr != nil || v.Value() != 0.3 {
		t.Errorf("Get(Volume) = %v, %v", v, dErr)
	}

	bus.EXPECT().Set(gomock.Any(), ":1.5", mpris.MPRIS_PLAYER_IFACE, mpris.PropShuffle, dbus.MakeVariant(true)).Return(nil)
	if dErr := props.Set(mpris.MPRIS_PLAYER_IFACE, mpris.PropShuffle, dbus.MakeVariant(true)); dErr != nil {
		t.Errorf("Set(Shuffle) error: %v", dErr)
	}

	if dErr := props.Set(Interface, PropPlayerNames, dbus.MakeVariant([]string{})); dErr == nil || dErr.Name != ERR_PROP_READ_ONLY {
		t.Errorf("Set(PlayerNames) error = %v, want read-only", dErr)
	}
	if _, dErr := props.GetAll("org.example.Nope"); dErr == nil || dErr.Name != ERR_UNKNOWN_IFACE {
		t.Errorf("GetAll(unknown) error = %v, want unknown interface", dErr)
	}
}

func TestRunAnnouncesCurrentState(t *testing.T) {
	players := &fakePlayers{}
	s, conn, _ := newServer(t, players)

	updates := make(chan events.Event)
	close(updates)
	s.Run(context.Background(), updates)

	want := []string{
		SignalChangeBegin,
		SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_PLAYER_IFACE,
		SIGNAL_PROPERTIES_CHANGED + " " + mpris.MPRIS_INTERFACE,
		SIGNAL_PROPERTIES_CHANGED + " " + Interface,
		SignalChangeEnd,
	}
	if diff := cmp.Diff(want, conn.names()); diff != "" {
		t.Errorf("signals mismatch (-want +got):\n%s", diff)
	}
}
