package mpris

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"
)

func loadedPlayer(t *testing.T, props map[string]dbus.Variant) *Player {
	t.Helper()
	name, err := ParseBusName("org.mpris.MediaPlayer2.vlc")
	if err != nil {
		t.Fatal(err)
	}
	p := NewPlayer(name)
	p.Apply(MPRIS_PLAYER_IFACE, props, nil)
	return p
}

func trackMetadata(id, title string) dbus.Variant {
	return dbus.MakeVariant(map[string]dbus.Variant{
		KeyTrackID: dbus.MakeVariant(dbus.ObjectPath(id)),
		KeyTitle:   dbus.MakeVariant(title),
	})
}

func TestApplyTypedFields(t *testing.T) {
	p := loadedPlayer(t, map[string]dbus.Variant{
		PropPlaybackStatus: dbus.MakeVariant("Paused"),
		PropLoopStatus:     dbus.MakeVariant("Playlist"),
		PropShuffle:        dbus.MakeVariant(true),
		PropVolume:         dbus.MakeVariant(0.75),
		PropPosition:       dbus.MakeVariant(int64(1500000)),
		PropMetadata:       trackMetadata("/t/1", "Song"),
		"CanPlay":          dbus.MakeVariant(true),
		"CanSeek":          dbus.MakeVariant(true),
	})

	if p.PlaybackStatus != StatusPaused {
		t.Errorf("PlaybackStatus = %q", p.PlaybackStatus)
	}
	if p.LoopStatus != LoopPlaylist {
		t.Errorf("LoopStatus = %q", p.LoopStatus)
	}
	if !p.Shuffle || p.Volume != 0.75 || p.Position != 1500000 {
		t.Errorf("Shuffle/Volume/Position = %v/%v/%v", p.Shuffle, p.Volume, p.Position)
	}
	if p.Metadata.Title.String() != "Song" {
		t.Errorf("Title = %q", p.Metadata.Title.String())
	}
	want := Capabilities{CanPlay: true, CanSeek: true}
	if diff := cmp.Diff(want, p.Capabilities); diff != "" {
		t.Errorf("Capabilities mismatch (-want +got):\n%s", diff)
	}
	if !p.Has(PropVolume) || p.Has(PropRate) {
		t.Error("Has() does not reflect reported properties")
	}
}

func TestApplyChange(t *testing.T) {
	base := map[string]dbus.Variant{
		PropPlaybackStatus: dbus.MakeVariant("Paused"),
		PropMetadata:       trackMetadata("/t/1", "Song"),
		PropVolume:         dbus.MakeVariant(0.5),
		PropPosition:       dbus.MakeVariant(int64(0)),
	}

	tests := []struct {
		name         string
		changed      map[string]dbus.Variant
		invalidated  []string
		wantKeys     []string
		wantPromotes bool
	}{
		{
			name:    "same values are a no-op",
			changed: map[string]dbus.Variant{PropPlaybackStatus: dbus.MakeVariant("Paused"), PropVolume: dbus.MakeVariant(0.5)},
		},
		{
			name:         "start playing promotes",
			changed:      map[string]dbus.Variant{PropPlaybackStatus: dbus.MakeVariant("Playing")},
			wantKeys:     []string{PropPlaybackStatus},
			wantPromotes: true,
		},
		{
			name:     "stopping does not promote",
			changed:  map[string]dbus.Variant{PropPlaybackStatus: dbus.MakeVariant("Stopped")},
			wantKeys: []string{PropPlaybackStatus},
		},
		{
			name:         "new track promotes",
			changed:      map[string]dbus.Variant{PropMetadata: trackMetadata("/t/2", "Other")},
			wantKeys:     []string{PropMetadata},
			wantPromotes: true,
		},
		{
			name:     "same track with new title does not promote",
			changed:  map[string]dbus.Variant{PropMetadata: trackMetadata("/t/1", "Renamed")},
			wantKeys: []string{PropMetadata},
		},
		{
			name:     "position never promotes",
			changed:  map[string]dbus.Variant{PropPosition: dbus.MakeVariant(int64(42))},
			wantKeys: []string{PropPosition},
		},
		{
			name:        "invalidated volume",
			invalidated: []string{PropVolume, PropRate},
			wantKeys:    []string{PropVolume},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := loadedPlayer(t, base)
			change := p.Apply(MPRIS_PLAYER_IFACE, tt.changed, tt.invalidated)
			if diff := cmp.Diff(tt.wantKeys, change.Keys); diff != "" {
				t.Errorf("Keys mismatch (-want +got):\n%s", diff)
			}
			if change.Promotes() != tt.wantPromotes {
				t.Errorf("Promotes() = %v, want %v", change.Promotes(), tt.wantPromotes)
			}
			if change.Observable() != (len(tt.wantKeys) > 0) {
				t.Errorf("Observable() = %v", change.Observable())
			}
		})
	}
}

func TestApplyInvalidateResetsField(t *testing.T) {
	p := loadedPlayer(t, map[string]dbus.Variant{PropVolume: dbus.MakeVariant(0.5)})
	p.Apply(MPRIS_PLAYER_IFACE, nil, []string{PropVolume})
	if p.Volume != 0 || p.Has(PropVolume) {
		t.Errorf("Volume = %v, Has = %v after invalidation", p.Volume, p.Has(PropVolume))
	}
}

func TestApplyRootInterface(t *testing.T) {
	p := loadedPlayer(t, nil)
	p.Apply(MPRIS_INTERFACE, map[string]dbus.Variant{PropIdentity: dbus.MakeVariant("VLC media player")}, nil)
	if p.Identity != "VLC media player" {
		t.Errorf("Identity = %q", p.Identity)
	}
	if p.Has(PropIdentity) {
		t.Error("root properties must not show up as Player properties")
	}
}

func TestSetPositionOnPlayer(t *testing.T) {
	p := loadedPlayer(t, map[string]dbus.Variant{PropPosition: dbus.MakeVariant(int64(10))})
	if p.SetPosition(10) {
		t.Error("unchanged position reported as changed")
	}
	if !p.SetPosition(20) || p.Position != 20 {
		t.Errorf("SetPosition(20) failed, Position = %d", p.Position)
	}
}

func TestPlayerClone(t *testing.T) {
	p := loadedPlayer(t, map[string]dbus.Variant{PropVolume: dbus.MakeVariant(0.5)})
	c := p.Clone()
	c.Apply(MPRIS_PLAYER_IFACE, map[string]dbus.Variant{PropVolume: dbus.MakeVariant(1.0)}, nil)

	if p.Volume != 0.5 {
		t.Errorf("original Volume = %v after mutating clone", p.Volume)
	}
	v := p.Properties(MPRIS_PLAYER_IFACE)[PropVolume]
	if v.Value().(float64) != 0.5 {
		t.Errorf("original raw Volume = %v", v.Value())
	}
}
