package mpris

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-playerctl/backend/internal/dbus"
)

// Kind is the type held by a metadata Value.
type Kind int

const (
	KindNone Kind = iota
	KindString
	KindStrings
	KindInt
	KindFloat
	KindBool
)

// Value is a typed metadata value. The zero Value is absent.
type Value struct {
	Kind    Kind
	Str     string
	Strings []string
	Int     int64
	Float   float64
	Bool    bool
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }
func StringsValue(s ...string) Value { return Value{Kind: KindStrings, Strings: s} }
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }
func FloatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// ValueOf converts a D-Bus variant into a Value. Containers other than
// string arrays are flattened to their printed form.
func ValueOf(v dbus.Variant) Value {
	if s, ok := idbus.ExtractString(v); ok {
		return StringValue(s)
	}
	if ss, ok := idbus.ExtractStrings(v); ok {
		return StringsValue(ss...)
	}
	if i, ok := idbus.ExtractInt64(v); ok {
		return IntValue(i)
	}
	if f, ok := idbus.ExtractFloat64(v); ok {
		return FloatValue(f)
	}
	if b, ok := idbus.ExtractBool(v); ok {
		return BoolValue(b)
	}
	if v.Value() == nil {
		return Value{}
	}
	return StringValue(fmt.Sprintf("%v", v.Value()))
}

// IsZero reports whether the value is absent.
func (v Value) IsZero() bool { return v.Kind == KindNone }

// String prints the value the way it is shown to users: string lists are
// joined with ", " and numbers use their shortest decimal form.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindStrings:
		return strings.Join(v.Strings, ", ")
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return ""
}

// Items returns the printed elements of the value, one per list entry.
func (v Value) Items() []string {
	if v.Kind == KindStrings {
		return v.Strings
	}
	if v.Kind == KindNone {
		return nil
	}
	return []string{v.String()}
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindStrings:
		if len(v.Strings) != len(o.Strings) {
			return false
		}
		for i := range v.Strings {
			if v.Strings[i] != o.Strings[i] {
				return false
			}
		}
		return true
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindBool:
		return v.Bool == o.Bool
	}
	return true
}

func (v Value) clone() Value {
	if v.Strings != nil {
		v.Strings = append([]string(nil), v.Strings...)
	}
	return v
}

// Metadata is the typed form of the MPRIS Metadata property. Well-known keys
// have their own fields; anything else lands in Extra.
type Metadata struct {
	TrackID     Value
	Length      Value
	ArtURL      Value
	URL         Value
	Title       Value
	Artist      Value
	Album       Value
	AlbumArtist Value
	Extra       map[string]Value
}

// ParseMetadata builds Metadata from the a{sv} map sent by a player.
func ParseMetadata(raw map[string]dbus.Variant) Metadata {
	var m Metadata
	for key, v := range raw {
		m.Set(key, ValueOf(v))
	}
	return m
}

func (m *Metadata) field(key string) *Value {
	switch key {
	case KeyTrackID:
		return &m.TrackID
	case KeyLength:
		return &m.Length
	case KeyArtURL:
		return &m.ArtURL
	case KeyURL:
		return &m.URL
	case KeyTitle:
		return &m.Title
	case KeyArtist:
		return &m.Artist
	case KeyAlbum:
		return &m.Album
	case KeyAlbumArtist:
		return &m.AlbumArtist
	}
	return nil
}

// Set stores a value under key. Setting an absent value removes the key.
func (m *Metadata) Set(key string, v Value) {
	if f := m.field(key); f != nil {
		*f = v
		return
	}
	if v.IsZero() {
		delete(m.Extra, key)
		return
	}
	if m.Extra == nil {
		m.Extra = make(map[string]Value)
	}
	m.Extra[key] = v
}

// Get is the single lookup used for every metadata key.
func (m Metadata) Get(key string) (Value, bool) {
	if f := m.field(key); f != nil {
		return *f, !f.IsZero()
	}
	v, ok := m.Extra[key]
	return v, ok
}

// Keys returns the present keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m.Extra)+8)
	for _, k := range []string{KeyTrackID, KeyLength, KeyArtURL, KeyURL, KeyTitle, KeyArtist, KeyAlbum, KeyAlbumArtist} {
		if _, ok := m.Get(k); ok {
			keys = append(keys, k)
		}
	}
	for k := range m.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of present keys.
func (m Metadata) Len() int { return len(m.Keys()) }

// FirstArtist returns the first entry of xesam:artist.
func (m Metadata) FirstArtist() string {
	switch m.Artist.Kind {
	case KindStrings:
		if len(m.Artist.Strings) > 0 {
			return m.Artist.Strings[0]
		}
		return ""
	default:
		return m.Artist.String()
	}
}

// Equal compares every key.
func (m Metadata) Equal(o Metadata) bool {
	keys := m.Keys()
	if len(keys) != o.Len() {
		return false
	}
	for _, k := range keys {
		a, _ := m.Get(k)
		b, ok := o.Get(k)
		if !ok || !a.Equal(b) {
			return false
		}
	}
	return true
}

// SameTrack compares the effective track identity: the trackid when either
// side has one, the whole map otherwise.
func (m Metadata) SameTrack(o Metadata) bool {
	if !m.TrackID.IsZero() || !o.TrackID.IsZero() {
		return m.TrackID.Equal(o.TrackID)
	}
	return m.Equal(o)
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	c := Metadata{
		TrackID:     m.TrackID.clone(),
		Length:      m.Length.clone(),
		ArtURL:      m.ArtURL.clone(),
		URL:         m.URL.clone(),
		Title:       m.Title.clone(),
		Artist:      m.Artist.clone(),
		Album:       m.Album.clone(),
		AlbumArtist: m.AlbumArtist.clone(),
	}
	if m.Extra != nil {
		c.Extra = make(map[string]Value, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = v.clone()
		}
	}
	return c
}
