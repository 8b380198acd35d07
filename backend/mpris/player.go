package mpris

import (
	"reflect"
	"sort"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-playerctl/backend/internal/dbus"
)

func (p *Player) CanPlay() bool       { return p.Capabilities.CanPlay }
func (p *Player) CanPause() bool      { return p.Capabilities.CanPause }
func (p *Player) CanGoNext() bool     { return p.Capabilities.CanGoNext }
func (p *Player) CanGoPrevious() bool { return p.Capabilities.CanGoPrevious }
func (p *Player) CanSeek() bool       { return p.Capabilities.CanSeek }
func (p *Player) CanControl() bool    { return p.Capabilities.CanControl }

// Has reports whether the player reported the given Player interface property.
func (p *Player) Has(prop string) bool {
	_, ok := p.props[MPRIS_PLAYER_IFACE][prop]
	return ok
}

// Properties returns a copy of the raw cached properties of one interface.
func (p *Player) Properties(iface string) map[string]dbus.Variant {
	out := make(map[string]dbus.Variant, len(p.props[iface]))
	for k, v := range p.props[iface] {
		out[k] = v
	}
	return out
}

// Apply merges a PropertiesChanged batch (or a GetAll reply) into the cache
// and reports what changed. Values equal to the cached ones are ignored.
func (p *Player) Apply(iface string, changed map[string]dbus.Variant, invalidated []string) Change {
	var change Change
	if p.props == nil {
		p.props = make(map[string]map[string]dbus.Variant)
	}
	cached := p.props[iface]
	if cached == nil {
		cached = make(map[string]dbus.Variant)
		p.props[iface] = cached
	}

	prevStatus := p.PlaybackStatus
	prevMetadata := p.Metadata

	for key, v := range changed {
		if old, ok := cached[key]; ok && variantEqual(old, v) {
			continue
		}
		cached[key] = v
		p.setField(iface, key, v)
		change.Keys = append(change.Keys, key)
	}
	for _, key := range invalidated {
		if _, ok := cached[key]; !ok {
			continue
		}
		delete(cached, key)
		p.setField(iface, key, dbus.Variant{})
		change.Keys = append(change.Keys, key)
	}
	sort.Strings(change.Keys)

	if iface == MPRIS_PLAYER_IFACE {
		change.Playing = p.PlaybackStatus == StatusPlaying && prevStatus != StatusPlaying
		change.Track = !p.Metadata.SameTrack(prevMetadata)
	}
	return change
}

// SetPosition updates the cached position without touching anything else.
// It reports whether the value differs.
func (p *Player) SetPosition(position int64) bool {
	if p.Has(PropPosition) && p.Position == position {
		return false
	}
	p.Apply(MPRIS_PLAYER_IFACE, map[string]dbus.Variant{PropPosition: dbus.MakeVariant(position)}, nil)
	return true
}

// setField writes a property into the tagged struct field it belongs to.
// An empty variant resets the field.
func (p *Player) setField(iface, prop string, v dbus.Variant) {
	if iface == MPRIS_PLAYER_IFACE && setCapability(&p.Capabilities, prop, v) {
		return
	}

	val := reflect.ValueOf(p).Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		fieldType := typ.Field(i)
		if fieldType.Tag.Get("dbus") != prop || fieldType.Tag.Get("iface") != iface {
			continue
		}
		field := val.Field(i)

		if v.Value() == nil {
			field.Set(reflect.Zero(field.Type()))
			return
		}

		switch field.Kind() {
		case reflect.String:
			if s, ok := idbus.ExtractString(v); ok {
				field.SetString(s)
			}
		case reflect.Bool:
			if b, ok := idbus.ExtractBool(v); ok {
				field.SetBool(b)
			}
		case reflect.Float64:
			if f, ok := idbus.ExtractFloat64(v); ok {
				field.SetFloat(f)
			}
		case reflect.Int64:
			if n, ok := idbus.ExtractInt64(v); ok {
				field.SetInt(n)
			}
		case reflect.Struct:
			// Metadata is the only struct-typed property
			if raw, ok := idbus.ExtractVariantMap(v); ok {
				field.Set(reflect.ValueOf(ParseMetadata(raw)))
			}
		}
		return
	}
}

// setCapability writes a Can* property. It reports whether prop was one.
func setCapability(caps *Capabilities, prop string, v dbus.Variant) bool {
	val := reflect.ValueOf(caps).Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		if typ.Field(i).Tag.Get("dbus") != prop {
			continue
		}
		b, _ := idbus.ExtractBool(v)
		val.Field(i).SetBool(b)
		return true
	}
	return false
}

func variantEqual(a, b dbus.Variant) bool {
	return a.Signature() == b.Signature() && reflect.DeepEqual(a.Value(), b.Value())
}

// Clone returns a deep copy safe to hand to another goroutine.
func (p *Player) Clone() *Player {
	c := *p
	c.Metadata = p.Metadata.Clone()
	c.props = make(map[string]map[string]dbus.Variant, len(p.props))
	for iface, props := range p.props {
		m := make(map[string]dbus.Variant, len(props))
		for k, v := range props {
			m[k] = v
		}
		c.props[iface] = m
	}
	return &c
}

// NewPlayer creates an empty handle for a player name.
func NewPlayer(name PlayerName) *Player {
	return &Player{
		BusName:  name.BusName,
		Name:     name.Name,
		Instance: name.Instance,
		props:    make(map[string]map[string]dbus.Variant),
	}
}
