package format

import "github.com/b0bbywan/go-playerctl/backend/mpris"

// Context maps the names usable in a template to their values.
type Context map[string]Value

// NewContext exposes every metadata key of p under its own name plus the
// short aliases and player properties templates usually need.
func NewContext(p *mpris.Player) Context {
	ctx := make(Context)
	for _, key := range p.Metadata.Keys() {
		v, _ := p.Metadata.Get(key)
		ctx[key] = v
	}

	if !p.Metadata.Artist.IsZero() {
		ctx["artist"] = mpris.StringValue(p.Metadata.FirstArtist())
	}
	if !p.Metadata.Title.IsZero() {
		ctx["title"] = p.Metadata.Title
	}
	if !p.Metadata.Album.IsZero() {
		ctx["album"] = p.Metadata.Album
	}

	ctx["playerName"] = mpris.StringValue(p.Name)
	ctx["playerInstance"] = mpris.StringValue(p.Instance)

	if p.Has(mpris.PropPlaybackStatus) {
		ctx["status"] = mpris.StringValue(string(p.PlaybackStatus))
	}
	if p.Has(mpris.PropLoopStatus) {
		ctx["loop"] = mpris.StringValue(string(p.LoopStatus))
	}
	if p.Has(mpris.PropShuffle) {
		ctx["shuffle"] = mpris.BoolValue(p.Shuffle)
	}
	if p.Has(mpris.PropVolume) {
		ctx["volume"] = mpris.FloatValue(p.Volume)
	}
	if p.Has(mpris.PropPosition) {
		ctx["position"] = mpris.IntValue(p.Position)
	}
	return ctx
}
