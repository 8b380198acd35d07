package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
)

// runFunc executes a command against one player. ok is false when the
// player cannot answer and the next candidate should be tried.
type runFunc func(ctx context.Context, d *Dispatcher, p *mpris.Player, args []string) (out string, ok bool, err error)

// Command is an entry of the command table.
type Command struct {
	Name   string
	Usage  string
	Help   string
	Format bool
	Follow bool
	// Setter is set when arguments turn the query into a setter.
	Setter bool
	run    runFunc
}

var commands = []*Command{
	{Name: "play", Help: "Command the player to play", run: action(Controller.Play)},
	{Name: "pause", Help: "Command the player to pause", run: action(Controller.Pause)},
	{Name: "play-pause", Help: "Command the player to toggle between play/pause", run: action(Controller.PlayPause)},
	{Name: "stop", Help: "Command the player to stop", run: action(Controller.Stop)},
	{Name: "next", Help: "Command the player to skip to the next track", run: action(Controller.Next)},
	{Name: "previous", Help: "Command the player to skip to the previous track", run: action(Controller.Previous)},
	{Name: "open", Usage: "URI", Help: "Command for the player to open given URI. URI can be either file path or remote URL.", run: runOpen},
	{Name: "position", Usage: "[OFFSET][+/-]", Help: "Command the player to go to the position or seek forward/backward OFFSET in seconds", Format: true, Follow: true, Setter: true, run: runPosition},
	{Name: "volume", Usage: "[LEVEL][+/-]", Help: "Print or set the volume to LEVEL from 0.0 to 1.0", Format: true, Follow: true, Setter: true, run: runVolume},
	{Name: "status", Help: "Get the play status of the player", Format: true, Follow: true, run: runStatus},
	{Name: "loop", Usage: "[STATUS]", Help: `Print or set the loop status. Can be "None", "Track", or "Playlist".`, Format: true, Follow: true, Setter: true, run: runLoop},
	{Name: "shuffle", Usage: "[STATUS]", Help: `Print or set the shuffle status. Can be "On", "Off", or "Toggle".`, Format: true, Follow: true, Setter: true, run: runShuffle},
	{Name: "metadata", Usage: "[KEY...]", Help: "Print metadata information for the current track. If KEY is passed, print only those values. KEY may be artist, title, album, or any key found in the metadata.", Format: true, Follow: true, run: runMetadata},
}

// Commands returns the command table in help order.
func Commands() []*Command {
	return commands
}

// Lookup finds a command and checks it accepts the requested output modes.
func Lookup(name string, hasFormat, follow bool) (*Command, error) {
	for _, c := range commands {
		if c.Name != name {
			continue
		}
		if hasFormat && !c.Format {
			return nil, &InvalidArgumentError{Arg: name, Reason: "format strings are not supported on command"}
		}
		if follow && !c.Follow {
			return nil, &InvalidArgumentError{Arg: name, Reason: "follow is not supported on command"}
		}
		return c, nil
	}
	return nil, &InvalidArgumentError{Arg: name, Reason: "Command not recognized"}
}

// Check validates the arguments before any player is contacted.
func (c *Command) Check(args []string, hasFormat bool) error {
	if c.Setter && len(args) > 0 && hasFormat {
		return &InvalidArgumentError{Reason: "format strings are not supported on command functions."}
	}
	switch c.Name {
	case "open":
		if len(args) != 1 {
			return &InvalidArgumentError{Arg: c.Name, Reason: "expected exactly one URI"}
		}
	case "position":
		if len(args) > 0 {
			if _, _, err := parseOffset(args[0], "position"); err != nil {
				return err
			}
		}
	case "volume":
		if len(args) > 0 {
			if _, _, err := parseOffset(args[0], "volume"); err != nil {
				return err
			}
		}
	case "loop":
		if len(args) > 0 {
			if _, err := mpris.ParseLoopStatus(args[0]); err != nil {
				var verr *mpris.ValidationError
				if errors.As(err, &verr) {
					return &InvalidArgumentError{Reason: verr.Message}
				}
				return err
			}
		}
	case "shuffle":
		if len(args) > 0 {
			if _, _, err := parseShuffle(args[0]); err != nil {
				return err
			}
		}
	}
	return nil
}

func action(fn func(Controller, context.Context, *mpris.Player) error) runFunc {
	return func(ctx context.Context, d *Dispatcher, p *mpris.Player, _ []string) (string, bool, error) {
		return "", true, fn(d.ctrl, ctx, p)
	}
}

// parseOffset reads NUMBER with an optional trailing + or -. relative is
// set when a suffix is present and the sign is folded into value.
func parseOffset(arg, what string) (value float64, relative bool, err error) {
	num := arg
	sign := 1.0
	if strings.HasSuffix(arg, "+") || strings.HasSuffix(arg, "-") {
		relative = true
		if strings.HasSuffix(arg, "-") {
			sign = -1
		}
		num = arg[:len(arg)-1]
	}
	value, err = strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false, &InvalidArgumentError{Arg: arg, Reason: fmt.Sprintf("Could not parse %s as a number", what)}
	}
	return sign * value, relative, nil
}

func parseShuffle(arg string) (value, toggle bool, err error) {
	switch strings.ToLower(arg) {
	case "on":
		return true, false, nil
	case "off":
		return false, false, nil
	case "toggle":
		return false, true, nil
	}
	return false, false, &InvalidArgumentError{
		Reason: fmt.Sprintf("Got unknown shuffle status: '%s' (expected 'on', 'off', or 'toggle').", arg),
	}
}

// resolveURI turns an existing local path into an absolute file:// URI and
// passes anything else through.
func resolveURI(arg string) string {
	if _, err := os.Stat(arg); err != nil {
		return arg
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return arg
	}
	return (&url.URL{Scheme: "file", Path: abs}).String()
}

func runOpen(ctx context.Context, d *Dispatcher, p *mpris.Player, args []string) (string, bool, error) {
	return "", true, d.ctrl.OpenUri(ctx, p, resolveURI(args[0]))
}

func runPosition(ctx context.Context, d *Dispatcher, p *mpris.Player, args []string) (string, bool, error) {
	if len(args) > 0 {
		seconds, relative, err := parseOffset(args[0], "position")
		if err != nil {
			return "", false, err
		}
		offset := int64(seconds * 1000000)
		if relative {
			return "", true, d.ctrl.Seek(ctx, p, offset)
		}
		return "", true, d.ctrl.SetPosition(ctx, p, offset)
	}

	if d.tmpl != nil {
		return d.render(p)
	}
	if !p.Has(mpris.PropPosition) {
		return "", false, nil
	}
	return fmt.Sprintf("%f\n", float64(p.Position)/1000000), true, nil
}

func runVolume(ctx context.Context, d *Dispatcher, p *mpris.Player, args []string) (string, bool, error) {
	if len(args) > 0 {
		level, relative, err := parseOffset(args[0], "volume")
		if err != nil {
			return "", false, err
		}
		if relative {
			level += p.Volume
		}
		return "", true, d.ctrl.SetVolume(ctx, p, level)
	}

	if !p.Has(mpris.PropVolume) {
		return "", false, nil
	}
	if d.tmpl != nil {
		return d.render(p)
	}
	return fmt.Sprintf("%f\n", p.Volume), true, nil
}

func runStatus(_ context.Context, d *Dispatcher, p *mpris.Player, _ []string) (string, bool, error) {
	if !p.Has(mpris.PropPlaybackStatus) {
		return "", false, nil
	}
	if d.tmpl != nil {
		return d.render(p)
	}
	return string(p.PlaybackStatus) + "\n", true, nil
}

func runLoop(ctx context.Context, d *Dispatcher, p *mpris.Player, args []string) (string, bool, error) {
	if len(args) > 0 {
		status, err := mpris.ParseLoopStatus(args[0])
		if err != nil {
			return "", false, err
		}
		return "", true, d.ctrl.SetLoopStatus(ctx, p, status)
	}

	if d.tmpl != nil {
		return d.render(p)
	}
	if !p.Has(mpris.PropLoopStatus) {
		return "", false, nil
	}
	return string(p.LoopStatus) + "\n", true, nil
}

func runShuffle(ctx context.Context, d *Dispatcher, p *mpris.Player, args []string) (string, bool, error) {
	if len(args) > 0 {
		value, toggle, err := parseShuffle(args[0])
		if err != nil {
			return "", false, err
		}
		if toggle {
			value = !p.Shuffle
		}
		return "", true, d.ctrl.SetShuffle(ctx, p, value)
	}

	if !p.Has(mpris.PropShuffle) {
		return "", false, nil
	}
	if d.tmpl != nil {
		return d.render(p)
	}
	if p.Shuffle {
		return "On\n", true, nil
	}
	return "Off\n", true, nil
}

var metadataShorthands = map[string]string{
	"artist": mpris.KeyArtist,
	"title":  mpris.KeyTitle,
	"album":  mpris.KeyAlbum,
}

func runMetadata(_ context.Context, d *Dispatcher, p *mpris.Player, args []string) (string, bool, error) {
	if !p.CanPlay() {
		return "", false, nil
	}

	if d.tmpl != nil {
		if p.Metadata.Len() == 0 {
			return "", false, nil
		}
		return d.render(p)
	}

	if len(args) == 0 {
		table := metadataTable(p)
		if table == "" {
			return "", false, nil
		}
		return table, true, nil
	}

	var b strings.Builder
	for _, key := range args {
		if full, ok := metadataShorthands[key]; ok {
			key = full
		}
		v, ok := p.Metadata.Get(key)
		if !ok {
			return "", false, nil
		}
		b.WriteString(v.String())
		b.WriteByte('\n')
	}
	return b.String(), true, nil
}

// metadataTable prints one row per key, or per element for list values.
func metadataTable(p *mpris.Player) string {
	const row = "%-5s %-25s %s\n"
	var b strings.Builder
	for _, key := range p.Metadata.Keys() {
		v, _ := p.Metadata.Get(key)
		for _, item := range v.Items() {
			fmt.Fprintf(&b, row, p.Name, key, item)
		}
	}
	return b.String()
}
