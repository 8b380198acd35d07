// Package cli builds the cobra command trees of playerctl and playerctld.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/b0bbywan/go-playerctl/backend"
	"github.com/b0bbywan/go-playerctl/backend/mpris"
	"github.com/b0bbywan/go-playerctl/config"
	"github.com/b0bbywan/go-playerctl/daemon"
	"github.com/b0bbywan/go-playerctl/dispatch"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/format"
	"github.com/b0bbywan/go-playerctl/logger"
	"github.com/b0bbywan/go-playerctl/registry"
	"github.com/b0bbywan/go-playerctl/selection"
)

const playerctldInstance = "playerctld"

// positionTick is how often positions are polled while following a
// template that shows them.
const positionTick = time.Second

type playerctlOptions struct {
	stdout io.Writer
	stderr io.Writer

	// flags also readable from the config file
	player     string
	ignore     string
	format     string
	noMessages bool

	all     bool
	follow  bool
	listAll bool
	version bool

	// resolved during the run
	quiet bool
}

// NewPlayerctlCommand builds the playerctl root command. Player commands are
// positional arguments, not cobra subcommands, so that "volume 0.1-" and
// friends parse the way users expect.
func NewPlayerctlCommand(stdout, stderr io.Writer) *cobra.Command {
	return newPlayerctlCommand(&playerctlOptions{stdout: stdout, stderr: stderr})
}

func newPlayerctlCommand(o *playerctlOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "playerctl [OPTION...] COMMAND",
		Short:         "Control MPRIS media players",
		Long:          "For players supporting the MPRIS D-Bus specification\n\n" + commandsHelp(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	cmd.SetOut(o.stdout)
	cmd.SetErr(o.stderr)

	flags := cmd.Flags()
	flags.StringVarP(&o.player, "player", "p", "", "A comma separated list of names of players to control (default: the first available player)")
	flags.BoolVarP(&o.all, "all-players", "a", false, "Select all available players to be controlled")
	flags.StringVarP(&o.ignore, "ignore-player", "i", "", "A comma separated list of names of players to ignore")
	flags.StringVarP(&o.format, "format", "f", "", "A format string for printing properties and metadata")
	flags.BoolVarP(&o.follow, "follow", "F", false, "Block and append the query to output when it changes for the most recently updated player")
	flags.BoolVarP(&o.listAll, "list-all", "l", false, "List the names of running players that can be controlled")
	flags.BoolVarP(&o.noMessages, "no-messages", "s", false, "Suppress diagnostic messages")
	flags.BoolVarP(&o.version, "version", "v", false, "Print version information")
	return cmd
}

func commandsHelp() string {
	var b strings.Builder
	b.WriteString("Available Commands:\n")
	for _, c := range dispatch.Commands() {
		fmt.Fprintf(&b, "  %-24s %s\n", strings.TrimSpace(c.Name+" "+c.Usage), c.Help)
	}
	return b.String()
}

// RunPlayerctl runs playerctl with args and returns the exit status.
func RunPlayerctl(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o := &playerctlOptions{stdout: stdout, stderr: stderr}
	cmd := newPlayerctlCommand(o)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		o.report(err)
		return 1
	}
	return 0
}

func (o *playerctlOptions) report(err error) {
	switch {
	case errors.Is(err, errSilent):
	case dispatch.IsNoPlayer(err):
		if !o.quiet {
			fmt.Fprintln(o.stderr, err)
		}
	default:
		fmt.Fprintln(o.stderr, err)
	}
}

func (o *playerctlOptions) run(cmd *cobra.Command, args []string) error {
	if o.version {
		fmt.Fprintf(o.stdout, "v%s\n", config.AppVersion)
		return nil
	}

	loader := config.NewLoader()
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	cfg, err := loader.Load()
	if err != nil {
		return &prefixError{prefix: "could not load configuration", err: err}
	}
	cfg.Apply()
	o.quiet = cfg.NoMessages

	if !o.listAll && len(args) == 0 {
		if err := cmd.Help(); err != nil {
			return err
		}
		return errSilent
	}

	var command *dispatch.Command
	var tmpl *format.Template
	if !o.listAll {
		if command, err = dispatch.Lookup(args[0], cfg.Format != "", o.follow); err != nil {
			return &commandError{err: err}
		}
		if cfg.Format != "" {
			if tmpl, err = format.Parse(cfg.Format); err != nil {
				return &commandError{err: err}
			}
		}
		if err := command.Check(args[1:], tmpl != nil); err != nil {
			return &commandError{err: err}
		}
	}

	ctx := cmd.Context()
	bus, err := mpris.ConnectSessionBus()
	if err != nil {
		return &prefixError{prefix: "Could not connect to players", err: err}
	}

	b := backend.New(ctx, bus, backend.Config{
		MPRIS: mpris.Config{
			Timeout:   cfg.MPRIS.Timeout,
			Heartbeat: heartbeat(o.follow, command, tmpl),
		},
	})
	defer func() {
		if err := b.Close(); err != nil {
			logger.Debug("[cli] closing backend: %v", err)
		}
	}()

	// subscribe before loading so no change between the snapshot and the
	// follow loop is lost
	var updates chan events.Event
	if o.follow {
		updates = b.Subscribe(events.FilterBackend([]string{"registry"}))
		defer b.Unsubscribe(updates)
	}

	if err := b.Start(); err != nil {
		return &prefixError{prefix: "Could not connect to players", err: err}
	}
	snap, err := b.Registry.Snapshot(ctx)
	if err != nil {
		return err
	}

	spec := selection.Spec{Patterns: cfg.Players, Ignore: cfg.Ignore, All: o.all}
	if o.listAll {
		o.listPlayers(spec, snap)
		return nil
	}

	d := dispatch.New(b.MPRIS,
		dispatch.WithTemplate(tmpl),
		dispatch.WithSelection(spec),
		dispatch.WithOutput(o.stdout),
	)

	if o.follow {
		return o.wrap(d.Follow(ctx, snap, updates, command, args[1:]))
	}

	candidates := d.Candidates(snap)
	if p := o.playerctld(ctx, b, bus, spec, candidates, cfg.MPRIS.Timeout); p != nil {
		candidates = append(candidates, p)
	}
	return o.wrap(d.Run(ctx, candidates, command, args[1:]))
}

func (o *playerctlOptions) wrap(err error) error {
	if err == nil || dispatch.IsNoPlayer(err) {
		return err
	}
	if errors.Is(err, dispatch.ErrOutputClosed) {
		return errSilent
	}
	return &commandError{err: err}
}

// listPlayers prints the selected instances in priority order.
func (o *playerctlOptions) listPlayers(spec selection.Spec, snap registry.Snapshot) {
	instances := selection.Resolve(spec, snap.Instances())
	for _, instance := range instances {
		fmt.Fprintln(o.stdout, instance)
	}
	if len(instances) == 0 && !o.quiet {
		fmt.Fprintln(o.stderr, dispatch.ErrNoPlayersFound)
	}
}

// playerctld returns the daemon as an extra candidate when it was named
// explicitly but is not on the bus yet. Loading it goes through D-Bus
// activation.
func (o *playerctlOptions) playerctld(ctx context.Context, b *backend.Backend, bus *mpris.StdBusClient, spec selection.Spec, candidates []*mpris.Player, timeout time.Duration) *mpris.Player {
	if !spec.Names(playerctldInstance) || selection.Ignored(spec.Ignore, playerctldInstance) {
		return nil
	}
	for _, p := range candidates {
		if p.Instance == playerctldInstance {
			return nil
		}
	}

	logger.Debug("[cli] playerctld was selected explicitly, it may autostart")
	msg, err := daemon.NewClient(bus.Conn(), timeout).Activate(ctx)
	if err != nil {
		logger.Debug("[cli] could not activate playerctld: %v", err)
		return nil
	}
	logger.Debug("[cli] %s", msg)

	name, err := mpris.ParseBusName(daemon.BusName)
	if err != nil {
		return nil
	}
	p, err := b.MPRIS.LoadPlayer(ctx, name)
	if err != nil {
		logger.Debug("[cli] could not load playerctld: %v", err)
		return nil
	}
	return p
}

func heartbeat(follow bool, command *dispatch.Command, tmpl *format.Template) time.Duration {
	if !follow || command == nil {
		return 0
	}
	if tmpl != nil {
		if tmpl.ContainsKey("position") {
			return positionTick
		}
		return 0
	}
	if command.Name == "position" {
		return positionTick
	}
	return 0
}
