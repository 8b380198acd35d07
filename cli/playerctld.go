package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"

	"github.com/b0bbywan/go-playerctl/backend"
	"github.com/b0bbywan/go-playerctl/backend/mpris"
	"github.com/b0bbywan/go-playerctl/config"
	"github.com/b0bbywan/go-playerctl/daemon"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
)

type playerctldOptions struct {
	stdout io.Writer
	stderr io.Writer
}

// NewPlayerctldCommand builds the playerctld root command. Without a
// subcommand it serves, like "playerctld run".
func NewPlayerctldCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &playerctldOptions{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:           "playerctld",
		Short:         "Keep track of media player activity",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.serve(cmd.Context())
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run the daemon in the foreground",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "daemon",
			Short: "Start playerctld through D-Bus service activation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.activate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "shift",
			Short: "Make the next player active",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.rotate(cmd.Context(), "shift", (*daemon.Client).Shift)
			},
		},
		&cobra.Command{
			Use:   "unshift",
			Short: "Make the previous player active",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return o.rotate(cmd.Context(), "unshift", (*daemon.Client).Unshift)
			},
		},
	)
	return cmd
}

// RunPlayerctld runs playerctld with args and returns the exit status.
func RunPlayerctld(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewPlayerctldCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func (o *playerctldOptions) client() (*daemon.Client, func(), error) {
	cfg, err := config.NewLoader().Load()
	if err != nil {
		return nil, nil, &prefixError{prefix: "could not load configuration", err: err}
	}
	cfg.Apply()

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, nil, &prefixError{prefix: "could not connect to message bus", err: err}
	}
	closeConn := func() {
		if err := conn.Close(); err != nil {
			logger.Debug("[cli] closing bus: %v", err)
		}
	}
	return daemon.NewClient(conn, cfg.MPRIS.Timeout), closeConn, nil
}

func (o *playerctldOptions) activate(ctx context.Context) error {
	client, closeConn, err := o.client()
	if err != nil {
		return err
	}
	defer closeConn()

	msg, err := client.Activate(ctx)
	if err != nil {
		return &prefixError{prefix: "could not activate playerctld service", err: err}
	}
	fmt.Fprintln(o.stderr, msg)
	return nil
}

func (o *playerctldOptions) rotate(ctx context.Context, verb string, fn func(*daemon.Client, context.Context) (string, error)) error {
	client, closeConn, err := o.client()
	if err != nil {
		return err
	}
	defer closeConn()

	name, err := fn(client, ctx)
	if err != nil {
		return &prefixError{prefix: "Cannot " + verb, err: err}
	}
	fmt.Fprintln(o.stdout, name)
	return nil
}

// serve runs the daemon until ctx is done.
func (o *playerctldOptions) serve(ctx context.Context) error {
	loader := config.NewLoader()
	cfg, err := loader.Load()
	if err != nil {
		return &prefixError{prefix: "could not load configuration", err: err}
	}
	cfg.Apply()

	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Zap()}
		}),
		fx.Supply(cfg, loader),
		fx.Provide(
			newSessionBus,
			newDaemonBackend,
			newDaemonServer,
		),
		fx.Invoke(registerDaemonHooks),
	)

	if err := app.Start(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("could not acquire bus name: %w", daemon.ErrAlreadyRunning)
		}
		return err
	}

	select {
	case <-ctx.Done():
	case sig := <-app.Done():
		logger.Info("[daemon] received %s", sig)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}

func newSessionBus() (*mpris.StdBusClient, error) {
	bus, err := mpris.ConnectSessionBus()
	if err != nil {
		return nil, &prefixError{prefix: "could not connect to message bus", err: err}
	}
	return bus, nil
}

func newDaemonBackend(lc fx.Lifecycle, bus *mpris.StdBusClient, cfg *config.Config) *backend.Backend {
	b := backend.New(context.Background(), bus, backend.Config{
		MPRIS: mpris.Config{
			Timeout: cfg.MPRIS.Timeout,
			Exclude: []string{daemon.BusName},
		},
		Ignore: cfg.Daemon.Ignore,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return b.Close()
		},
	})
	return b
}

func newDaemonServer(bus *mpris.StdBusClient, b *backend.Backend, cfg *config.Config) *daemon.Server {
	return daemon.NewServer(context.Background(), bus.Conn(), bus, b.Registry, cfg.MPRIS.Timeout)
}

type daemonParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Backend   *backend.Backend
	Server    *daemon.Server
	Config    *config.Config
	Loader    *config.Loader
}

func registerDaemonHooks(p daemonParams) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := p.Server.Export(); err != nil {
				return err
			}
			if err := p.Server.Acquire(); err != nil {
				return err
			}

			updates := p.Backend.Subscribe(events.FilterBackend([]string{"registry"}))
			if err := p.Backend.Start(); err != nil {
				p.Backend.Unsubscribe(updates)
				return multierr.Append(err, p.Server.Release())
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer p.Backend.Unsubscribe(updates)
				p.Server.Run(ctx, updates)
			}()

			if err := p.Loader.Watch(ctx, func(cfg *config.Config) {
				cfg.Apply()
				if err := p.Backend.Registry.SetIgnore(ctx, cfg.Daemon.Ignore); err != nil {
					logger.Warn("[daemon] could not apply ignore list: %v", err)
				}
			}); err != nil {
				logger.Warn("[daemon] not watching configuration: %v", err)
			}

			if p.Config.Daemon.Notify {
				daemon.NotifyReady()
			}
			logger.Info("[daemon] playerctld is running")
			return nil
		},
		OnStop: func(context.Context) error {
			if p.Config.Daemon.Notify {
				daemon.NotifyStopping()
			}
			cancel()
			wg.Wait()
			return p.Server.Release()
		},
	})
}
