// Package backend wires the MPRIS bus backend to the player registry and
// broadcasts registry notifications to any number of consumers.
package backend

import (
	"context"
	"sync"

	"github.com/b0bbywan/go-playerctl/backend/mpris"
	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
	"github.com/b0bbywan/go-playerctl/registry"
)

// Config groups the settings of the wired backend.
type Config struct {
	MPRIS mpris.Config
	// Ignore lists player names the registry never manages.
	Ignore []string
}

type Backend struct {
	MPRIS    *mpris.MPRISBackend
	Registry *registry.Registry

	ctx         context.Context
	cancel      context.CancelFunc
	broadcaster *Broadcaster
	wg          sync.WaitGroup
}

// New creates the backend on top of a bus client. Nothing runs until Start.
func New(ctx context.Context, bus mpris.BusClient, cfg Config) *Backend {
	ctx, cancel := context.WithCancel(ctx)
	b := &Backend{
		MPRIS:    mpris.New(ctx, bus, cfg.MPRIS),
		Registry: registry.New(cfg.Ignore),
		ctx:      ctx,
		cancel:   cancel,
	}
	b.broadcaster = newBroadcasterFromBackend(ctx, b)
	return b
}

// Start runs the registry, subscribes to bus signals and loads the players
// already present, in bus order. It returns once the initial players are in
// the registry.
func (b *Backend) Start() error {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.Registry.Run(b.ctx)
	}()

	if err := b.MPRIS.Start(); err != nil {
		return err
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.pump()
	}()

	names, err := b.MPRIS.ListPlayerNames(b.ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := b.Registry.Appear(b.ctx, name); err != nil {
			return err
		}
		b.load(name)
	}
	logger.Info("[backend] started with %d players", len(names))
	return nil
}

// Subscribe returns a channel of registry notifications passing filter.
func (b *Backend) Subscribe(filter events.Filter) chan events.Event {
	return b.broadcaster.SubscribeFunc(filter)
}

// Unsubscribe releases a channel returned by Subscribe.
func (b *Backend) Unsubscribe(ch chan events.Event) {
	b.broadcaster.Unsubscribe(ch)
}

// load fetches a player and hands it to the registry. A player that cannot
// be loaded is withdrawn.
func (b *Backend) load(name mpris.PlayerName) {
	p, err := b.MPRIS.LoadPlayer(b.ctx, name)
	if err != nil {
		logger.Debug("[backend] could not load %s: %v", name.BusName, err)
		if err := b.Registry.Vanish(b.ctx, name.BusName); err != nil {
			logger.Debug("[backend] withdraw %s: %v", name.BusName, err)
		}
		return
	}
	if err := b.Registry.Load(b.ctx, p); err != nil {
		logger.Debug("[backend] hand over %s: %v", name.BusName, err)
	}
}

// pump forwards raw bus events to the registry.
func (b *Backend) pump() {
	for {
		select {
		case <-b.ctx.Done():
			return
		case e := <-b.MPRIS.Events():
			if err := b.forward(e); err != nil {
				logger.Debug("[backend] %s: %v", e.Type, err)
			}
		}
	}
}

func (b *Backend) forward(e events.Event) error {
	switch data := e.Data.(type) {
	case mpris.NameEvent:
		switch e.Type {
		case events.TypePlayerAppeared:
			name, err := mpris.ParseBusName(data.BusName)
			if err != nil {
				return err
			}
			if err := b.Registry.Appear(b.ctx, name); err != nil {
				return err
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.load(name)
			}()
			return nil
		case events.TypePlayerVanished:
			return b.Registry.Vanish(b.ctx, data.BusName)
		}

	case mpris.PropertiesEvent:
		return b.Registry.Change(b.ctx, data)

	case mpris.PositionEvent:
		return b.Registry.Position(b.ctx, data, e.Type == events.TypePlayerSeeked)
	}

	logger.Warn("[backend] unexpected %s payload %T", e.Type, e.Data)
	return nil
}

// Close stops every goroutine and releases the bus.
func (b *Backend) Close() error {
	b.cancel()
	b.wg.Wait()
	return b.MPRIS.Close()
}
