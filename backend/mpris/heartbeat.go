package mpris

import (
	"context"
	"sync"
	"time"

	"github.com/b0bbywan/go-playerctl/events"
	"github.com/b0bbywan/go-playerctl/logger"
)

// Heartbeat polls the position of playing players, since MPRIS never
// signals position changes during normal playback. It starts when a player
// starts playing and stops by itself once none is.
type Heartbeat struct {
	backend  *MPRISBackend
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration

	mu     sync.Mutex
	active bool
}

// NewHeartbeat creates a heartbeat polling every interval
func NewHeartbeat(backend *MPRISBackend, interval time.Duration) *Heartbeat {
	ctx, cancel := context.WithCancel(backend.ctx)
	return &Heartbeat{
		backend:  backend,
		ctx:      ctx,
		cancel:   cancel,
		interval: interval,
	}
}

// Start is idempotent: at most one polling loop runs.
func (h *Heartbeat) Start() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.active || h.ctx.Err() != nil {
		return
	}

	h.active = true
	go h.run()
}

// Stop ends the heartbeat for good
func (h *Heartbeat) Stop() {
	h.cancel()
}

func (h *Heartbeat) run() {
	defer func() {
		h.mu.Lock()
		h.active = false
		h.mu.Unlock()
		logger.Debug("[mpris] position heartbeat stopped")
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger.Debug("[mpris] position heartbeat started")

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			if !h.pollPlaying() {
				return
			}
		}
	}
}

// pollPlaying emits a position event for every playing player. It returns
// false when nothing is playing.
func (h *Heartbeat) pollPlaying() bool {
	busNames := h.backend.listener.playing()
	if len(busNames) == 0 {
		return false
	}

	for _, busName := range busNames {
		position, err := h.backend.GetPosition(h.ctx, &Player{BusName: busName})
		if err != nil {
			logger.Debug("[mpris] failed to poll position of %s: %v", busName, err)
			continue
		}
		h.backend.emit(events.Event{
			Type: events.TypePlayerPosition,
			Data: PositionEvent{BusName: busName, Position: position},
		})
	}
	return true
}
