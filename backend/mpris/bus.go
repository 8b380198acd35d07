package mpris

import (
	"context"

	"github.com/godbus/dbus/v5"
)

//go:generate mockgen -destination=mocks/mock_bus.go -package=mocks github.com/b0bbywan/go-playerctl/backend/mpris BusClient

// BusClient is the slice of the session bus the backend needs. Every
// destination is a bus name; the object path is always the MPRIS one.
type BusClient interface {
	ListNames(ctx context.Context) ([]string, error)
	GetNameOwner(ctx context.Context, name string) (string, error)
	GetAll(ctx context.Context, dest, iface string) (map[string]dbus.Variant, error)
	Get(ctx context.Context, dest, iface, prop string) (dbus.Variant, error)
	Set(ctx context.Context, dest, iface, prop string, value interface{}) error
	Call(ctx context.Context, dest, method string, args ...interface{}) error
	// Subscribe installs the match rules for player signals and delivers
	// them until ctx is done.
	Subscribe(ctx context.Context) (<-chan *dbus.Signal, error)
	Close() error
}
