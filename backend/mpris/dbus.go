package mpris

import (
	"context"
	"strings"

	"github.com/godbus/dbus/v5"
	"go.uber.org/multierr"

	idbus "github.com/b0bbywan/go-playerctl/backend/internal/dbus"
	"github.com/b0bbywan/go-playerctl/logger"
)

// validateBusName validates that a busName is MPRIS-compliant
func validateBusName(busName string) error {
	if busName == "" {
		return &InvalidBusNameError{BusName: busName, Reason: "empty bus name"}
	}
	if !strings.HasPrefix(busName, MPRIS_PREFIX+".") || len(busName) == len(MPRIS_PREFIX)+1 {
		return &InvalidBusNameError{BusName: busName, Reason: "must start with org.mpris.MediaPlayer2."}
	}
	if strings.Contains(busName, "..") || strings.Contains(busName, "/") || strings.ContainsAny(busName, "\x00\r\n") {
		return &InvalidBusNameError{BusName: busName, Reason: "contains illegal characters"}
	}
	return nil
}

// listenMatchRules are the signals the listener needs: property changes and
// seeks on the MPRIS object, and MPRIS names coming and going.
var listenMatchRules = []string{
	"type='signal',interface='" + DBUS_PROP_IFACE + "',member='PropertiesChanged',path='" + MPRIS_PATH + "'",
	"type='signal',interface='" + MPRIS_PLAYER_IFACE + "',member='Seeked',path='" + MPRIS_PATH + "'",
	"type='signal',interface='" + DBUS_INTERFACE + "',member='NameOwnerChanged',arg0namespace='" + MPRIS_PREFIX + "'",
}

// StdBusClient is the BusClient backed by a real connection.
type StdBusClient struct {
	conn *dbus.Conn
}

// ConnectSessionBus opens a private-to-process session bus connection.
func ConnectSessionBus() (*StdBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdBusClient{conn: conn}, nil
}

// NewBusClient wraps an existing connection.
func NewBusClient(conn *dbus.Conn) *StdBusClient {
	return &StdBusClient{conn: conn}
}

// Conn returns the underlying connection, for exporting objects.
func (c *StdBusClient) Conn() *dbus.Conn {
	return c.conn
}

func (c *StdBusClient) obj(dest string) dbus.BusObject {
	return idbus.GetObject(c.conn, dest, MPRIS_PATH)
}

func (c *StdBusClient) ListNames(ctx context.Context) ([]string, error) {
	return idbus.ListNames(ctx, c.conn)
}

func (c *StdBusClient) GetNameOwner(ctx context.Context, name string) (string, error) {
	return idbus.GetNameOwner(ctx, c.conn, name)
}

func (c *StdBusClient) GetAll(ctx context.Context, dest, iface string) (map[string]dbus.Variant, error) {
	return idbus.GetAllProperties(ctx, c.obj(dest), iface)
}

func (c *StdBusClient) Get(ctx context.Context, dest, iface, prop string) (dbus.Variant, error) {
	return idbus.GetProperty(ctx, c.obj(dest), iface, prop)
}

func (c *StdBusClient) Set(ctx context.Context, dest, iface, prop string, value interface{}) error {
	return idbus.SetProperty(ctx, c.obj(dest), iface, prop, value)
}

func (c *StdBusClient) Call(ctx context.Context, dest, method string, args ...interface{}) error {
	return idbus.CallMethod(ctx, c.obj(dest), method, args...)
}

func (c *StdBusClient) Subscribe(ctx context.Context) (<-chan *dbus.Signal, error) {
	var added []string
	for _, rule := range listenMatchRules {
		if err := idbus.AddMatchRule(c.conn, rule); err != nil {
			for _, r := range added {
				_ = idbus.RemoveMatchRule(c.conn, r)
			}
			return nil, err
		}
		added = append(added, rule)
	}

	ch := make(chan *dbus.Signal, 64)
	c.conn.Signal(ch)

	go func() {
		<-ctx.Done()
		c.conn.RemoveSignal(ch)
		var err error
		for _, rule := range added {
			err = multierr.Append(err, idbus.RemoveMatchRule(c.conn, rule))
		}
		if err != nil {
			logger.Debug("[mpris] failed to remove match rules: %v", err)
		}
	}()
	return ch, nil
}

func (c *StdBusClient) Close() error {
	return c.conn.Close()
}
