package daemon

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-playerctl/logger"
)

// Caller reaches objects on the bus. *dbus.Conn implements it.
type Caller interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	BusObject() dbus.BusObject
}

// Client talks to a running (or activatable) playerctld.
type Client struct {
	conn    Caller
	timeout time.Duration
}

func NewClient(conn Caller, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{conn: conn, timeout: timeout}
}

// Shift asks the daemon to make the next player active and returns its
// bus name.
func (c *Client) Shift(ctx context.Context) (string, error) {
	return c.rotate(ctx, METHOD_SHIFT)
}

// Unshift asks the daemon to make the previous player active.
func (c *Client) Unshift(ctx context.Context) (string, error) {
	return c.rotate(ctx, METHOD_UNSHIFT)
}

func (c *Client) rotate(ctx context.Context, method string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var name string
	err := c.conn.Object(BusName, MPRISPath).CallWithContext(ctx, method, 0).Store(&name)
	if err != nil {
		return "", fromDBusError(err)
	}
	logger.Debug("[daemon] %s: active player is %s", method, name)
	return name, nil
}

// Activate starts playerctld through D-Bus service activation and returns
// the message describing what happened.
func (c *Client) Activate(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reply uint32
	err := c.conn.BusObject().CallWithContext(ctx, START_SERVICE, 0, BusName, uint32(0)).Store(&reply)
	if err != nil {
		return "", err
	}
	return activationMessage(reply), nil
}

// Running reports whether some connection owns BusName.
func (c *Client) Running(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var owned bool
	err := c.conn.BusObject().CallWithContext(ctx, NAME_HAS_OWNER, 0, BusName).Store(&owned)
	return owned, err
}

func activationMessage(reply uint32) string {
	switch reply {
	case startReplySuccess:
		return "playerctld successfully started with DBus service activation"
	case startReplyAlreadyRunning:
		return "playerctld DBus service is already running"
	}
	return "playerctld DBus service activation returned an unknown result"
}
