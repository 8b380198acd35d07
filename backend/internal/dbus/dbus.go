package dbus

import (
	"context"
	"errors"
	"time"

	"github.com/godbus/dbus/v5"
)

// DefaultTimeout is the timeout used for D-Bus calls whose context carries no deadline.
var DefaultTimeout = 5 * time.Second

// WithTimeout returns ctx bounded by DefaultTimeout unless it already has a deadline.
func WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}

// Call invokes method on obj and waits for the reply, the context or DefaultTimeout.
// A deadline is reported as *TimeoutError.
func Call(ctx context.Context, obj dbus.BusObject, method string, args ...interface{}) *dbus.Call {
	ctx, cancel := WithTimeout(ctx)
	defer cancel()

	call := obj.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil && errors.Is(call.Err, context.DeadlineExceeded) {
		call.Err = &TimeoutError{}
	}
	return call
}

// CallMethod calls a method on a D-Bus object and discards the reply body.
func CallMethod(ctx context.Context, obj dbus.BusObject, method string, args ...interface{}) error {
	return Call(ctx, obj, method, args...).Err
}

// GetProperty retrieves a single property from a D-Bus object.
func GetProperty(ctx context.Context, obj dbus.BusObject, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	call := Call(ctx, obj, PROP_GET, iface, prop)
	if call.Err != nil {
		return dbus.Variant{}, call.Err
	}
	if err := call.Store(&v); err != nil {
		return dbus.Variant{}, err
	}
	return v, nil
}

// SetProperty sets a single property on a D-Bus object.
func SetProperty(ctx context.Context, obj dbus.BusObject, iface, prop string, value interface{}) error {
	return CallMethod(ctx, obj, PROP_SET, iface, prop, dbus.MakeVariant(value))
}

// GetAllProperties retrieves all properties of a D-Bus interface in a single call.
func GetAllProperties(ctx context.Context, obj dbus.BusObject, iface string) (map[string]dbus.Variant, error) {
	var props map[string]dbus.Variant
	call := Call(ctx, obj, PROP_GET_ALL, iface)
	if call.Err != nil {
		return nil, call.Err
	}
	return props, call.Store(&props)
}

// GetObject returns a D-Bus object for the given service and object path.
func GetObject(conn *dbus.Conn, service, path string) dbus.BusObject {
	return conn.Object(service, dbus.ObjectPath(path))
}

// ListNames returns every name currently owned on the bus.
func ListNames(ctx context.Context, conn *dbus.Conn) ([]string, error) {
	var names []string
	call := Call(ctx, conn.BusObject(), BUS_LIST_NAMES)
	if call.Err != nil {
		return nil, call.Err
	}
	return names, call.Store(&names)
}

// GetNameOwner resolves a well-known name to its unique connection name.
func GetNameOwner(ctx context.Context, conn *dbus.Conn, name string) (string, error) {
	var owner string
	call := Call(ctx, conn.BusObject(), BUS_GET_NAME_OWNER, name)
	if call.Err != nil {
		return "", call.Err
	}
	return owner, call.Store(&owner)
}

// AddMatchRule subscribes to a D-Bus signal via a match rule.
func AddMatchRule(conn *dbus.Conn, rule string) error {
	return conn.BusObject().Call(BUS_ADD_MATCH, 0, rule).Err
}

// RemoveMatchRule unsubscribes from a D-Bus signal match rule.
func RemoveMatchRule(conn *dbus.Conn, rule string) error {
	return conn.BusObject().Call(BUS_REMOVE_MATCH, 0, rule).Err
}

// FilterSignal parses a PropertiesChanged D-Bus signal body.
// Returns changed properties, interface name and invalidated property names.
func FilterSignal(sig *dbus.Signal) (map[string]dbus.Variant, string, []string, error) {
	if sig == nil {
		return nil, "", nil, &SignalError{Reason: "channel closed"}
	}
	if len(sig.Body) < 2 {
		return nil, "", nil, &SignalError{Reason: "body too short"}
	}
	iface, ok := sig.Body[0].(string)
	if !ok {
		return nil, "", nil, &SignalError{Reason: "failed to parse interface name"}
	}
	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return nil, "", nil, &SignalError{Reason: "body[1] is not map[string]Variant"}
	}
	var invalidated []string
	if len(sig.Body) > 2 {
		invalidated, _ = sig.Body[2].([]string)
	}
	return changed, iface, invalidated, nil
}

// --- Variant extraction helpers ---

// ExtractString extracts a string from a dbus.Variant. Object paths are accepted.
func ExtractString(v dbus.Variant) (string, bool) {
	switch val := v.Value().(type) {
	case string:
		return val, true
	case dbus.ObjectPath:
		return string(val), true
	}
	return "", false
}

// ExtractBool extracts a bool from a dbus.Variant.
func ExtractBool(v dbus.Variant) (bool, bool) {
	val, ok := v.Value().(bool)
	return val, ok
}

// ExtractInt64 extracts an integer of any D-Bus width from a dbus.Variant.
func ExtractInt64(v dbus.Variant) (int64, bool) {
	switch val := v.Value().(type) {
	case int64:
		return val, true
	case uint64:
		return int64(val), true
	case int32:
		return int64(val), true
	case uint32:
		return int64(val), true
	case int16:
		return int64(val), true
	case uint16:
		return int64(val), true
	case byte:
		return int64(val), true
	}
	return 0, false
}

// ExtractFloat64 extracts a float64 from a dbus.Variant.
func ExtractFloat64(v dbus.Variant) (float64, bool) {
	val, ok := v.Value().(float64)
	return val, ok
}

// ExtractStrings extracts a string array from a dbus.Variant.
func ExtractStrings(v dbus.Variant) ([]string, bool) {
	switch val := v.Value().(type) {
	case []string:
		return val, true
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// ExtractVariantMap extracts a map[string]dbus.Variant from a dbus.Variant.
func ExtractVariantMap(v dbus.Variant) (map[string]dbus.Variant, bool) {
	val, ok := v.Value().(map[string]dbus.Variant)
	return val, ok
}

// --- Map helpers (props map[string]dbus.Variant) ---

// MapString extracts a string from a props map by key.
func MapString(props map[string]dbus.Variant, key string) string {
	if v, ok := props[key]; ok {
		s, _ := ExtractString(v)
		return s
	}
	return ""
}

// Keys returns the keys of a props map (useful for debug logging).
func Keys(props map[string]dbus.Variant) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	return keys
}
