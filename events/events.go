package events

const (
	// raw bus events, produced by the mpris listener and heartbeat
	TypePlayerAppeared = "player.appeared"
	TypePlayerVanished = "player.vanished"
	TypePlayerChanged  = "player.changed"
	TypePlayerSeeked   = "player.seeked"
	TypePlayerPosition = "player.position"

	// registry notifications, one per processed event at most
	TypeStackChanged  = "stack.changed"
	TypePlayerUpdated = "player.updated"
)

// BackendTypes lists the event types each producer emits.
var BackendTypes = map[string][]string{
	"mpris":    {TypePlayerAppeared, TypePlayerVanished, TypePlayerChanged, TypePlayerSeeked, TypePlayerPosition},
	"registry": {TypeStackChanged, TypePlayerUpdated},
}

type Event struct {
	Type string
	Data any
}

// Filter selects events. A nil Filter passes everything.
type Filter func(Event) bool

// FilterTypes passes only the given event types. It returns nil for an
// empty list.
func FilterTypes(types []string) Filter {
	if len(types) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}
	return func(e Event) bool {
		_, ok := allowed[e.Type]
		return ok
	}
}

// FilterBackend passes the events of the named producers. Unknown names are
// ignored; if none is known the result is nil.
func FilterBackend(backends []string) Filter {
	var types []string
	for _, b := range backends {
		types = append(types, BackendTypes[b]...)
	}
	return FilterTypes(types)
}
