package dbus

// Standard D-Bus names
const (
	DBUS_INTERFACE = "org.freedesktop.DBus"

	BUS_LIST_NAMES     = DBUS_INTERFACE + ".ListNames"
	BUS_ADD_MATCH      = DBUS_INTERFACE + ".AddMatch"
	BUS_REMOVE_MATCH   = DBUS_INTERFACE + ".RemoveMatch"
	BUS_GET_NAME_OWNER = DBUS_INTERFACE + ".GetNameOwner"
	DBUS_PROP_IFACE    = DBUS_INTERFACE + ".Properties"

	PROP_GET     = DBUS_PROP_IFACE + ".Get"
	PROP_SET     = DBUS_PROP_IFACE + ".Set"
	PROP_GET_ALL = DBUS_PROP_IFACE + ".GetAll"
)

// Well-known error names returned by the bus daemon when a peer is gone.
const (
	ERR_SERVICE_UNKNOWN   = "org.freedesktop.DBus.Error.ServiceUnknown"
	ERR_NAME_HAS_NO_OWNER = "org.freedesktop.DBus.Error.NameHasNoOwner"
	ERR_NO_REPLY          = "org.freedesktop.DBus.Error.NoReply"
	ERR_UNKNOWN_METHOD    = "org.freedesktop.DBus.Error.UnknownMethod"
)
