package daemon

import (
	sd "github.com/coreos/go-systemd/v22/daemon"

	"github.com/b0bbywan/go-playerctl/logger"
)

// NotifyReady tells systemd the service is up. It is a no-op outside a unit.
func NotifyReady() {
	notify(sd.SdNotifyReady)
}

// NotifyStopping tells systemd the service is shutting down.
func NotifyStopping() {
	notify(sd.SdNotifyStopping)
}

func notify(state string) {
	sent, err := sd.SdNotify(false, state)
	if err != nil {
		logger.Warn("[daemon] sd_notify %s failed: %v", state, err)
		return
	}
	if sent {
		logger.Debug("[daemon] sd_notify %s", state)
	}
}
