package app

import (
	"github.com/coreos/go-systemd/v22/daemon"

	"shutdowner/internal/eventbus"
	logx "shutdowner/pkg/logx"
)

// notifySystemd reports readiness to systemd when running as a Type=notify unit.
// Outside systemd NOTIFY_SOCKET is unset and SdNotify does nothing.
func (a *App) notifySystemd(e eventbus.Event) {
	var state string
	switch e.Type {
	case eventbus.TypeArmed:
		state = daemon.SdNotifyReady + "\nSTATUS=armed: " + e.Data.Summary
	case eventbus.TypeFired:
		state = daemon.SdNotifyStopping + "\nSTATUS=shutting down: " + e.Data.Summary
	case eventbus.TypeShutdownFailed:
		state = "STATUS=shutdown failed: " + e.Data.Error
	case eventbus.TypeStopped:
		state = daemon.SdNotifyStopping + "\nSTATUS=stopped"
	default:
		return
	}
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		a.log.Debug("sd_notify failed", logx.String("type", e.Type), logx.Err(err))
		return
	}
	if sent {
		a.log.Debug("sd_notify sent", logx.String("type", e.Type))
	}
}
