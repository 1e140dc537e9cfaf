//go:build linux

package notify

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	notifyDest   = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = notifyDest + ".Notify"
	closeMethod  = notifyDest + ".CloseNotification"

	appName      = "Flux"
	desktopEntry = "flux"
)

type dbusNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus. Without one it returns a notifier that
// drops everything.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return stubNotifier{}, nil //nolint:nilerr // notifications are optional
	}
	return &dbusNotifier{obj: conn.Object(notifyDest, notifyPath)}, nil
}

// Notify(app_name, replaces_id, app_icon, summary, body, actions, hints, expire_timeout) -> id
func (d *dbusNotifier) Notify(n Notification) (uint32, error) {
	var id uint32
	err := d.obj.Call(notifyMethod, 0,
		appName, n.ReplacesID, n.Icon, n.Title, n.Body,
		[]string{}, hints(n), n.Timeout,
	).Store(&id)
	return id, err
}

func (d *dbusNotifier) Close(id uint32) error {
	return d.obj.Call(closeMethod, 0, id).Err
}

// hints carries the urgency and, for local artwork, an image-path so
// servers that ignore app_icon still show the cover.
func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
	}
	if strings.HasPrefix(n.Icon, "file://") || strings.HasPrefix(n.Icon, "/") {
		h["image-path"] = dbus.MakeVariant(n.Icon)
	}
	return h
}
