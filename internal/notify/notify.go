// Package notify delivers desktop notifications for completed volume
// operations over the freedesktop notification service.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/mithril-vault/mithril/internal/log"
)

const (
	notifyService   = "org.freedesktop.Notifications"
	notifyPath      = "/org/freedesktop/Notifications"
	notifyInterface = "org.freedesktop.Notifications"

	// expireTimeoutMS is how long a notification stays visible
	expireTimeoutMS = int32(5000)
)

// Notifier reports operation outcomes to the user.
type Notifier interface {
	// Notify shows a notification with the given summary and body
	Notify(summary, body string) error
	// Close releases the underlying transport
	Close() error
}

// DBusNotifier implements Notifier over the session bus.
type DBusNotifier struct {
	appName string
	conn    DBusConnection
}

// DBusNotifierOption is a functional option for DBusNotifier
type DBusNotifierOption func(*DBusNotifier)

// WithConnection sets a custom DBus connection (for testing)
func WithConnection(conn DBusConnection) DBusNotifierOption {
	return func(n *DBusNotifier) {
		n.conn = conn
	}
}

// NewDBusNotifier creates a notifier for the given application name.
func NewDBusNotifier(appName string, opts ...DBusNotifierOption) (*DBusNotifier, error) {
	n := &DBusNotifier{appName: appName}

	for _, opt := range opts {
		opt(n)
	}

	if n.conn == nil {
		conn, err := ConnectSessionBus()
		if err != nil {
			return nil, fmt.Errorf("connect to session bus: %w", err)
		}
		n.conn = conn
	}

	return n, nil
}

// Notify shows a desktop notification. Credential material must never
// appear in summary or body; callers pass sanitized messages only.
func (n *DBusNotifier) Notify(summary, body string) error {
	obj := n.conn.Object(notifyService, dbus.ObjectPath(notifyPath))

	call := obj.Call(notifyInterface+".Notify", 0,
		n.appName,
		uint32(0),               // replaces_id
		"",                      // app_icon
		summary,
		body,
		[]string{},              // actions
		map[string]dbus.Variant{}, // hints
		expireTimeoutMS,
	)
	if call.Err != nil {
		return fmt.Errorf("send notification: %w", call.Err)
	}

	log.Debug("notification sent", "summary", summary)
	return nil
}

// Close closes the bus connection.
func (n *DBusNotifier) Close() error {
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}

// NopNotifier discards notifications; used when notifications are
// disabled or no session bus is reachable.
type NopNotifier struct{}

// Notify discards the notification
func (NopNotifier) Notify(summary, body string) error { return nil }

// Close is a no-op
func (NopNotifier) Close() error { return nil }
