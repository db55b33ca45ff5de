package session

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a notification
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a user facing message about an operation
type Notification struct {
	Message string
	Level   Level
}

// Notifier receives session notifications
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(n Notification)

// Notify calls f(n)
func (f NotifierFunc) Notify(n Notification) { f(n) }

var (
	// NotifyOff drops every notification
	NotifyOff Notifier = NotifierFunc(func(Notification) {})

	// NotifyLog writes notifications to the logger
	NotifyLog Notifier = NotifierFunc(func(n Notification) {
		switch n.Level {
		case LevelError:
			logrus.Error(n.Message)
		case LevelWarn:
			logrus.Warn(n.Message)
		default:
			logrus.Info(n.Message)
		}
	})
)

// NotifierFor returns the notifier named by the browser.notify setting
func NotifierFor(name string) Notifier {
	switch strings.ToLower(name) {
	case "off":
		return NotifyOff
	default:
		return NotifyLog
	}
}
