package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/session"
	"github.com/HaiFongPan/r2drive/internal/tui/theme"
)

// MessageType represents different message types for status display
type MessageType int

// Message type constants
const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

func (t MessageType) level() string {
	switch t {
	case MessageSuccess:
		return theme.LevelSuccess
	case MessageWarning:
		return theme.LevelWarn
	case MessageError:
		return theme.LevelError
	default:
		return theme.LevelInfo
	}
}

// StatusManager manages status messages and their display
type StatusManager interface {
	SetMessage(message string, msgType MessageType)
	ClearMessage()
	GetMessage() (string, MessageType, bool)
	RenderMessage() string
	HasMessage() bool
	// Expired reports whether the message is older than ttl
	Expired(ttl time.Duration) bool
}

// StatusManagerImpl implements StatusManager. It also receives session
// notifications, which arrive from command goroutines.
type StatusManagerImpl struct {
	mu            sync.RWMutex
	statusMessage string
	messageType   MessageType
	messageTimer  time.Time
	now           func() time.Time
}

// NewStatusManager creates a new status manager instance
func NewStatusManager() *StatusManagerImpl {
	return &StatusManagerImpl{
		messageType: MessageInfo,
		now:         time.Now,
	}
}

// SetMessage sets a status message with type
func (sm *StatusManagerImpl) SetMessage(message string, msgType MessageType) {
	sm.mu.Lock()
	sm.statusMessage = message
	sm.messageType = msgType
	sm.messageTimer = sm.now()
	sm.mu.Unlock()

	logrus.Debugf("StatusManager: message=%q type=%d", message, msgType)
}

// Notify implements session.Notifier
func (sm *StatusManagerImpl) Notify(n session.Notification) {
	switch n.Level {
	case session.LevelError:
		sm.SetMessage(n.Message, MessageError)
	case session.LevelWarn:
		sm.SetMessage(n.Message, MessageWarning)
	default:
		sm.SetMessage(n.Message, MessageSuccess)
	}
}

// ClearMessage clears the status message
func (sm *StatusManagerImpl) ClearMessage() {
	sm.mu.Lock()
	sm.statusMessage = ""
	sm.mu.Unlock()
}

// GetMessage returns the current message, type, and whether a message exists
func (sm *StatusManagerImpl) GetMessage() (string, MessageType, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.statusMessage, sm.messageType, sm.statusMessage != ""
}

// HasMessage returns whether there is currently a status message
func (sm *StatusManagerImpl) HasMessage() bool {
	_, _, ok := sm.GetMessage()
	return ok
}

// Expired reports whether the current message was set more than ttl ago
func (sm *StatusManagerImpl) Expired(ttl time.Duration) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.statusMessage != "" && sm.now().Sub(sm.messageTimer) > ttl
}

// RenderMessage renders the current status message with appropriate styling
func (sm *StatusManagerImpl) RenderMessage() string {
	message, msgType, ok := sm.GetMessage()
	if !ok {
		return ""
	}

	level := msgType.level()
	messageStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(theme.GetMessageColor(level))).
		Bold(true)

	return messageStyle.Render(fmt.Sprintf("%s %s", theme.GetMessageIcon(level), message))
}
