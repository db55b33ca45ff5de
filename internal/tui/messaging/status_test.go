package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/HaiFongPan/r2drive/internal/session"
)

func TestStatusManager_SetAndClear(t *testing.T) {
	sm := NewStatusManager()
	assert.False(t, sm.HasMessage())
	assert.Empty(t, sm.RenderMessage())

	sm.SetMessage("saved", MessageSuccess)
	msg, typ, ok := sm.GetMessage()
	assert.True(t, ok)
	assert.Equal(t, "saved", msg)
	assert.Equal(t, MessageSuccess, typ)
	assert.Contains(t, sm.RenderMessage(), "saved")

	sm.ClearMessage()
	assert.False(t, sm.HasMessage())
}

func TestStatusManager_Notify(t *testing.T) {
	tests := []struct {
		level session.Level
		want  MessageType
	}{
		{session.LevelInfo, MessageSuccess},
		{session.LevelWarn, MessageWarning},
		{session.LevelError, MessageError},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			sm := NewStatusManager()
			var n session.Notifier = sm
			n.Notify(session.Notification{Message: "m", Level: tt.level})

			_, typ, ok := sm.GetMessage()
			assert.True(t, ok)
			assert.Equal(t, tt.want, typ)
		})
	}
}

func TestStatusManager_Expired(t *testing.T) {
	sm := NewStatusManager()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sm.now = func() time.Time { return now }

	// 没有消息时不算过期
	assert.False(t, sm.Expired(time.Second))

	sm.SetMessage("hello", MessageInfo)
	assert.False(t, sm.Expired(time.Second))

	now = now.Add(2 * time.Second)
	assert.True(t, sm.Expired(time.Second))
}
