package tui

import (
	"sync"
	"time"

	"github.com/HaiFongPan/r2drive/internal/tui/config"
)

// DoubleTap detects two taps on the same target within Delay
type DoubleTap struct {
	Delay time.Duration

	mu      sync.Mutex
	last    time.Time
	lastKey string
	now     func() time.Time
}

// NewDoubleTap creates a detector, a zero delay uses the default threshold
func NewDoubleTap(delay time.Duration) *DoubleTap {
	if delay <= 0 {
		delay = config.DoubleTapThreshold * time.Millisecond
	}
	return &DoubleTap{Delay: delay, now: time.Now}
}

// Tap records a tap on target and reports whether it completes a double tap
func (d *DoubleTap) Tap(target string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	double := target == d.lastKey && !d.last.IsZero() && now.Sub(d.last) < d.Delay
	d.last = now
	d.lastKey = target
	return double
}
