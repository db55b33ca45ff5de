// Package windows manages dialog visibility and the data staged for each dialog.
package windows

import (
	"fmt"
	"sync"
)

// ToggleConfig configures one named toggle
type ToggleConfig struct {
	Init bool
	// PreToggle runs with the current open value before it changes
	PreToggle func(open bool)
}

// Toggles is a fixed set of named booleans
type Toggles[K ~string] struct {
	mu      sync.RWMutex
	configs map[K]ToggleConfig
	open    map[K]bool
}

// NewToggles creates toggles for exactly the names in configs
func NewToggles[K ~string](configs map[K]ToggleConfig) *Toggles[K] {
	t := &Toggles[K]{
		configs: make(map[K]ToggleConfig, len(configs)),
		open:    make(map[K]bool, len(configs)),
	}
	for name, cfg := range configs {
		t.configs[name] = cfg
		t.open[name] = cfg.Init
	}
	return t
}

// Toggle runs the pre-toggle hook with the current value, then sets the
// toggle to explicit[0] if given or flips it otherwise.
func (t *Toggles[K]) Toggle(name K, explicit ...bool) error {
	t.mu.RLock()
	cfg, ok := t.configs[name]
	current := t.open[name]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown toggle %q", string(name))
	}

	if cfg.PreToggle != nil {
		cfg.PreToggle(current)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(explicit) > 0 {
		t.open[name] = explicit[0]
	} else {
		t.open[name] = !t.open[name]
	}
	return nil
}

// IsOpen reports the state of name
func (t *Toggles[K]) IsOpen(name K) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open[name]
}

// States returns a copy of every toggle's state
func (t *Toggles[K]) States() map[K]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[K]bool, len(t.open))
	for k, v := range t.open {
		out[k] = v
	}
	return out
}
