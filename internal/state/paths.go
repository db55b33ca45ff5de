package state

import (
	"sync"

	"github.com/HaiFongPan/r2drive/internal/model"
)

// Paths is the breadcrumb of visited folders. The root is never included.
type Paths struct {
	mu    sync.RWMutex
	items []model.PathEntry
}

// NewPaths creates an empty breadcrumb
func NewPaths() *Paths {
	return &Paths{}
}

// Items returns the breadcrumb from the top-level folder down
func (p *Paths) Items() []model.PathEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return clone(p.items)
}

// Reset empties the breadcrumb (navigated to root)
func (p *Paths) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = nil
}

// Adjust truncates the breadcrumb to entry if it was already visited,
// otherwise appends it.
func (p *Paths) Adjust(entry model.PathEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, item := range p.items {
		if item.FolderID == entry.FolderID {
			p.items = p.items[:i+1:i+1]
			return
		}
	}
	p.items = append(p.items, entry)
}
