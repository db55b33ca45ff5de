package state

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/metrics"
	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/reducer"
)

// Releaser frees a preview handle held by a queued upload
type Releaser interface {
	Release(src string) error
}

// ReleaserFunc adapts a function to Releaser
type ReleaserFunc func(src string) error

// Release implements Releaser
func (f ReleaserFunc) Release(src string) error { return f(src) }

// Uploads is the upload queue. It owns the preview handle of every queued
// upload and releases a handle once, when its entry leaves the queue.
type Uploads struct {
	mu       sync.Mutex
	files    []model.Upload
	releaser Releaser
	onChange ChangeFunc
}

// NewUploads creates an upload queue. releaser may be nil.
func NewUploads(releaser Releaser, initial ...model.Upload) *Uploads {
	return &Uploads{
		files:    reducer.Reduce(nil, reducer.Replace(initial...)),
		releaser: releaser,
	}
}

// OnChange registers fn to be called after every dispatch
func (u *Uploads) OnChange(fn ChangeFunc) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onChange = fn
}

// Items returns the queued uploads
func (u *Uploads) Items() []model.Upload {
	u.mu.Lock()
	defer u.mu.Unlock()
	return clone(u.files)
}

// Len returns the queue length
func (u *Uploads) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.files)
}

// Pending reports whether anything is queued
func (u *Uploads) Pending() bool {
	return u.Len() > 0
}

// Dispatch reduces the queue and releases handles of removed entries
func (u *Uploads) Dispatch(action reducer.Action[model.Upload]) {
	u.mu.Lock()
	prev := u.files
	u.files = reducer.Reduce(u.files, action)
	stale := removedHandles(prev, u.files)
	n := len(u.files)
	fn := u.onChange
	u.mu.Unlock()

	u.release(stale)
	metrics.SetUploadsQueued(n)
	if fn != nil {
		fn()
	}
}

// Claim marks the entry id as uploading unless it already is, so that a
// queued file is handed to one uploader only. It returns the claimed entry.
func (u *Uploads) Claim(id string) (model.Upload, bool) {
	u.mu.Lock()
	var claimed model.Upload
	found := false
	for _, f := range u.files {
		if f.ID == id {
			claimed, found = f, true
			break
		}
	}
	if !found || claimed.Status == model.UploadUploading {
		u.mu.Unlock()
		return model.Upload{}, false
	}

	u.files = reducer.Reduce(u.files, reducer.Patch[model.Upload](model.UploadPatch{
		ID:       id,
		Status:   model.Ptr(model.UploadUploading),
		Progress: model.Ptr(0.0),
		Err:      model.Ptr(""),
	}))
	fn := u.onChange
	u.mu.Unlock()

	claimed.Status = model.UploadUploading
	claimed.Progress = 0
	claimed.Err = ""
	if fn != nil {
		fn()
	}
	return claimed, true
}

// Close releases every remaining handle and empties the queue
func (u *Uploads) Close() {
	u.mu.Lock()
	stale := removedHandles(u.files, nil)
	u.files = nil
	u.mu.Unlock()

	u.release(stale)
	metrics.SetUploadsQueued(0)
}

func (u *Uploads) release(handles []string) {
	if u.releaser == nil {
		return
	}
	for _, src := range handles {
		if err := u.releaser.Release(src); err != nil {
			logrus.Warnf("Failed to release upload preview %s: %v", src, err)
		}
	}
}

// removedHandles returns the non-empty handles present in prev but not in next
func removedHandles(prev, next []model.Upload) []string {
	keep := make(map[string]struct{}, len(next))
	for _, f := range next {
		if f.Src != "" {
			keep[f.Src] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	var out []string
	for _, f := range prev {
		if f.Src == "" {
			continue
		}
		if _, ok := keep[f.Src]; ok {
			continue
		}
		if _, ok := seen[f.Src]; ok {
			continue
		}
		seen[f.Src] = struct{}{}
		out = append(out, f.Src)
	}
	return out
}
