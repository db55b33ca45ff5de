// Package session coordinates folder navigation and mutations against a
// storage backend, applying optimistic updates before the backend confirms
// them and reconciling afterwards.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/cache"
	"github.com/HaiFongPan/r2drive/internal/config"
	"github.com/HaiFongPan/r2drive/internal/metrics"
	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/reducer"
	"github.com/HaiFongPan/r2drive/internal/selection"
	"github.com/HaiFongPan/r2drive/internal/state"
	"github.com/HaiFongPan/r2drive/internal/storage"
	"github.com/HaiFongPan/r2drive/internal/windows"
)

// Mode is how the browser is used
type Mode string

const (
	// ModeNormal is the full file manager
	ModeNormal Mode = "normal"
	// ModeSelection picks records for a caller
	ModeSelection Mode = "selection"
)

// Options configure a session
type Options struct {
	Mode      Mode
	Selection selection.Options
	// EnablePath reflects the current folder into History and restores it on Init
	EnablePath bool
	// RollbackOnFailure discards optimistic changes when a mutation fails.
	// Otherwise they stay until the next successful load.
	RollbackOnFailure bool
	Windows           map[windows.Name]bool
	Notifier          Notifier
}

// OptionsFromConfig builds session options from the browser configuration
func OptionsFromConfig(cfg config.BrowserConfig) Options {
	sel := selection.Options{
		Multiple: cfg.Selection.Multiple,
	}
	for _, kind := range cfg.Selection.Which {
		sel.Which = append(sel.Which, selection.Kind(kind))
	}
	for _, t := range cfg.Selection.FileTypes {
		sel.FileTypes = append(sel.FileTypes, model.FileType(t))
	}

	return Options{
		Mode:              Mode(cfg.Mode),
		Selection:         sel,
		EnablePath:        cfg.EnablePath,
		RollbackOnFailure: cfg.RollbackOnFailure,
		Windows:           windows.ParseInit(cfg.Windows),
		Notifier:          NotifierFor(cfg.Notify),
	}
}

// History stores the last visited folder
type History interface {
	Replace(folderID string) error
	Restore() (string, bool)
}

// Previewer creates and releases thumbnails of queued uploads
type Previewer interface {
	Create(path string) (string, error)
	Release(src string) error
}

// Uploader sends one queued upload to storage
type Uploader interface {
	Upload(ctx context.Context, upload model.Upload, progress func(percentage float64)) (model.File, error)
}

// Deps are the collaborators of a session. Storage and Inspector are required.
type Deps struct {
	Storage   storage.Storage
	Inspector storage.Inspector
	Previews  Previewer
	Uploader  Uploader
	History   History
}

// Session is the state of one browser over a storage backend
type Session struct {
	store     storage.Storage
	inspector storage.Inspector
	previews  Previewer
	uploader  Uploader
	history   History
	notifier  Notifier
	opts      Options

	folderCache *cache.Keyed[*storage.FolderData]

	folders  *state.Folders
	files    *state.List[model.File]
	uploads  *state.Uploads
	paths    *state.Paths
	selector *selection.Selector
	windows  *windows.Manager

	mu              sync.RWMutex
	currentFolderID string

	loading      atomic.Int32
	operating    atomic.Int32
	initializing atomic.Bool

	now func() time.Time
}

// New creates a session
func New(deps Deps, opts Options) (*Session, error) {
	if deps.Storage == nil {
		return nil, errors.New("session: storage is required")
	}
	if deps.Inspector == nil {
		return nil, errors.New("session: inspector is required")
	}
	if opts.Mode == "" {
		opts.Mode = ModeNormal
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifyLog
	}

	s := &Session{
		store:     deps.Storage,
		inspector: deps.Inspector,
		previews:  deps.Previews,
		uploader:  deps.Uploader,
		history:   deps.History,
		notifier:  opts.Notifier,
		opts:      opts,
		folders:   state.NewFolders(nil),
		files:     state.NewFiles(),
		paths:     state.NewPaths(),
		selector:  selection.NewSelector(opts.Selection),
		windows:   windows.NewManager(opts.Windows),
		now:       time.Now,
	}

	var releaser state.Releaser
	if deps.Previews != nil {
		releaser = deps.Previews
	}
	s.uploads = state.NewUploads(releaser)

	s.folderCache = cache.New("folder_data", func(ctx context.Context, args ...string) (*storage.FolderData, error) {
		return s.store.GetFolderData(ctx, args[0])
	})
	s.initializing.Store(true)

	return s, nil
}

// Init restores the last visited folder when path tracking is enabled and loads it
func (s *Session) Init(ctx context.Context) error {
	defer s.initializing.Store(false)

	folderID := ""
	if s.opts.EnablePath && s.history != nil {
		if last, ok := s.history.Restore(); ok {
			folderID = last
		}
	}

	err := s.LoadFolder(ctx, folderID)
	if err != nil && folderID != "" && errors.Is(err, storage.ErrNotFound) {
		logrus.Warnf("Last location %q is gone, opening root", folderID)
		return s.LoadFolder(ctx, "")
	}
	return err
}

// LoadFolder shows the folder with id, "" for the root
func (s *Session) LoadFolder(ctx context.Context, folderID string) error {
	s.loading.Add(1)
	defer s.loading.Add(-1)

	s.setCurrentFolderID(folderID)
	if s.opts.EnablePath && s.history != nil {
		if err := s.history.Replace(folderID); err != nil {
			logrus.Warnf("Failed to record location %q: %v", folderID, err)
		}
	}

	start := time.Now()
	data, err := s.folderCache.Execute(ctx, folderID)
	metrics.RecordOperation("load_folder", err, time.Since(start))
	if err != nil {
		s.folderCache.Revalidate(folderID)
		return s.fail("load folder", err)
	}

	// a newer navigation owns the view now
	if s.CurrentFolderID() != folderID {
		logrus.Debugf("Discarding stale contents of folder %q", folderID)
		return nil
	}

	s.folders.ReplaceFolder(data.Folder)
	s.folders.Dispatch(reducer.Replace(data.Subfolders...))
	s.files.Dispatch(reducer.Replace(data.Files...))

	if data.Folder == nil {
		s.paths.Reset()
	} else {
		s.paths.Adjust(model.PathEntry{FolderID: data.Folder.ID, FolderName: data.Folder.Name})
	}

	if s.windows.MovePending() {
		return nil
	}
	s.selector.ClearAll()
	return nil
}

// RevalidateFolderCache drops the cached contents of folderID
func (s *Session) RevalidateFolderCache(folderID string) {
	s.folderCache.Revalidate(folderID)
}

// ClearAll empties the displayed folder, lists and breadcrumb
func (s *Session) ClearAll() {
	s.folders.ReplaceFolder(nil)
	s.folders.Dispatch(reducer.Replace[model.Folder]())
	s.files.Dispatch(reducer.Replace[model.File]())
	s.paths.Reset()
}

// Close clears the session and releases every queued upload preview
func (s *Session) Close() {
	s.ClearAll()
	s.uploads.Close()
	s.folderCache.Clear()
}

// CurrentFolderID is the id of the folder being shown
func (s *Session) CurrentFolderID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFolderID
}

func (s *Session) setCurrentFolderID(id string) {
	s.mu.Lock()
	s.currentFolderID = id
	s.mu.Unlock()
}

// IsLoadingFolder reports whether a folder load is in flight
func (s *Session) IsLoadingFolder() bool { return s.loading.Load() > 0 }

// IsOperating reports whether a mutation or upload is in flight
func (s *Session) IsOperating() bool { return s.operating.Load() > 0 }

// Initializing is true until Init finishes
func (s *Session) Initializing() bool { return s.initializing.Load() }

// Mode returns the browser mode
func (s *Session) Mode() Mode { return s.opts.Mode }

func (s *Session) Folders() *state.Folders        { return s.folders }
func (s *Session) Files() *state.List[model.File] { return s.files }
func (s *Session) Uploads() *state.Uploads        { return s.uploads }
func (s *Session) Paths() *state.Paths            { return s.paths }
func (s *Session) Selection() *selection.Selector { return s.selector }
func (s *Session) Windows() *windows.Manager      { return s.windows }
func (s *Session) Inspector() storage.Inspector   { return s.inspector }

// UploadConfig summarises what DropFiles accepts
func (s *Session) UploadConfig() storage.UploadConfig {
	return s.inspector.UploadConfig()
}

func (s *Session) notify(level Level, format string, args ...any) {
	s.notifier.Notify(Notification{Message: fmt.Sprintf(format, args...), Level: level})
}

type resetter interface {
	Reset()
}

// fail reports a failed operation and rolls lists back when configured to
func (s *Session) fail(op string, err error, lists ...resetter) error {
	logrus.Errorf("Failed to %s: %v", op, err)
	s.notify(LevelError, "Failed to %s: %v", op, err)

	if s.opts.RollbackOnFailure {
		for _, l := range lists {
			l.Reset()
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Session) beginOperation() func() {
	s.operating.Add(1)
	return func() { s.operating.Add(-1) }
}
