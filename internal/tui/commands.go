package tui

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/storage"
	"github.com/HaiFongPan/r2drive/internal/tui/messaging"
	"github.com/HaiFongPan/r2drive/internal/utils"
)

// Message types for tea.Cmd communication
type folderLoadedMsg struct {
	folderID string
	err      error
}

type operationDoneMsg struct {
	op  string
	err error
}

type stateChangedMsg struct{}

type statusTickMsg struct{}

type urlsGeneratedMsg struct {
	key  string
	urls map[string]string
	err  error
}

type linkCopiedMsg struct {
	url string
	err error
}

type downloadProgressMsg struct {
	percentage float64
}

type downloadDoneMsg struct {
	path string
	err  error
}

func statusTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return statusTickMsg{} })
}

func (m *BrowserModel) initSession() tea.Cmd {
	s := m.session
	ctx := m.ctx
	return func() tea.Msg {
		err := s.Init(ctx)
		return folderLoadedMsg{folderID: s.CurrentFolderID(), err: err}
	}
}

func (m *BrowserModel) loadFolder(id string) tea.Cmd {
	s := m.session
	ctx := m.ctx
	return func() tea.Msg {
		return folderLoadedMsg{folderID: id, err: s.LoadFolder(ctx, id)}
	}
}

// runOperation runs a session mutation off the update loop
func (m *BrowserModel) runOperation(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return operationDoneMsg{op: op, err: fn(ctx)}
	}
}

func (m *BrowserModel) createFolder(name string) tea.Cmd {
	s := m.session
	args := storage.CreateFolderArgs{Name: name, ParentID: s.CurrentFolderID()}
	return m.runOperation("create_folder", func(ctx context.Context) error {
		_, err := s.CreateFolder(ctx, args)
		return err
	})
}

func (m *BrowserModel) renameFolder(folder model.Folder, name string) tea.Cmd {
	s := m.session
	args := storage.UpdateFolderArgs{ID: folder.ID, Name: name}
	return m.runOperation("update_folder", func(ctx context.Context) error {
		_, err := s.UpdateFolder(ctx, args)
		return err
	})
}

func (m *BrowserModel) trash(files []model.File, folders []model.Folder) tea.Cmd {
	s := m.session
	fileIDs := make([]string, len(files))
	for i, f := range files {
		fileIDs[i] = f.ID
	}
	folderIDs := make([]string, len(folders))
	for i, f := range folders {
		folderIDs[i] = f.ID
	}

	return m.runOperation("trash", func(ctx context.Context) error {
		var errs []error
		if len(fileIDs) > 0 {
			errs = append(errs, s.TrashFiles(ctx, storage.TrashFilesArgs{IDs: fileIDs}))
		}
		if len(folderIDs) > 0 {
			errs = append(errs, s.TrashFolders(ctx, storage.TrashFoldersArgs{IDs: folderIDs}))
		}
		return errors.Join(errs...)
	})
}

func (m *BrowserModel) processUploads() tea.Cmd {
	return m.runOperation("upload", m.session.ProcessUploads)
}

func (m *BrowserModel) generateURLs(key string) tea.Cmd {
	links := m.opts.Links
	if links == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		urls, err := links.GenerateAllURLs(ctx, key)
		return urlsGeneratedMsg{key: key, urls: urls, err: err}
	}
}

func (m *BrowserModel) copyLink(key string) tea.Cmd {
	links := m.opts.Links
	if links == nil {
		m.status.SetMessage("Links are not available", messaging.MessageWarning)
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		url, err := links.GetPreferredURL(ctx, key)
		if err != nil {
			return linkCopiedMsg{err: err}
		}
		return linkCopiedMsg{url: url, err: utils.CopyToClipboard(url)}
	}
}

// download saves a file, progress is pushed through the program when one is set
func (m *BrowserModel) download(file model.File) tea.Cmd {
	d := m.opts.Downloader
	if d == nil {
		m.status.SetMessage("Downloads are not available", messaging.MessageWarning)
		return nil
	}
	if m.downloading {
		return nil
	}

	m.downloading = true
	m.downloadingFile = filepath.Base(file.Name)
	m.downloadProgress = 0

	ctx := m.ctx
	program := m.program
	return func() tea.Msg {
		path, err := d.Download(ctx, file.ID, func(_, _ int64, percentage float64) {
			if program != nil {
				program.Send(downloadProgressMsg{percentage: percentage})
			}
		})
		if err != nil {
			logrus.Errorf("Failed to download %s: %v", file.ID, err)
		}
		return downloadDoneMsg{path: path, err: err}
	}
}
