package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/session"
	"github.com/HaiFongPan/r2drive/internal/tui/config"
	"github.com/HaiFongPan/r2drive/internal/tui/messaging"
	"github.com/HaiFongPan/r2drive/internal/tui/theme"
	"github.com/HaiFongPan/r2drive/internal/utils"
	"github.com/HaiFongPan/r2drive/internal/windows"
)

const statusTTL = 5 * time.Second

// LinkGenerator produces shareable links for object keys
type LinkGenerator interface {
	GenerateAllURLs(ctx context.Context, key string) (map[string]string, error)
	GetPreferredURL(ctx context.Context, key string) (string, error)
}

// Downloader saves objects to the local disk
type Downloader interface {
	Download(ctx context.Context, key string, callback utils.ProgressCallback) (string, error)
}

// Options configure the browser
type Options struct {
	BucketName string
	Links      LinkGenerator
	Downloader Downloader
	// TrashFolderID is opened from the trash window
	TrashFolderID string
	// Status receives the session notifications, a new one is created when nil
	Status *messaging.StatusManagerImpl
}

type rowKind int

const (
	rowFolder rowKind = iota
	rowFile
)

type row struct {
	kind   rowKind
	folder model.Folder
	file   model.File
}

func (r row) id() string {
	if r.kind == rowFolder {
		return r.folder.ID
	}
	return r.file.ID
}

// BrowserModel is the interactive file manager over a session
type BrowserModel struct {
	ctx     context.Context
	session *session.Session
	opts    Options
	status  *messaging.StatusManagerImpl

	rows      []row
	table     table.Model
	keyMap    KeyMap
	help      help.Model
	spinner   spinner.Model
	input     textinput.Model
	progress  progress.Model
	dblTap    *DoubleTap
	program   *tea.Program
	lastError error

	width  int
	height int

	showHelp    bool
	confirmQuit bool

	viewURLs    map[string]string
	viewURLsKey string

	downloading      bool
	downloadingFile  string
	downloadProgress float64
}

// NewBrowserModel creates the browser. The session must notify the returned
// model's status manager, see Options.Status.
func NewBrowserModel(ctx context.Context, s *session.Session, opts Options) *BrowserModel {
	status := opts.Status
	if status == nil {
		status = messaging.NewStatusManager()
	}

	t := table.New(
		table.WithColumns(columns(config.DefaultColumnNameWidth)),
		table.WithHeight(config.DefaultTableHeight),
		table.WithFocused(true),
		table.WithStyles(table.Styles{
			Header: lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color(theme.ColorBrightCyan)).
				BorderBottom(true).
				Bold(true).
				Foreground(lipgloss.Color(theme.ColorBrightCyan)),
			Selected: lipgloss.NewStyle().
				Foreground(lipgloss.Color(theme.ColorWhite)).
				Background(lipgloss.Color(theme.ColorBrightBlue)).
				Bold(true),
			Cell: lipgloss.NewStyle().
				Foreground(lipgloss.Color(theme.ColorWhite)),
		}),
	)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.CreateLoadingStyle()

	in := textinput.New()
	in.CharLimit = 256

	m := &BrowserModel{
		ctx:      ctx,
		session:  s,
		opts:     opts,
		status:   status,
		table:    t,
		keyMap:   DefaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		input:    in,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		dblTap:   NewDoubleTap(0),
		width:    80,
		height:   24,
	}

	s.Windows().SetFileInput(m)
	s.Files().OnChange(m.changed)
	s.Folders().OnChange(m.changed)
	s.Uploads().OnChange(m.changed)
	return m
}

// SetProgram sets the tea.Program used to push state changes made off the update loop
func (m *BrowserModel) SetProgram(p *tea.Program) {
	m.program = p
}

// Status returns the status manager fed by the session
func (m *BrowserModel) Status() *messaging.StatusManagerImpl {
	return m.status
}

// Selected returns what was selected, used when the browser runs as a picker
func (m *BrowserModel) Selected() ([]model.File, []model.Folder) {
	sel := m.session.Selection()
	return sel.SelectedFiles(), sel.SelectedFolders()
}

// Open implements windows.FileInput by focusing the path input of the upload window
func (m *BrowserModel) Open() {
	m.input.Reset()
	m.input.Placeholder = "paths to upload, separated by spaces"
	m.input.Focus()
}

// changed may run on any goroutine, including the update loop itself
func (m *BrowserModel) changed() {
	if m.program != nil {
		go m.program.Send(stateChangedMsg{})
	}
}

// Init implements tea.Model
func (m *BrowserModel) Init() tea.Cmd {
	return tea.Batch(m.initSession(), m.spinner.Tick, statusTick())
}

// Update implements tea.Model
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.confirmQuit {
			return m.handleQuitConfirmation(msg)
		}
		if m.showHelp {
			if key.Matches(msg, m.keyMap.Help, m.keyMap.Cancel) {
				m.showHelp = false
			}
			return m, nil
		}
		if cmd, handled := m.handleDialogKey(msg); handled {
			return m, cmd
		}
		return m.handleNavigation(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateTableSize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusTickMsg:
		if m.status.Expired(statusTTL) {
			m.status.ClearMessage()
		}
		return m, statusTick()

	case folderLoadedMsg:
		m.lastError = msg.err
		m.refreshRows()
		if msg.err == nil {
			m.table.GotoTop()
		}
		return m, nil

	case operationDoneMsg:
		m.refreshRows()
		if msg.err != nil {
			logrus.Debugf("Operation %s failed: %v", msg.op, msg.err)
		}
		return m, nil

	case stateChangedMsg:
		m.refreshRows()
		return m, nil

	case urlsGeneratedMsg:
		if msg.err != nil {
			m.status.SetMessage(fmt.Sprintf("Failed to generate links: %v", msg.err), messaging.MessageError)
			return m, nil
		}
		m.viewURLs = msg.urls
		m.viewURLsKey = msg.key
		return m, nil

	case linkCopiedMsg:
		switch {
		case errors.Is(msg.err, utils.ErrClipboardUnsupported):
			m.status.SetMessage("Clipboard is not available, link: "+msg.url, messaging.MessageWarning)
		case msg.err != nil:
			m.status.SetMessage(fmt.Sprintf("Failed to copy link: %v", msg.err), messaging.MessageError)
		default:
			m.status.SetMessage("Link copied to clipboard", messaging.MessageSuccess)
		}
		return m, nil

	case downloadProgressMsg:
		m.downloadProgress = msg.percentage
		return m, nil

	case downloadDoneMsg:
		m.downloading = false
		m.downloadingFile = ""
		if msg.err != nil {
			m.status.SetMessage(fmt.Sprintf("Download failed: %v", msg.err), messaging.MessageError)
		} else {
			m.status.SetMessage("Saved to "+msg.path, messaging.MessageSuccess)
		}
		return m, nil
	}
	return m, nil
}

// handleNavigation handles keys of the main listing
func (m *BrowserModel) handleNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.session.Windows()

	switch {
	case key.Matches(msg, m.keyMap.Quit):
		if m.session.Uploads().Pending() {
			m.confirmQuit = true
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Up):
		m.table.MoveUp(1)
	case key.Matches(msg, m.keyMap.Down):
		m.table.MoveDown(1)
	case key.Matches(msg, m.keyMap.PageUp):
		m.table.MoveUp(m.table.Height())
	case key.Matches(msg, m.keyMap.PageDown):
		m.table.MoveDown(m.table.Height())
	case key.Matches(msg, m.keyMap.Home):
		m.table.GotoTop()
	case key.Matches(msg, m.keyMap.End):
		m.table.GotoBottom()

	case key.Matches(msg, m.keyMap.Open):
		if r, ok := m.currentRow(); ok {
			return m, m.openRow(r)
		}

	case key.Matches(msg, m.keyMap.Back):
		if parent := m.session.Folders().Folder(); parent != nil {
			return m, m.loadFolder(parent.ParentID)
		}

	case key.Matches(msg, m.keyMap.Select):
		if r, ok := m.currentRow(); ok {
			m.toggleRow(r)
		}

	case key.Matches(msg, m.keyMap.Cancel):
		switch {
		case w.MovePending():
			m.session.CancelMove()
			m.status.SetMessage("Move cancelled", messaging.MessageInfo)
		case m.session.Selection().Count() > 0:
			m.session.Selection().ClearAll()
		}
		m.refreshRows()

	case key.Matches(msg, m.keyMap.Refresh):
		current := m.session.CurrentFolderID()
		m.session.RevalidateFolderCache(current)
		return m, m.loadFolder(current)

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = true
	}

	if m.session.Mode() == session.ModeSelection {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keyMap.NewFolder):
		w.OpenFolderWindow(nil)
		m.focusInput("folder name", "")

	case key.Matches(msg, m.keyMap.Rename):
		if r, ok := m.currentRow(); ok && r.kind == rowFolder {
			w.OpenFolderWindow(&r.folder)
			m.focusInput("folder name", r.folder.Name)
		}

	case key.Matches(msg, m.keyMap.Delete):
		files, folders := m.targets()
		if len(files)+len(folders) > 0 {
			w.OpenDeleteWindow(files, folders)
		}

	case key.Matches(msg, m.keyMap.Move):
		if w.MovePending() {
			return m, m.runOperation("move", m.session.ConfirmMove)
		}
		if err := m.session.StartMove(); err != nil {
			m.status.SetMessage("Select files or folders to move first", messaging.MessageWarning)
			return m, nil
		}
		m.status.SetMessage("Open the destination folder and press m to move here", messaging.MessageInfo)

	case key.Matches(msg, m.keyMap.Upload):
		w.Toggle(windows.UploadFilesWindow, true)
		w.OpenFileInput()

	case key.Matches(msg, m.keyMap.Info):
		if r, ok := m.currentRow(); ok {
			return m, m.viewRow(r)
		}

	case key.Matches(msg, m.keyMap.Copy):
		if r, ok := m.currentRow(); ok && r.kind == rowFile {
			return m, m.copyLink(r.file.ID)
		}

	case key.Matches(msg, m.keyMap.Download):
		if r, ok := m.currentRow(); ok && r.kind == rowFile {
			return m, m.download(r.file)
		}

	case key.Matches(msg, m.keyMap.Trash):
		w.Toggle(windows.TrashWindow)
	}
	return m, nil
}

// handleQuitConfirmation guards quitting while uploads are queued
func (m *BrowserModel) handleQuitConfirmation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirmQuit = false
	if key.Matches(msg, m.keyMap.Confirm) {
		return m, tea.Quit
	}
	return m, nil
}

// handleMouse opens a row on double click and scrolls on wheel
func (m *BrowserModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.session.Windows().AnyOpen() && !m.session.Windows().MovePending() {
		return m, nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.table.MoveUp(1)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.table.MoveDown(1)
		return m, nil
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
	default:
		return m, nil
	}

	index, ok := m.rowAt(msg.Y)
	if !ok {
		return m, nil
	}
	m.table.SetCursor(index)
	r := m.rows[index]
	if m.dblTap.Tap(r.id()) {
		return m, m.openRow(r)
	}
	return m, nil
}

// rowAt maps a screen line to a row index
func (m *BrowserModel) rowAt(y int) (int, bool) {
	offset := 0
	if h := m.table.Height(); m.table.Cursor() >= h {
		offset = m.table.Cursor() - h + 1
	}
	index := y - config.HeaderLines - config.TableHeaderLines + offset
	if index < 0 || index >= len(m.rows) {
		return 0, false
	}
	return index, true
}

func (m *BrowserModel) openRow(r row) tea.Cmd {
	if r.kind == rowFolder {
		return m.loadFolder(r.folder.ID)
	}
	if m.session.Mode() == session.ModeSelection {
		m.toggleRow(r)
		return nil
	}
	return m.viewRow(r)
}

func (m *BrowserModel) viewRow(r row) tea.Cmd {
	w := m.session.Windows()
	if r.kind == rowFolder {
		w.OpenViewWindow(nil, &r.folder)
		return nil
	}
	w.OpenViewWindow(&r.file, nil)
	if !w.IsOpenViewWindow() {
		return nil
	}
	m.viewURLs = nil
	return m.generateURLs(r.file.ID)
}

func (m *BrowserModel) toggleRow(r row) {
	sel := m.session.Selection()
	if r.kind == rowFolder {
		sel.ToggleFolder(r.folder)
	} else {
		sel.ToggleFile(r.file)
	}
	m.refreshRows()
}

// targets returns the selection, or the row under the cursor when nothing is selected
func (m *BrowserModel) targets() ([]model.File, []model.Folder) {
	files, folders := m.Selected()
	if len(files)+len(folders) > 0 {
		return files, folders
	}
	r, ok := m.currentRow()
	if !ok {
		return nil, nil
	}
	if r.kind == rowFolder {
		return nil, []model.Folder{r.folder}
	}
	return []model.File{r.file}, nil
}

func (m *BrowserModel) currentRow() (row, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return row{}, false
	}
	return m.rows[i], true
}

func (m *BrowserModel) focusInput(placeholder, value string) {
	m.input.Reset()
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// refreshRows rebuilds the table from the session lists
func (m *BrowserModel) refreshRows() {
	sel := m.session.Selection()
	folders := m.session.Folders().Items()
	files := m.session.Files().Items()

	m.rows = make([]row, 0, len(folders)+len(files))
	tableRows := make([]table.Row, 0, len(folders)+len(files))

	for _, f := range folders {
		m.rows = append(m.rows, row{kind: rowFolder, folder: f})
		name := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorFolder)).Render(truncate(f.Name) + "/")
		if f.Optimistic {
			name = theme.CreateOptimisticStyle().Render(truncate(f.Name) + "/ ⏳")
		}
		tableRows = append(tableRows, table.Row{
			marker(sel.IsFolderSelected(f.ID)) + "📁 " + name,
			"-",
			"FOLDER",
			formatTime(f.UpdatedAt),
		})
	}

	for _, f := range files {
		m.rows = append(m.rows, row{kind: rowFile, file: f})
		name := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.GetFileColor(f.Type))).Render(truncate(f.Name))
		if f.Optimistic {
			name = theme.CreateOptimisticStyle().Render(truncate(f.Name) + " ⏳")
		}
		tableRows = append(tableRows, table.Row{
			marker(sel.IsFileSelected(f.ID)) + theme.GetFileIcon(f.Type) + " " + name,
			utils.FormatSize(f.Size),
			string(f.Type),
			formatTime(f.UpdatedAt),
		})
	}

	m.table.SetRows(tableRows)
	if m.table.Cursor() >= len(tableRows) {
		m.table.SetCursor(max(len(tableRows)-1, 0))
	}
}

// updateTableSize updates table dimensions and column widths
func (m *BrowserModel) updateTableSize() {
	leftWidth := int(float64(m.width)*config.LeftPanelWidthRatio) - 2
	nameWidth := leftWidth - config.DefaultColumnSizeWidth - config.DefaultColumnTypeWidth -
		config.DefaultColumnModifiedWidth - 8
	nameWidth = min(max(nameWidth, 25), 60)

	m.table.SetColumns(columns(nameWidth))
	m.table.SetHeight(max(m.height-config.HeaderLines-config.TableHeaderLines-config.FooterLines, 3))
}

func columns(nameWidth int) []table.Column {
	return []table.Column{
		{Title: "NAME", Width: nameWidth},
		{Title: "SIZE", Width: config.DefaultColumnSizeWidth},
		{Title: "TYPE", Width: config.DefaultColumnTypeWidth},
		{Title: "MODIFIED", Width: config.DefaultColumnModifiedWidth},
	}
}

func marker(selected bool) string {
	if selected {
		return "✓ "
	}
	return "  "
}

func truncate(name string) string {
	r := []rune(name)
	if len(r) > config.FileNameTruncateLength {
		return string(r[:config.FileNameTruncateLength]) + "..."
	}
	return name
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
