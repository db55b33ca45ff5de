package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/HaiFongPan/r2drive/internal/model"
	"github.com/HaiFongPan/r2drive/internal/tui/config"
	"github.com/HaiFongPan/r2drive/internal/tui/messaging"
	"github.com/HaiFongPan/r2drive/internal/tui/theme"
	"github.com/HaiFongPan/r2drive/internal/utils"
	"github.com/HaiFongPan/r2drive/internal/windows"
)

// handleDialogKey routes keys to the open modal dialog. The move window is
// not modal, the listing stays usable while a move is pending.
func (m *BrowserModel) handleDialogKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	w := m.session.Windows()

	switch {
	case w.IsOpenDeleteWindow():
		return m.handleDeleteKey(msg), true
	case w.IsOpenFolderWindow():
		return m.handleFolderKey(msg), true
	case w.IsOpenUploadFilesWindow():
		return m.handleUploadKey(msg), true
	case w.IsOpenViewWindow():
		return m.handleViewKey(msg), true
	case w.IsOpenTrashWindow():
		return m.handleTrashKey(msg), true
	}
	return nil, false
}

func (m *BrowserModel) handleDeleteKey(msg tea.KeyMsg) tea.Cmd {
	w := m.session.Windows()
	switch {
	case key.Matches(msg, m.keyMap.Confirm):
		files, folders := w.FilesToDelete(), w.FoldersToDelete()
		w.Toggle(windows.DeleteWindow, false)
		return m.trash(files, folders)
	case key.Matches(msg, m.keyMap.Cancel), msg.String() == "n":
		w.Toggle(windows.DeleteWindow, false)
	}
	return nil
}

func (m *BrowserModel) handleFolderKey(msg tea.KeyMsg) tea.Cmd {
	w := m.session.Windows()
	switch msg.Type {
	case tea.KeyEsc:
		m.input.Blur()
		w.Toggle(windows.FolderWindow, false)
		return nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.input.Value())
		if name == "" || strings.Contains(name, "/") {
			m.status.SetMessage("Folder names cannot be empty or contain /", messaging.MessageWarning)
			return nil
		}
		editing := w.FolderToEdit()
		m.input.Blur()
		w.Toggle(windows.FolderWindow, false)
		if editing != nil {
			if editing.Name == name {
				return nil
			}
			return m.renameFolder(*editing, name)
		}
		return m.createFolder(name)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *BrowserModel) handleUploadKey(msg tea.KeyMsg) tea.Cmd {
	w := m.session.Windows()
	switch {
	case msg.Type == tea.KeyEsc:
		m.input.Blur()
		w.Toggle(windows.UploadFilesWindow, false)
		return nil
	case key.Matches(msg, m.keyMap.StartUpload):
		if !m.session.Uploads().Pending() {
			return nil
		}
		return m.processUploads()
	case key.Matches(msg, m.keyMap.ClearFailed):
		for _, u := range m.session.Uploads().Items() {
			if u.Status == model.UploadFailed {
				m.session.RemoveUpload(u.ID)
			}
		}
		return nil
	case msg.Type == tea.KeyEnter:
		paths := strings.Fields(m.input.Value())
		if len(paths) == 0 {
			return nil
		}
		m.input.Reset()
		if n, err := m.session.DropFiles(paths); err == nil && n > 0 {
			m.status.SetMessage(fmt.Sprintf("%d file(s) queued", n), messaging.MessageInfo)
		}
		m.refreshRows()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *BrowserModel) handleViewKey(msg tea.KeyMsg) tea.Cmd {
	w := m.session.Windows()
	file := w.FileToView()
	switch {
	case key.Matches(msg, m.keyMap.Cancel, m.keyMap.Info, m.keyMap.Quit):
		w.Toggle(windows.ViewWindow, false)
		m.viewURLs = nil
	case key.Matches(msg, m.keyMap.Copy) && file != nil:
		return m.copyLink(file.ID)
	case key.Matches(msg, m.keyMap.Download) && file != nil:
		return m.download(*file)
	}
	return nil
}

func (m *BrowserModel) handleTrashKey(msg tea.KeyMsg) tea.Cmd {
	w := m.session.Windows()
	switch {
	case key.Matches(msg, m.keyMap.Open) && m.opts.TrashFolderID != "":
		w.Toggle(windows.TrashWindow, false)
		return m.loadFolder(m.opts.TrashFolderID)
	case key.Matches(msg, m.keyMap.Cancel, m.keyMap.Trash, m.keyMap.Quit):
		w.Toggle(windows.TrashWindow, false)
	}
	return nil
}

// renderDialog renders the open modal dialog, "" when none is open
func (m *BrowserModel) renderDialog() string {
	w := m.session.Windows()
	switch {
	case m.confirmQuit:
		return m.renderQuitConfirmation()
	case m.showHelp:
		return m.renderHelpDialog()
	case w.IsOpenDeleteWindow():
		return m.renderDeleteConfirmation()
	case w.IsOpenFolderWindow():
		return m.renderFolderDialog()
	case w.IsOpenUploadFilesWindow():
		return m.renderUploadDialog()
	case w.IsOpenViewWindow():
		return m.renderViewDialog()
	case w.IsOpenTrashWindow():
		return m.renderTrashDialog()
	}
	return ""
}

func (m *BrowserModel) renderQuitConfirmation() string {
	n := m.session.Uploads().Len()
	content := theme.CreatePromptStyle().Render("⚠️  Uploads pending") + "\n\n" +
		fmt.Sprintf("%d file(s) are still queued and will be lost.\n\n", n) +
		theme.CreateSecondaryTextStyle().Render("Press 'y' to quit, any other key to stay")
	return theme.CreateDialogStyle(config.DialogDefaultWidth, theme.ColorBrightYellow).Render(content)
}

func (m *BrowserModel) renderDeleteConfirmation() string {
	w := m.session.Windows()
	var b strings.Builder
	b.WriteString(theme.CreatePromptStyle().Render("🗑️  Move to trash"))
	b.WriteString("\n\n")
	for _, f := range w.FoldersToDelete() {
		b.WriteString("📁 " + f.Name + "/\n")
	}
	for _, f := range w.FilesToDelete() {
		b.WriteString(theme.GetFileIcon(f.Type) + " " + f.Name + "\n")
	}
	b.WriteString("\n")
	b.WriteString(theme.CreateSecondaryTextStyle().Render("Press 'y' to confirm, 'n' to cancel"))
	return theme.CreateDialogStyle(config.DialogDefaultWidth, theme.ColorBrightRed).Render(b.String())
}

func (m *BrowserModel) renderFolderDialog() string {
	title := "📁 New folder"
	if f := m.session.Windows().FolderToEdit(); f != nil {
		title = "✏️  Rename " + f.Name
	}
	content := theme.CreateSectionHeaderStyle().Render(title) + "\n" +
		m.input.View() + "\n\n" +
		theme.CreateSecondaryTextStyle().Render("enter to save, esc to cancel")
	return theme.CreateDialogStyle(config.DialogDefaultWidth, "").Render(content)
}

func (m *BrowserModel) renderUploadDialog() string {
	cfg := m.session.UploadConfig()

	var b strings.Builder
	b.WriteString(theme.CreateSectionHeaderStyle().Render("⬆️  Upload files"))
	b.WriteString("\n")
	b.WriteString(theme.CreateSecondaryTextStyle().Render(
		fmt.Sprintf("up to %d files, %s each", cfg.MaxFiles, utils.FormatSize(cfg.MaxSize))))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	uploads := m.session.Uploads().Items()
	if len(uploads) == 0 {
		b.WriteString(theme.CreateSecondaryTextStyle().Render("Queue is empty"))
	}
	for _, u := range uploads {
		line := fmt.Sprintf("%s %s  %s", theme.GetFileIcon(u.Type), u.Name, utils.FormatSize(u.Size))
		switch u.Status {
		case model.UploadUploading:
			line += "  " + m.progress.ViewAs(u.Progress/100)
		case model.UploadFailed:
			line += "  " + theme.CreateErrorStyle().Render("failed: "+u.Err)
		default:
			line += "  " + theme.CreateLoadingStyle().Render("pending")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.CreateSecondaryTextStyle().Render("enter to queue, ctrl+s to upload, ctrl+r to remove failed, esc to close"))
	return theme.CreateDialogStyle(config.DialogLargeWidth, "").Render(b.String())
}

func (m *BrowserModel) renderViewDialog() string {
	w := m.session.Windows()
	info := theme.CreateInfoTextStyle()

	var b strings.Builder
	if folder := w.FolderToView(); folder != nil {
		b.WriteString(theme.CreateSectionHeaderStyle().Render("📁 " + folder.Name))
		b.WriteString("\n")
		b.WriteString(info.Render("Path: " + folder.ID))
		b.WriteString("\n")
		b.WriteString(info.Render("Modified: " + formatTime(folder.UpdatedAt)))
	}

	if file := w.FileToView(); file != nil {
		b.WriteString(theme.CreateSectionHeaderStyle().Render(theme.GetFileIcon(file.Type) + " " + file.Name))
		b.WriteString("\n")
		b.WriteString(info.Render("Key: " + file.ID))
		b.WriteString("\n")
		b.WriteString(info.Render(fmt.Sprintf("Size: %s", utils.FormatSize(file.Size))))
		b.WriteString("\n")
		b.WriteString(info.Render("Type: " + file.MimeType))
		b.WriteString("\n")
		b.WriteString(info.Render("Modified: " + formatTime(file.UpdatedAt)))
		b.WriteString("\n\n")

		if m.viewURLsKey == file.ID && len(m.viewURLs) > 0 {
			labels := make([]string, 0, len(m.viewURLs))
			for label := range m.viewURLs {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				b.WriteString(theme.CreateURLSectionStyle().Render(label + ":"))
				b.WriteString("\n")
				b.WriteString(theme.FormatClickableURL("open link", m.viewURLs[label]))
				b.WriteString("\n")
			}
		} else if m.opts.Links != nil {
			b.WriteString(theme.CreateLoadingStyle().Render(m.spinner.View() + " Generating links..."))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(theme.CreateSecondaryTextStyle().Render("c to copy link, d to download, esc to close"))
	}
	return theme.CreateDialogStyle(config.DialogLargeWidth, "").Render(b.String())
}

func (m *BrowserModel) renderTrashDialog() string {
	content := theme.CreateSectionHeaderStyle().Render("🗑️  Trash") + "\n" +
		"Trashed files and folders keep their path under the trash folder.\n\n"
	if m.opts.TrashFolderID != "" {
		content += theme.CreateSecondaryTextStyle().Render("enter to browse the trash, esc to close")
	} else {
		content += theme.CreateSecondaryTextStyle().Render("esc to close")
	}
	return theme.CreateDialogStyle(config.DialogDefaultWidth, "").Render(content)
}

func (m *BrowserModel) renderHelpDialog() string {
	content := theme.CreatePromptStyle().Render("🚀 r2drive - Help") + "\n\n" +
		m.help.FullHelpView(m.keyMap.FullHelp()) + "\n\n" +
		theme.CreateSecondaryTextStyle().Render("Press ? or esc to close help")
	return theme.CreateDialogStyle(min(config.DialogLargeWidth, max(m.width-10, 30)), theme.ColorBrightYellow).Render(content)
}
