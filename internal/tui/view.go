package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/HaiFongPan/r2drive/internal/session"
	"github.com/HaiFongPan/r2drive/internal/tui/config"
	"github.com/HaiFongPan/r2drive/internal/tui/theme"
	"github.com/HaiFongPan/r2drive/internal/utils"
)

// View implements tea.Model
func (m *BrowserModel) View() string {
	header := theme.CreateHeaderStyle().Render(m.renderTitle())
	breadcrumb := theme.CreateBreadcrumbStyle().Render(m.renderBreadcrumb())

	if m.session.Initializing() {
		return header + "\n" + breadcrumb + "\n" +
			theme.CreateLoadingStyle().Render(fmt.Sprintf("%s Loading...", m.spinner.View()))
	}

	leftWidth := int(float64(m.width) * config.LeftPanelWidthRatio)
	rightWidth := m.width - leftWidth - 2

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderLeftPanel(leftWidth),
		lipgloss.NewStyle().Width(2).Render("  "),
		m.renderRightPanel(rightWidth),
	)

	baseView := header + "\n" + breadcrumb + "\n" + content + "\n" + m.renderFooter()

	if dialog := m.renderDialog(); dialog != "" {
		return m.renderFloatingDialog(dialog)
	}
	return baseView
}

func (m *BrowserModel) renderTitle() string {
	title := "☁️  r2drive"
	if m.opts.BucketName != "" {
		title += " · " + m.opts.BucketName
	}
	if m.session.Mode() == session.ModeSelection {
		title += " · select"
	}
	return title
}

func (m *BrowserModel) renderBreadcrumb() string {
	parts := []string{"/"}
	for _, p := range m.session.Paths().Items() {
		parts = append(parts, p.FolderName)
	}
	return strings.Join(parts, " › ")
}

func (m *BrowserModel) renderLeftPanel(width int) string {
	if m.lastError != nil && len(m.rows) == 0 {
		return theme.CreateErrorStyle().Width(width).Render(fmt.Sprintf("Error: %v", m.lastError))
	}
	if len(m.rows) == 0 {
		return lipgloss.NewStyle().
			Foreground(lipgloss.Color(theme.ColorBrightBlack)).
			Width(width).
			Height(m.table.Height()).
			Align(lipgloss.Center).
			AlignVertical(lipgloss.Center).
			Render("This folder is empty")
	}

	folders, files := 0, 0
	for _, r := range m.rows {
		if r.kind == rowFolder {
			folders++
		} else {
			files++
		}
	}
	count := theme.CreateSecondaryTextStyle().
		Render(fmt.Sprintf("%d folder(s), %d file(s)", folders, files))
	return m.table.View() + "\n" + count
}

func (m *BrowserModel) renderRightPanel(width int) string {
	panel := lipgloss.NewStyle().
		Border(theme.BorderStyleUnified).
		BorderForeground(lipgloss.Color(theme.ColorBrightBlack)).
		Padding(0, 1).
		Width(max(width-2, 10))

	var b strings.Builder
	if r, ok := m.currentRow(); ok {
		b.WriteString(theme.CreateSectionHeaderStyle().Render("Details"))
		b.WriteString("\n")
		if r.kind == rowFolder {
			b.WriteString("📁 " + r.folder.Name + "/\n")
			b.WriteString(theme.CreateSecondaryTextStyle().Render(r.folder.ID))
		} else {
			b.WriteString(theme.GetFileIcon(r.file.Type) + " " + r.file.Name + "\n")
			b.WriteString(fmt.Sprintf("%s · %s\n", utils.FormatSize(r.file.Size), r.file.MimeType))
			b.WriteString(theme.CreateSecondaryTextStyle().Render(r.file.ID))
		}
		b.WriteString("\n\n")
	}

	if n := m.session.Selection().Count(); n > 0 {
		b.WriteString(theme.CreatePromptStyle().Render(fmt.Sprintf("%d selected", n)))
		b.WriteString("\n")
	}
	if details := m.session.Windows().MoveDetails(); details != nil {
		b.WriteString(theme.CreatePromptStyle().Render(fmt.Sprintf("Moving %d item(s): press m here, esc to cancel",
			len(details.FilesToMove)+len(details.FoldersToMove))))
		b.WriteString("\n")
	}
	if n := m.session.Uploads().Len(); n > 0 {
		b.WriteString(theme.CreateLoadingStyle().Render(fmt.Sprintf("%d upload(s) queued, press u", n)))
		b.WriteString("\n")
	}
	return panel.Render(b.String())
}

func (m *BrowserModel) renderFooter() string {
	var lines []string
	if m.session.IsLoadingFolder() || m.session.IsOperating() {
		lines = append(lines, theme.CreateLoadingStyle().Render(m.spinner.View()+" Working..."))
	}
	if m.downloading {
		lines = append(lines, theme.FormatProgressMessage("Downloading", m.downloadingFile, m.downloadProgress))
	}
	if msg := m.status.RenderMessage(); msg != "" {
		lines = append(lines, msg)
	}
	lines = append(lines, m.help.ShortHelpView(m.keyMap.ShortHelp()))
	return theme.CreateFooterStyle().Render(strings.Join(lines, "\n"))
}

// renderFloatingDialog centers a dialog over the screen
func (m *BrowserModel) renderFloatingDialog(dialog string) string {
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		dialog,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("#222222")),
	)
}
