package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

func modalBoxWidth(width int) int {
	w := width - 8
	if w > 72 {
		w = 72
	}
	return max(w, 30)
}

// modalBodyWidth is the content width inside renderModalBox's padding.
func modalBodyWidth(width int) int { return modalBoxWidth(width) - 4 }

func renderModalBox(width int, title, content string) string {
	boxW := modalBoxWidth(width)
	header := lipgloss.NewStyle().
		Width(boxW).
		Padding(0, 2).
		Bold(true).
		Foreground(colorSurfaceFg).
		Background(colorControlBg).
		Render(title)
	body := lipgloss.NewStyle().
		Width(boxW).
		Padding(1, 2).
		Foreground(colorSurfaceFg).
		Background(colorSurfaceBg).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func renderConfirmModal(width int, title, body, confirmLabel, cancelLabel string, focus confirmModalFocus) string {
	// No borders: nested borders on a colored background leave artifacts in some terminals.
	btn := lipgloss.NewStyle().
		Padding(0, 1).
		Foreground(colorSurfaceFg).
		Background(colorControlBg)
	active := btn.
		Foreground(colorSelectedFg).
		Background(colorSelectedBg).
		Bold(true)

	confirm, cancel := btn.Render(confirmLabel), btn.Render(cancelLabel)
	switch focus {
	case confirmFocusConfirm:
		confirm = active.Render(confirmLabel)
	case confirmFocusCancel:
		cancel = active.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	help := styleMuted().Width(modalBodyWidth(width)).Render("tab: focus   enter: select   y: yes   esc: cancel")
	return renderModalBox(width, title, strings.Join([]string{body, "", controls, "", help}, "\n"))
}
