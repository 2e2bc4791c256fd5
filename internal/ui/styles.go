// Package ui provides terminal styling for pm output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/nootmuskaat/pm/internal/types"
)

// Ayu theme color palette
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)

	// HeaderStyle is used for issue titles and table headers.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
)

const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
)

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }
func RenderHeader(s string) string { return HeaderStyle.Render(s) }

// StatusStyle picks the style for an issue status: open is accent,
// in_progress is warn, pending is fail, closed and unknown values are
// muted.
func StatusStyle(status types.Status) lipgloss.Style {
	switch status {
	case types.StatusOpen:
		return AccentStyle
	case types.StatusInProgress:
		return WarnStyle
	case types.StatusPending:
		return FailStyle
	default:
		return MutedStyle
	}
}

// RenderStatus renders a status padded to width before styling so columns
// line up with and without color.
func RenderStatus(status types.Status, width int) string {
	text := string(status)
	for len(text) < width {
		text += " "
	}
	return StatusStyle(status).Render(text)
}

// RenderID renders an issue id as "#<id>".
func RenderID(id int64) string {
	return AccentStyle.Render("#" + strconv.FormatInt(id, 10))
}
